package lifecycle

import "sync"

// ProgressSnapshot is a point-in-time view of a run.
type ProgressSnapshot struct {
	TotalSteps  int    `json:"total_steps"`
	DoneSteps   int    `json:"done_steps"`
	TotalCells  int    `json:"total_cells"`
	DoneCells   int    `json:"done_cells"`
	FailedCells int    `json:"failed_cells"`
	Current     string `json:"current,omitempty"`
}

// Progress tracks a run against totals fixed before the first coordinate.
type Progress struct {
	mu      sync.Mutex
	started bool
	snap    ProgressSnapshot
}

// Begin fixes the totals. Only the first call counts; it reports whether
// this call was it.
func (p *Progress) Begin(totalSteps, totalCells int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return false
	}
	p.started = true
	p.snap.TotalSteps = totalSteps
	p.snap.TotalCells = totalCells
	return true
}

// Start marks cell as running.
func (p *Progress) Start(cell string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Current = cell
}

// Finish accounts for a finished coordinate.
func (p *Progress) Finish(steps int, failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.DoneSteps += steps
	p.snap.DoneCells++
	if failed {
		p.snap.FailedCells++
	}
	p.snap.Current = ""
}

// Snapshot returns the current progress.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}
