package lifecycle

import "fmt"

// RenderError reports a coordinate the backend could not produce.
type RenderError struct {
	Path   string
	Images int
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("render of '%s' failed: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("render of '%s' produced %d images", e.Path, e.Images)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
