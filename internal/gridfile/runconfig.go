package gridfile

import (
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/axisgrid/internal/config"
)

type runFile struct {
	Backend         *runBackend `hcl:"backend,block"`
	Output          *runOutput  `hcl:"output,block"`
	ValidateReplace *bool       `hcl:"validate_replace,optional"`
	SkipInvalid     *bool       `hcl:"skip_invalid,optional"`
	Overwrite       *bool       `hcl:"overwrite,optional"`
	PublishMetadata *bool       `hcl:"publish_metadata,optional"`
	Remain          hcl.Body    `hcl:",remain"`
}

type runBackend struct {
	Kind      string `hcl:"kind,label"`
	URL       string `hcl:"url,optional"`
	Namespace string `hcl:"namespace,optional"`
	Timeout   string `hcl:"timeout,optional"`
}

type runOutput struct {
	Dir    string `hcl:"dir,optional"`
	Format string `hcl:"format,optional"`
	Index  string `hcl:"index,optional"`
}

// LoadRun reads a run-config file:
//
//	backend "socketio" {
//	  url     = "http://127.0.0.1:7860"
//	  timeout = "2m"
//	}
//	output {
//	  dir    = "outputs/grids"
//	  format = "jpg"
//	}
//	validate_replace = true
func LoadRun(path string) (*config.Run, error) {
	f, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse run config %s: %w", path, diags)
	}
	var rf runFile
	if diags := gohcl.DecodeBody(f.Body, nil, &rf); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode run config %s: %w", path, diags)
	}

	run := &config.Run{
		ValidateReplace: rf.ValidateReplace,
		SkipInvalid:     rf.SkipInvalid,
		Overwrite:       rf.Overwrite,
		PublishMetadata: rf.PublishMetadata,
	}
	if rf.Output != nil {
		run.OutputDir = rf.Output.Dir
		run.Format = rf.Output.Format
		run.Index = rf.Output.Index
	}
	if b := rf.Backend; b != nil {
		run.Backend = &config.Backend{Kind: b.Kind, URL: b.URL, Namespace: b.Namespace}
		if b.Timeout != "" {
			d, err := time.ParseDuration(b.Timeout)
			if err != nil {
				return nil, fmt.Errorf("run config %s: backend timeout: %w", path, err)
			}
			run.Backend.Timeout = d
		}
	}
	return run, nil
}
