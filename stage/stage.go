package stage

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/utils"
)

// Status classifies one stage invocation.
type Status int

const (
	Success Status = iota
	Failed
	OutputMissing
	OutputEmpty
	OutputTooSmall
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failed:
		return "failed"
	case OutputMissing:
		return "output-missing"
	case OutputEmpty:
		return "output-empty"
	case OutputTooSmall:
		return "output-too-small"
	}
	return "unknown"
}

// Fatal reports whether this outcome must abort the run. Empty or undersized
// outputs are soft signals because legitimate small outputs exist, for
// example tiny test genomes.
func (s Status) Fatal() bool {
	return s == Failed || s == OutputMissing
}

// Advisory reports whether this outcome should be surfaced as a warning
// while the run continues.
func (s Status) Advisory() bool {
	return s == OutputEmpty || s == OutputTooSmall
}

// Spec is a stateless stage descriptor. Inputs are checked before the
// command runs, Output after it finished. MinBytes of 0 disables the size
// gate; an empty Output skips artifact validation entirely.
type Spec struct {
	Name     string
	Cmd      string
	Inputs   []string
	Output   string
	MinBytes int64
}

// Result is the immutable outcome of one stage invocation.
type Result struct {
	Stage    string
	Status   Status
	Duration time.Duration
	Artifact string
	Bytes    int64
	Err      error
}

// Runner executes stage commands through bash and writes lifecycle entries
// to the run log.
type Runner struct {
	Logger *slog.Logger
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{Logger: logger}
}

// Run checks declared inputs, invokes the stage command synchronously and
// classifies the declared output. A missing input fails the stage without
// invoking the tool, so the cause is the absent dependency and not an opaque
// downstream error.
func (r *Runner) Run(spec Spec) Result {
	res := Result{Stage: spec.Name}

	for _, in := range spec.Inputs {
		if !utils.FileExists(in) {
			res.Status = Failed
			res.Err = fmt.Errorf("stage %s: missing input %s", spec.Name, in)
			r.log(spec, res)
			return res
		}
	}

	fmt.Printf("Running: %s\n\n", spec.Cmd)
	r.Logger.Info(spec.Name, "STATUS", "STARTED", "CMD", spec.Cmd)

	start := time.Now()
	err := utils.RunBashCmdVerbose(spec.Cmd)
	res.Duration = time.Since(start)

	if err != nil {
		res.Status = Failed
		res.Err = fmt.Errorf("stage %s: %w", spec.Name, err)
		r.log(spec, res)
		return res
	}

	res.Status, res.Bytes = classify(spec)
	if res.Status == OutputMissing {
		res.Err = fmt.Errorf("stage %s: declared output %s was not produced", spec.Name, spec.Output)
	} else {
		res.Artifact = spec.Output
	}
	r.log(spec, res)
	return res
}

// classify applies the output gates: only a missing artifact is fatal.
func classify(spec Spec) (Status, int64) {
	if spec.Output == "" {
		return Success, 0
	}
	info, err := os.Stat(spec.Output)
	if err != nil || info.IsDir() {
		return OutputMissing, 0
	}
	size := info.Size()
	switch {
	case size == 0:
		return OutputEmpty, size
	case spec.MinBytes > 0 && size < spec.MinBytes:
		return OutputTooSmall, size
	}
	return Success, size
}

func (r *Runner) log(spec Spec, res Result) {
	switch {
	case res.Status == Failed || res.Status == OutputMissing:
		r.Logger.Error(spec.Name, "STATUS", "FAILED", "CMD", spec.Cmd, "ERROR", fmt.Sprint(res.Err))
	case res.Status.Advisory():
		r.Logger.Warn(spec.Name, "STATUS", "FINISHED", "RESULT", res.Status.String(), "OUTPUT", spec.Output, "BYTES", res.Bytes, "DURATION", res.Duration.Round(time.Millisecond).String())
	default:
		r.Logger.Info(spec.Name, "STATUS", "FINISHED", "OUTPUT", spec.Output, "DURATION", res.Duration.Round(time.Millisecond).String())
	}
}
