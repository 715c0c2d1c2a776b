package tools

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type Criticality int

const (
	Required Criticality = iota
	Optional
)

func (c Criticality) String() string {
	if c == Required {
		return "required"
	}
	return "optional"
}

// PolishGroup tags the tools that are only needed for the polishing stage.
// If any of them is missing the stage is skipped rather than the run failing.
const PolishGroup = "polish"

// Tool describes one external executable the pipeline may call. ParseVersion
// holds the tool-specific banner strategy; nil means the generic first
// dotted-number scan.
type Tool struct {
	Name         string
	Criticality  Criticality
	Group        string
	MinVersion   Version
	VersionArgs  []string
	ParseVersion func(banner string) Version
}

// GateResult is the outcome of probing one tool.
type GateResult struct {
	Tool         string
	Criticality  Criticality
	Group        string
	Available    bool
	Path         string
	Version      Version
	MeetsMinimum bool
}

// Check probes a single tool: resolves it on PATH, runs its version command
// and parses the banner. A tool that is present but prints nothing usable is
// reported with version 0.0.0, which always fails the minimum check so the
// caller warns instead of trusting it silently.
func Check(t Tool) GateResult {
	res := GateResult{Tool: t.Name, Criticality: t.Criticality, Group: t.Group}

	path, err := exec.LookPath(t.Name)
	if err != nil {
		return res
	}
	res.Available = true
	res.Path = path

	// bwa prints its banner to stderr and exits non-zero when called without
	// arguments, so the exit status is ignored here.
	out, _ := exec.Command(t.Name, t.VersionArgs...).CombinedOutput()
	parse := t.ParseVersion
	if parse == nil {
		parse = ExtractVersion
	}
	res.Version = parse(string(out))
	res.MeetsMinimum = res.Version.Compare(t.MinVersion) >= 0
	return res
}

// CheckAll probes every tool in parallel and preserves input order. The
// returned error is non-nil only when a required tool is missing; it names
// all of them at once.
func CheckAll(list []Tool) ([]GateResult, error) {
	results := make([]GateResult, len(list))
	g := new(errgroup.Group)
	for i, t := range list {
		i, t := i, t
		g.Go(func() error {
			results[i] = Check(t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	missing := lo.FilterMap(results, func(r GateResult, _ int) (string, bool) {
		return r.Tool, r.Criticality == Required && !r.Available
	})
	if len(missing) > 0 {
		return results, fmt.Errorf("required tools not found on PATH: %s", strings.Join(missing, ", "))
	}
	return results, nil
}

// PolishReady reports whether the full polishing trio is available.
func PolishReady(results []GateResult) bool {
	for _, r := range results {
		if r.Group == PolishGroup && !r.Available {
			return false
		}
	}
	return true
}

// Advisories returns one warning line per tool that is present but reports
// an unknown or below-minimum version.
func Advisories(results []GateResult) []string {
	return lo.FilterMap(results, func(r GateResult, _ int) (string, bool) {
		if !r.Available || r.MeetsMinimum {
			return "", false
		}
		return fmt.Sprintf("%s version %s is below the tested minimum, results may differ", r.Tool, r.Version), true
	})
}

// DefaultTools is the toolchain of the assembly pipeline with the minimum
// versions it was tested against.
func DefaultTools() []Tool {
	return []Tool{
		{Name: "fastp", Criticality: Required, MinVersion: Version{0, 20, 0}, VersionArgs: []string{"--version"}},
		{Name: "spades.py", Criticality: Required, MinVersion: Version{3, 14, 0}, VersionArgs: []string{"--version"}},
		{Name: "quast.py", Criticality: Optional, MinVersion: Version{5, 0, 0}, VersionArgs: []string{"--version"}},
		{Name: "bwa", Criticality: Optional, Group: PolishGroup, MinVersion: Version{0, 7, 17}, ParseVersion: LabeledVersion},
		{Name: "samtools", Criticality: Optional, Group: PolishGroup, MinVersion: Version{1, 9, 0}, VersionArgs: []string{"--version"}, ParseVersion: FirstLineVersion},
		{Name: "pilon", Criticality: Optional, Group: PolishGroup, MinVersion: Version{1, 23, 0}, VersionArgs: []string{"--version"}},
		{Name: "prokka", Criticality: Optional, MinVersion: Version{1, 13, 0}, VersionArgs: []string{"--version"}},
	}
}
