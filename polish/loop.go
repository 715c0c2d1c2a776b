package polish

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/resources"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/stage"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/utils"
)

// DiskScratchFactor sizes the polishing scratch estimate as a multiple of
// the read pair, covering the sorted BAM, its index and the corrected
// genome copies per round.
const DiskScratchFactor = 3

// Outcome says how the polishing loop ended.
type Outcome int

const (
	Skipped Outcome = iota
	StoppedEarly
	StoppedByBudget
	FallbackToPrevious
	FallbackToOriginal
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case StoppedEarly:
		return "stopped-early"
	case StoppedByBudget:
		return "stopped-by-budget"
	case FallbackToPrevious:
		return "fell-back-to-previous"
	case FallbackToOriginal:
		return "fell-back-to-original"
	}
	return "unknown"
}

// GenomeState is the thread of truth through the loop: the artifact the
// next round starts from, how many rounds completed, and the per-round
// correction counts. History keeps every artifact in order, the initial
// assembly first, so "latest good" is a walk backwards rather than a
// filesystem search.
type GenomeState struct {
	Current string
	Round   int
	Changes []int
	History []string
}

func NewState(initial string) GenomeState {
	return GenomeState{Current: initial, History: []string{initial}}
}

// Loop drives up to Rounds iterations of align, correct, evaluate over a
// genome assembly.
type Loop struct {
	Runner   *stage.Runner
	Tooling  Tooling
	Logger   *slog.Logger
	WorkDir  string
	BaseName string
	Rounds   int

	// Read pair sizes drive the scratch space estimate.
	ForwardReads string
	ReverseReads string
	AllowLowDisk bool

	// FreeDisk is swappable for tests; nil uses the real filesystem probe.
	FreeDisk func(string) (uint64, error)

	// Advisories collects non-fatal warnings raised during the run.
	Advisories []string
}

// Run executes the polishing rounds starting from the initial assembly.
// Whatever happens, the returned state's Current artifact exists on disk:
// a failed round rewinds to the last good genome, never to a dangling path.
func (l *Loop) Run(initial string) (GenomeState, Outcome) {
	state := NewState(initial)

	if err := os.MkdirAll(l.WorkDir, 0755); err != nil {
		l.Logger.Error("polishing", "STATUS", "FAILED", "ERROR", err.Error())
		return l.fallback(state, 1)
	}

	ok, warning := l.diskGuard()
	if !ok {
		l.advise(warning)
		l.Logger.Warn("polishing", "STATUS", "SKIPPED", "REASON", "insufficient disk space")
		return state, Skipped
	}
	if warning != "" {
		l.advise(warning)
	}

	l.Logger.Info("polishing", "STATUS", "STARTED", "ROUNDS", l.Rounds, "GENOME", initial)

	for i := 1; i <= l.Rounds; i++ {
		fmt.Printf("Polishing round %d of %d ..\n", i, l.Rounds)

		roundDir := filepath.Join(l.WorkDir, fmt.Sprintf("round_%d", i))
		if err := os.MkdirAll(roundDir, 0755); err != nil {
			l.Logger.Error("polish round", "ROUND", i, "STATUS", "FAILED", "ERROR", err.Error())
			return l.fallback(state, i)
		}
		prefix := filepath.Join(roundDir, fmt.Sprintf("%s_round_%d", l.BaseName, i))
		bam := prefix + ".bam"

		if res := l.runStep(l.Tooling.Index(state.Current)); res.Status.Fatal() {
			return l.fallback(state, i)
		}
		if res := l.runStep(l.Tooling.Align(state.Current, bam)); res.Status.Fatal() {
			return l.fallback(state, i)
		}
		if res := l.runStep(l.Tooling.Correct(state.Current, bam, prefix)); res.Status.Fatal() {
			return l.fallback(state, i)
		}

		count, err := CountChanges(prefix + ".changes")
		if err != nil {
			l.Logger.Error("polish round", "ROUND", i, "STATUS", "FAILED", "ERROR", err.Error())
			return l.fallback(state, i)
		}

		state.Current = prefix + ".fasta"
		state.Round = i
		state.Changes = append(state.Changes, count)
		state.History = append(state.History, state.Current)
		l.Logger.Info("polish round", "ROUND", i, "STATUS", "FINISHED", "CHANGES", count)
		fmt.Printf("Round %d applied %d corrections.\n\n", i, count)

		// The budget check runs before the early-stop check so a zero-change
		// final round still reports the round budget as what stopped the loop.
		if i == l.Rounds {
			return l.finish(state, StoppedByBudget)
		}
		if count == 0 && i >= 2 {
			return l.finish(state, StoppedEarly)
		}
	}
	return l.finish(state, StoppedByBudget)
}

// runStep runs one sub-step through the stage runner and keeps soft output
// signals as advisories.
func (l *Loop) runStep(spec stage.Spec) stage.Result {
	res := l.Runner.Run(spec)
	if res.Status.Advisory() {
		l.advise(fmt.Sprintf("%s produced a suspicious artifact: %s (%s)", res.Stage, res.Status, utils.HumanBytes(res.Bytes)))
	}
	return res
}

func (l *Loop) finish(state GenomeState, outcome Outcome) (GenomeState, Outcome) {
	l.Logger.Info("polishing", "STATUS", "FINISHED", "OUTCOME", outcome.String(), "ROUNDS", state.Round, "GENOME", state.Current)
	fmt.Printf("Polishing finished after %d round(s).\n\n", state.Round)
	return state, outcome
}

// fallback aborts the loop at round failedRound and rewinds Current to the
// most recent artifact that still exists on disk.
func (l *Loop) fallback(state GenomeState, failedRound int) (GenomeState, Outcome) {
	for j := len(state.History) - 1; j >= 0; j-- {
		if utils.FileExists(state.History[j]) {
			state.Current = state.History[j]
			break
		}
	}
	outcome := FallbackToPrevious
	if failedRound == 1 {
		outcome = FallbackToOriginal
	}
	l.advise(fmt.Sprintf("polishing round %d failed, continuing with %s", failedRound, state.Current))
	l.Logger.Warn("polishing", "STATUS", "FINISHED", "OUTCOME", outcome.String(), "FAILED_ROUND", failedRound, "GENOME", state.Current)
	return state, outcome
}

// diskGuard estimates scratch space as a small multiple of the read pair
// size. false means polishing should be skipped entirely; a non-empty
// warning with true means proceed but tell the user.
func (l *Loop) diskGuard() (bool, string) {
	need := uint64(utils.FileSize(l.ForwardReads)+utils.FileSize(l.ReverseReads)) * DiskScratchFactor
	if need == 0 {
		return true, ""
	}
	freeFn := l.FreeDisk
	if freeFn == nil {
		freeFn = resources.FreeDisk
	}
	free, err := freeFn(l.WorkDir)
	if err != nil {
		// No introspection available, assume the requested run is fine.
		return true, ""
	}
	if free >= need {
		return true, ""
	}
	msg := fmt.Sprintf("free disk %s is below the estimated polishing scratch need %s", utils.HumanBytes(free), utils.HumanBytes(need))
	if l.AllowLowDisk {
		return true, msg + ", continuing as configured"
	}
	return false, msg + ", skipping polishing (set allow_low_disk_polish to override)"
}

func (l *Loop) advise(msg string) {
	l.Advisories = append(l.Advisories, msg)
	fmt.Println(msg)
}
