package polish

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/stage"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/utils"
)

// scriptTooling fabricates polished genomes with a scripted number of
// corrections per round. alignFail marks rounds whose alignment breaks;
// correctCmd overrides the correction command for a round, usually to make
// it fail.
type scriptTooling struct {
	changes    []int
	alignFail  map[int]bool
	correctCmd map[int]string
	aligns     int
	corrects   int
}

func (s *scriptTooling) Index(genome string) stage.Spec {
	return stage.Spec{Name: "polish-index", Cmd: "touch " + genome + ".bwt", Inputs: []string{genome}, Output: genome + ".bwt"}
}

func (s *scriptTooling) Align(genome, bam string) stage.Spec {
	s.aligns++
	if s.alignFail[s.aligns] {
		return stage.Spec{Name: "polish-align", Cmd: "exit 1", Inputs: []string{genome}}
	}
	cmd := fmt.Sprintf("printf 'BAM' > %s && touch %s.bai", bam, bam)
	return stage.Spec{Name: "polish-align", Cmd: cmd, Inputs: []string{genome}, Output: bam}
}

func (s *scriptTooling) Correct(genome, bam, prefix string) stage.Spec {
	s.corrects++
	round := s.corrects
	if cmd, ok := s.correctCmd[round]; ok {
		return stage.Spec{Name: "polish-correct", Cmd: cmd, Inputs: []string{genome, bam}, Output: prefix + ".fasta"}
	}
	count := 0
	if round <= len(s.changes) {
		count = s.changes[round-1]
	}
	lines := strings.Repeat("contig1:100 A T\n", count)
	cmd := fmt.Sprintf("printf %q > %s.fasta && printf %q > %s.changes",
		">contig1 polished\nACGTACGT\n", prefix, lines, prefix)
	return stage.Spec{Name: "polish-correct", Cmd: cmd, Inputs: []string{genome, bam}, Output: prefix + ".fasta"}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLoop(t *testing.T, tooling Tooling, rounds int) *Loop {
	t.Helper()
	return &Loop{
		Runner:   stage.NewRunner(quiet()),
		Tooling:  tooling,
		Logger:   quiet(),
		WorkDir:  filepath.Join(t.TempDir(), "polish"),
		BaseName: "sample",
		Rounds:   rounds,
		FreeDisk: func(string) (uint64, error) { return 1 << 40, nil },
	}
}

func writeInitial(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assembly.fasta")
	if err := os.WriteFile(path, []byte(">contig1\nACGTACGT\n"), 0644); err != nil {
		t.Fatalf("writing initial assembly: %v", err)
	}
	return path
}

func roundFasta(l *Loop, round int) string {
	return filepath.Join(l.WorkDir, fmt.Sprintf("round_%d", round), fmt.Sprintf("sample_round_%d.fasta", round))
}

func TestZeroChangesStopsAtRoundTwo(t *testing.T) {
	for _, rounds := range []int{3, 5} {
		l := newTestLoop(t, &scriptTooling{changes: []int{0, 0, 0, 0, 0}}, rounds)
		state, outcome := l.Run(writeInitial(t))

		if outcome != StoppedEarly {
			t.Errorf("rounds=%d: outcome = %v, want stopped-early", rounds, outcome)
		}
		if state.Round != 2 {
			t.Errorf("rounds=%d: stopped at round %d, want 2", rounds, state.Round)
		}
		if want := roundFasta(l, 2); state.Current != want {
			t.Errorf("rounds=%d: Current = %q, want %q", rounds, state.Current, want)
		}
		if !utils.FileExists(state.Current) {
			t.Errorf("rounds=%d: Current %q does not exist", rounds, state.Current)
		}
	}
}

func TestChangesEveryRoundRunsFullBudget(t *testing.T) {
	l := newTestLoop(t, &scriptTooling{changes: []int{12, 5, 3}}, 3)
	state, outcome := l.Run(writeInitial(t))

	if outcome != StoppedByBudget {
		t.Fatalf("outcome = %v, want stopped-by-budget", outcome)
	}
	if state.Round != 3 {
		t.Errorf("Round = %d, want 3", state.Round)
	}
	if want := roundFasta(l, 3); state.Current != want {
		t.Errorf("Current = %q, want %q", state.Current, want)
	}
	if len(state.Changes) != 3 || state.Changes[0] != 12 || state.Changes[1] != 5 || state.Changes[2] != 3 {
		t.Errorf("Changes = %v, want [12 5 3]", state.Changes)
	}
	if len(state.History) != 4 {
		t.Errorf("History has %d entries, want 4 (initial + 3 rounds)", len(state.History))
	}
}

func TestZeroChangeFinalRoundIsBudgetNotEarlyStop(t *testing.T) {
	// Round budget and convergence land on the same round: the budget wins.
	l := newTestLoop(t, &scriptTooling{changes: []int{12, 3, 0}}, 3)
	state, outcome := l.Run(writeInitial(t))

	if outcome != StoppedByBudget {
		t.Fatalf("outcome = %v, want stopped-by-budget", outcome)
	}
	if state.Round != 3 {
		t.Errorf("Round = %d, want 3", state.Round)
	}
	if len(state.Changes) != 3 || state.Changes[2] != 0 {
		t.Errorf("Changes = %v, want [12 3 0]", state.Changes)
	}
	if want := roundFasta(l, 3); state.Current != want {
		t.Errorf("Current = %q, want %q", state.Current, want)
	}
}

func TestSingleRoundBudget(t *testing.T) {
	l := newTestLoop(t, &scriptTooling{changes: []int{0}}, 1)
	state, outcome := l.Run(writeInitial(t))

	if outcome != StoppedByBudget {
		t.Fatalf("outcome = %v, want stopped-by-budget", outcome)
	}
	if state.Round != 1 {
		t.Errorf("Round = %d, want 1", state.Round)
	}
}

func TestZeroChangeFirstRoundContinues(t *testing.T) {
	// A zero-change round 1 is not trusted as convergence.
	l := newTestLoop(t, &scriptTooling{changes: []int{0, 4, 0}}, 4)
	state, outcome := l.Run(writeInitial(t))

	if outcome != StoppedEarly {
		t.Fatalf("outcome = %v, want stopped-early", outcome)
	}
	if state.Round != 3 {
		t.Errorf("Round = %d, want 3", state.Round)
	}
	if len(state.Changes) != 3 {
		t.Errorf("Changes = %v, want three entries", state.Changes)
	}
}

func TestCorrectFailureFallsBackToPrevious(t *testing.T) {
	tooling := &scriptTooling{changes: []int{12}, correctCmd: map[int]string{2: "exit 1"}}
	l := newTestLoop(t, tooling, 4)
	state, outcome := l.Run(writeInitial(t))

	if outcome != FallbackToPrevious {
		t.Fatalf("outcome = %v, want fell-back-to-previous", outcome)
	}
	if want := roundFasta(l, 1); state.Current != want {
		t.Errorf("Current = %q, want round 1 genome %q", state.Current, want)
	}
	if !utils.FileExists(state.Current) {
		t.Errorf("fallback artifact %q does not exist", state.Current)
	}
	if state.Round != 1 {
		t.Errorf("Round = %d, want 1", state.Round)
	}
}

func TestFirstRoundFailureFallsBackToOriginal(t *testing.T) {
	initial := writeInitial(t)
	l := newTestLoop(t, &scriptTooling{correctCmd: map[int]string{1: "exit 1"}}, 3)
	state, outcome := l.Run(initial)

	if outcome != FallbackToOriginal {
		t.Fatalf("outcome = %v, want fell-back-to-original", outcome)
	}
	if state.Current != initial {
		t.Errorf("Current = %q, want the untouched input %q", state.Current, initial)
	}
	if !utils.FileExists(state.Current) {
		t.Error("original assembly missing after fallback")
	}
}

func TestAlignFailureFallsBack(t *testing.T) {
	initial := writeInitial(t)
	l := newTestLoop(t, &scriptTooling{alignFail: map[int]bool{1: true}}, 2)
	state, outcome := l.Run(initial)

	if outcome != FallbackToOriginal {
		t.Fatalf("outcome = %v, want fell-back-to-original", outcome)
	}
	if state.Current != initial {
		t.Errorf("Current = %q, want %q", state.Current, initial)
	}
}

func TestFallbackWalksPastDeletedArtifacts(t *testing.T) {
	initial := writeInitial(t)
	tooling := &scriptTooling{changes: []int{7}}
	l := newTestLoop(t, tooling, 3)
	// Round 2's corrector deletes round 1's genome and then dies, so the
	// newest history entry is gone and the loop must rewind further.
	tooling.correctCmd = map[int]string{2: fmt.Sprintf("rm -f %s && exit 1", roundFasta(l, 1))}

	state, outcome := l.Run(initial)
	if outcome != FallbackToPrevious {
		t.Fatalf("outcome = %v, want fell-back-to-previous", outcome)
	}
	if state.Current != initial {
		t.Errorf("Current = %q, want the original %q", state.Current, initial)
	}
	if !utils.FileExists(state.Current) {
		t.Error("fallback artifact does not exist")
	}
}

func TestDiskGuardSkipsPolishing(t *testing.T) {
	dir := t.TempDir()
	reads := filepath.Join(dir, "reads_R1.fastq")
	if err := os.WriteFile(reads, make([]byte, 2048), 0644); err != nil {
		t.Fatal(err)
	}

	initial := writeInitial(t)
	tooling := &scriptTooling{changes: []int{5}}
	l := newTestLoop(t, tooling, 3)
	l.ForwardReads = reads
	l.ReverseReads = reads
	l.FreeDisk = func(string) (uint64, error) { return 1024, nil }

	state, outcome := l.Run(initial)
	if outcome != Skipped {
		t.Fatalf("outcome = %v, want skipped", outcome)
	}
	if state.Round != 0 || state.Current != initial {
		t.Errorf("state advanced despite skip: round=%d current=%q", state.Round, state.Current)
	}
	if tooling.aligns != 0 {
		t.Errorf("alignment ran %d times despite skip", tooling.aligns)
	}
	if len(l.Advisories) == 0 {
		t.Error("no advisory recorded for the disk skip")
	}
}

func TestDiskGuardOverrideProceeds(t *testing.T) {
	dir := t.TempDir()
	reads := filepath.Join(dir, "reads_R1.fastq")
	if err := os.WriteFile(reads, make([]byte, 2048), 0644); err != nil {
		t.Fatal(err)
	}

	l := newTestLoop(t, &scriptTooling{changes: []int{1}}, 1)
	l.ForwardReads = reads
	l.ReverseReads = reads
	l.AllowLowDisk = true
	l.FreeDisk = func(string) (uint64, error) { return 1024, nil }

	_, outcome := l.Run(writeInitial(t))
	if outcome != StoppedByBudget {
		t.Fatalf("outcome = %v, want stopped-by-budget", outcome)
	}
	found := false
	for _, a := range l.Advisories {
		if strings.Contains(a, "continuing as configured") {
			found = true
		}
	}
	if !found {
		t.Errorf("no low-disk advisory recorded: %v", l.Advisories)
	}
}

func TestCountChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "round.changes")
	if err := os.WriteFile(path, []byte("contig1:10 A T\ncontig1:42 - AT\n\n"), 0644); err != nil {
		t.Fatal(err)
	}
	n, err := CountChanges(path)
	if err != nil {
		t.Fatalf("CountChanges: %v", err)
	}
	if n != 2 {
		t.Errorf("CountChanges = %d, want 2", n)
	}

	empty := filepath.Join(dir, "empty.changes")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	n, err = CountChanges(empty)
	if err != nil || n != 0 {
		t.Errorf("CountChanges(empty) = %d, %v; want 0, nil", n, err)
	}

	if _, err := CountChanges(filepath.Join(dir, "absent.changes")); err == nil {
		t.Error("CountChanges on a missing file returned nil error")
	}
}
