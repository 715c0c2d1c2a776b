package polish

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/stage"
)

// Size gates for the per-round artifacts. Both are soft signals.
const (
	AlignMinBytes   = 1 << 20
	CorrectMinBytes = 10 << 10
)

// Tooling builds the stage commands for one polishing round. The production
// implementation wraps bwa, samtools and pilon; tests substitute scripted
// commands.
type Tooling interface {
	// Index prepares the current genome for alignment.
	Index(genome string) stage.Spec
	// Align maps the read pair against the genome into a sorted, indexed BAM.
	Align(genome, bam string) stage.Spec
	// Correct runs the corrector, producing prefix.fasta and prefix.changes.
	Correct(genome, bam, prefix string) stage.Spec
}

// BwaPilonTooling is the production toolchain for short-read polishing.
type BwaPilonTooling struct {
	ForwardReads string
	ReverseReads string
	Threads      int
	MemoryGB     int
}

func (t BwaPilonTooling) Index(genome string) stage.Spec {
	return stage.Spec{
		Name:   "polish-index",
		Cmd:    fmt.Sprintf("bwa index %s && samtools faidx %s", genome, genome),
		Inputs: []string{genome},
		Output: genome + ".bwt",
	}
}

func (t BwaPilonTooling) Align(genome, bam string) stage.Spec {
	// pipefail so a bwa crash is not masked by samtools sorting an empty
	// stream to a valid BAM.
	cmd := fmt.Sprintf("set -o pipefail; bwa mem -t %d %s %s %s | samtools sort -@ %d -o %s - && samtools index %s",
		t.Threads, genome, t.ForwardReads, t.ReverseReads, t.Threads, bam, bam)
	return stage.Spec{
		Name:     "polish-align",
		Cmd:      cmd,
		Inputs:   []string{genome, t.ForwardReads, t.ReverseReads},
		Output:   bam,
		MinBytes: AlignMinBytes,
	}
}

func (t BwaPilonTooling) Correct(genome, bam, prefix string) stage.Spec {
	outDir := filepath.Dir(prefix)
	base := filepath.Base(prefix)
	cmd := fmt.Sprintf("pilon -Xmx%dG --genome %s --frags %s --output %s --outdir %s --changes --fix bases",
		t.MemoryGB, genome, bam, base, outDir)
	return stage.Spec{
		Name:     "polish-correct",
		Cmd:      cmd,
		Inputs:   []string{genome, bam},
		Output:   prefix + ".fasta",
		MinBytes: CorrectMinBytes,
	}
}

// CountChanges counts the entries in a correction change-log, one edit per
// non-blank line. Indel entries can carry whole inserted sequences, hence
// the large scanner buffer.
func CountChanges(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening change log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	count := 0
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading change log: %w", err)
	}
	return count, nil
}
