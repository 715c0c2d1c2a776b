package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/config"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/stage"
)

// Output gates per stage. Sub-minimum artifacts warn but never abort,
// legitimate tiny genomes exist.
const (
	trimMinBytes     = 1 << 20
	assemblyMinBytes = 10 << 10
	evalMinBytes     = 1 << 10
	annotateMinBytes = 10 << 10
)

// trimSpec wraps fastp over the raw read pair. Returns the spec and the two
// trimmed read paths.
func trimSpec(cfg config.RunConfig, dir string) (stage.Spec, string, string) {
	r1 := filepath.Join(dir, cfg.BaseName+"_trimmed_R1.fastq.gz")
	r2 := filepath.Join(dir, cfg.BaseName+"_trimmed_R2.fastq.gz")
	// fastp refuses more than 16 worker threads.
	cmd := fmt.Sprintf("fastp -i %s -I %s -o %s -O %s -q %d -l %d -w %d -j %s -h %s",
		cfg.ForwardReads, cfg.ReverseReads, r1, r2,
		cfg.MinQuality, cfg.MinLength, min(cfg.Threads, 16),
		filepath.Join(dir, "fastp.json"), filepath.Join(dir, "fastp.html"))
	return stage.Spec{
		Name:     "trim",
		Cmd:      cmd,
		Inputs:   []string{cfg.ForwardReads, cfg.ReverseReads},
		Output:   r1,
		MinBytes: trimMinBytes,
	}, r1, r2
}

// assembleSpec wraps spades. The low-memory variant trades the error
// corrector and the larger k-mers for a much smaller footprint.
func assembleSpec(cfg config.RunConfig, r1, r2, dir string) (stage.Spec, string) {
	contigs := filepath.Join(dir, "contigs.fasta")
	mode := "--careful"
	if cfg.LowMemory {
		mode = "--only-assembler -k 21,33,55"
	}
	cmd := fmt.Sprintf("spades.py -1 %s -2 %s -o %s -t %d -m %d %s",
		r1, r2, dir, cfg.Threads, cfg.MemoryGB, mode)
	return stage.Spec{
		Name:     "assembly",
		Cmd:      cmd,
		Inputs:   []string{r1, r2},
		Output:   contigs,
		MinBytes: assemblyMinBytes,
	}, contigs
}

// evalSpec wraps quast over one or more assemblies.
func evalSpec(name string, threads int, dir string, labels []string, assemblies []string) (stage.Spec, string) {
	reportTSV := filepath.Join(dir, "report.tsv")
	cmd := fmt.Sprintf("quast.py -o %s -t %d --labels %s %s",
		dir, threads, strings.Join(labels, ","), strings.Join(assemblies, " "))
	return stage.Spec{
		Name:     name,
		Cmd:      cmd,
		Inputs:   assemblies,
		Output:   reportTSV,
		MinBytes: evalMinBytes,
	}, reportTSV
}

// annotateSpec wraps prokka over the final assembly.
func annotateSpec(cfg config.RunConfig, genome, dir string) (stage.Spec, string) {
	gff := filepath.Join(dir, cfg.BaseName+".gff")
	cmd := fmt.Sprintf("prokka --outdir %s --prefix %s --cpus %d --force %s",
		dir, cfg.BaseName, cfg.Threads, genome)
	return stage.Spec{
		Name:     "annotate",
		Cmd:      cmd,
		Inputs:   []string{genome},
		Output:   gff,
		MinBytes: annotateMinBytes,
	}, gff
}
