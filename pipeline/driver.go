package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/assembly"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/config"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/polish"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/report"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/resources"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/stage"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/tools"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/utils"
)

// State aggregates everything one run produced. It is filled in stage by
// stage and read-only once Run returns; the report is rendered from it.
type State struct {
	RunID      string
	Config     config.RunConfig
	StartedAt  time.Time
	FinishedAt time.Time

	Stages        []stage.Result
	Genome        polish.GenomeState
	PolishOutcome polish.Outcome
	Tools         []tools.GateResult
	Advisories    []string

	PreStats       *assembly.Stats
	PostStats      *assembly.Stats
	Quast          []report.QuastMetrics
	FinalAssembly  string
	ContigsRenamed int
	Annotation     string
	SummaryFile    string
	ChartsFile     string
}

// Driver sequences the stages in fixed order: trim, assemble, evaluate,
// polish, evaluate again, rename, annotate, report. Each stage's declared
// output is the next stage's declared input; a stage whose input is missing
// is never invoked.
type Driver struct {
	Config config.RunConfig
	Logger *slog.Logger
	Runner *stage.Runner
	Gate   []tools.GateResult

	// Tooling overrides the bwa/samtools/pilon toolchain, for tests.
	Tooling polish.Tooling
	// FreeDisk overrides the filesystem probe behind the polish disk guard.
	FreeDisk func(string) (uint64, error)
}

// New builds a driver over an existing output directory. The gate results
// decide which optional stages run at all.
func New(cfg config.RunConfig, logger *slog.Logger, gate []tools.GateResult) *Driver {
	return &Driver{Config: cfg, Logger: logger, Runner: stage.NewRunner(logger), Gate: gate}
}

// Run executes the whole pipeline. The returned State is valid even on
// error and describes how far the run got.
func (d *Driver) Run() (*State, error) {
	cfg, probeAdvisories := resources.Adjust(d.Config, resources.Probe())

	state := &State{
		RunID:         uuid.NewString(),
		Config:        cfg,
		StartedAt:     time.Now(),
		Tools:         d.Gate,
		PolishOutcome: polish.Skipped,
	}
	d.Logger.Info("pipeline", "STATUS", "STARTED", "RUN_ID", state.RunID, "SAMPLE", cfg.BaseName)
	fmt.Printf("Starting assembly pipeline for %s (run %s)\n\n", cfg.BaseName, state.RunID)

	for _, a := range probeAdvisories {
		d.advise(state, a)
	}
	for _, a := range tools.Advisories(d.Gate) {
		d.advise(state, a)
	}

	// ------------------------------- Trim ------------------------------- //
	fmt.Println("==================== Trimming reads ====================")
	trimmedDir, err := utils.SubDir(cfg.OutputDir, "trimmed")
	if err != nil {
		return d.failErr(state, "trim", err)
	}
	trim, r1, r2 := trimSpec(cfg, trimmedDir)
	if res := d.runStage(state, trim); res.Status.Fatal() {
		return d.fail(state, res)
	}

	// ----------------------------- Assemble ----------------------------- //
	fmt.Println("==================== Assembling genome ====================")
	assemblyDir, err := utils.SubDir(cfg.OutputDir, "assembly")
	if err != nil {
		return d.failErr(state, "assembly", err)
	}
	asm, contigs := assembleSpec(cfg, r1, r2, assemblyDir)
	if res := d.runStage(state, asm); res.Status.Fatal() {
		return d.fail(state, res)
	}

	if stats, err := assembly.ReadStats(contigs); err != nil {
		d.advise(state, fmt.Sprintf("could not read assembly statistics: %v", err))
	} else {
		state.PreStats = &stats
	}

	// ------------------------- Evaluate, pre-polish ---------------------- //
	preTSV := ""
	if d.toolAvailable("quast.py") {
		fmt.Println("==================== Evaluating assembly ====================")
		qdir, err := utils.SubDir(cfg.OutputDir, "quast_prepolish")
		if err != nil {
			return d.failErr(state, "evaluate-prepolish", err)
		}
		eval, tsv := evalSpec("evaluate-prepolish", cfg.Threads, qdir,
			[]string{cfg.BaseName + "_raw"}, []string{contigs})
		if res := d.runStage(state, eval); res.Status.Fatal() {
			return d.fail(state, res)
		}
		preTSV = tsv
	} else {
		d.advise(state, "quast.py not found, skipping assembly evaluation")
	}

	// ------------------------------ Polish ------------------------------- //
	switch {
	case cfg.SkipPolish:
		state.Genome = polish.NewState(contigs)
		d.advise(state, "polishing disabled by configuration")
	case !tools.PolishReady(d.Gate):
		state.Genome = polish.NewState(contigs)
		d.advise(state, "bwa, samtools and pilon are not all available, skipping polishing")
	default:
		fmt.Println("==================== Polishing assembly ====================")
		tooling := d.Tooling
		if tooling == nil {
			tooling = polish.BwaPilonTooling{ForwardReads: r1, ReverseReads: r2, Threads: cfg.Threads, MemoryGB: cfg.MemoryGB}
		}
		loop := &polish.Loop{
			Runner:       d.Runner,
			Tooling:      tooling,
			Logger:       d.Logger,
			WorkDir:      filepath.Join(cfg.OutputDir, "polish"),
			BaseName:     cfg.BaseName,
			Rounds:       cfg.PolishRounds,
			ForwardReads: r1,
			ReverseReads: r2,
			AllowLowDisk: cfg.LowDiskPolish,
			FreeDisk:     d.FreeDisk,
		}
		state.Genome, state.PolishOutcome = loop.Run(contigs)
		state.Advisories = append(state.Advisories, loop.Advisories...)
	}

	// ------------------------ Evaluate, comparative ----------------------- //
	if d.toolAvailable("quast.py") && state.Genome.Round >= 1 {
		fmt.Println("==================== Evaluating polished assembly ====================")
		qdir, err := utils.SubDir(cfg.OutputDir, "quast_final")
		if err != nil {
			return d.failErr(state, "evaluate-final", err)
		}
		eval, tsv := evalSpec("evaluate-final", cfg.Threads, qdir,
			[]string{cfg.BaseName + "_raw", cfg.BaseName + "_polished"},
			[]string{contigs, state.Genome.Current})
		if res := d.runStage(state, eval); res.Status.Fatal() {
			return d.fail(state, res)
		}
		if qs, err := report.ReadQuastReport(tsv); err != nil {
			d.advise(state, fmt.Sprintf("could not parse quast report: %v", err))
		} else {
			state.Quast = qs
		}
	}
	if state.Quast == nil && preTSV != "" {
		if qs, err := report.ReadQuastReport(preTSV); err != nil {
			d.advise(state, fmt.Sprintf("could not parse quast report: %v", err))
		} else {
			state.Quast = qs
		}
	}

	// ------------------------------ Rename ------------------------------- //
	fmt.Println("==================== Finalizing assembly ====================")
	finalFasta := filepath.Join(cfg.OutputDir, cfg.BaseName+"_assembly.fasta")
	renamed, err := assembly.RenameContigs(state.Genome.Current, finalFasta, cfg.BaseName)
	if err != nil {
		return d.failErr(state, "rename", err)
	}
	state.FinalAssembly = finalFasta
	state.ContigsRenamed = renamed
	d.Logger.Info("rename", "STATUS", "FINISHED", "CONTIGS", renamed, "OUTPUT", finalFasta)

	if stats, err := assembly.ReadStats(finalFasta); err != nil {
		d.advise(state, fmt.Sprintf("could not read final assembly statistics: %v", err))
	} else {
		state.PostStats = &stats
	}

	// ----------------------------- Annotate ------------------------------ //
	if d.toolAvailable("prokka") {
		fmt.Println("==================== Annotating genome ====================")
		adir, err := utils.SubDir(cfg.OutputDir, "annotation")
		if err != nil {
			return d.failErr(state, "annotate", err)
		}
		ann, gff := annotateSpec(cfg, finalFasta, adir)
		if res := d.runStage(state, ann); res.Status.Fatal() {
			return d.fail(state, res)
		}
		state.Annotation = gff
	} else {
		d.advise(state, "prokka not found, skipping annotation")
	}

	// ------------------------------ Report ------------------------------- //
	state.FinishedAt = time.Now()
	chartsFile := filepath.Join(cfg.OutputDir, cfg.BaseName+"_charts.html")
	if err := report.WriteCharts(buildReportData(state), chartsFile); err != nil {
		d.advise(state, fmt.Sprintf("could not write charts: %v", err))
	} else {
		state.ChartsFile = chartsFile
	}
	summaryFile := filepath.Join(cfg.OutputDir, cfg.BaseName+"_report.txt")
	if err := report.WriteSummary(buildReportData(state), summaryFile); err != nil {
		return d.failErr(state, "report", err)
	}
	state.SummaryFile = summaryFile

	elapsed := state.FinishedAt.Sub(state.StartedAt).Round(time.Second)
	d.Logger.Info("pipeline", "STATUS", "FINISHED", "RUN_ID", state.RunID,
		"POLISHING", state.PolishOutcome.String(), "ASSEMBLY", state.FinalAssembly, "ELAPSED", elapsed.String())
	fmt.Printf("\nPipeline finished in %s.\n", elapsed)
	fmt.Printf("Final assembly: %s\n", state.FinalAssembly)
	fmt.Printf("Report:         %s\n\n", summaryFile)
	return state, nil
}

// runStage executes one stage, records its result and keeps soft output
// signals as advisories.
func (d *Driver) runStage(state *State, spec stage.Spec) stage.Result {
	res := d.Runner.Run(spec)
	state.Stages = append(state.Stages, res)
	if res.Status.Advisory() {
		d.advise(state, fmt.Sprintf("%s produced a suspicious artifact: %s (%s)", res.Stage, res.Status, utils.HumanBytes(res.Bytes)))
	}
	return res
}

func (d *Driver) advise(state *State, msg string) {
	state.Advisories = append(state.Advisories, msg)
	d.Logger.Warn(msg)
	fmt.Println(msg)
}

func (d *Driver) toolAvailable(name string) bool {
	for _, r := range d.Gate {
		if r.Tool == name {
			return r.Available
		}
	}
	return false
}

func (d *Driver) fail(state *State, res stage.Result) (*State, error) {
	state.FinishedAt = time.Now()
	d.Logger.Error("pipeline", "STATUS", "FAILED", "STAGE", res.Stage, "ERROR", fmt.Sprint(res.Err))
	return state, res.Err
}

func (d *Driver) failErr(state *State, stageName string, err error) (*State, error) {
	state.FinishedAt = time.Now()
	d.Logger.Error("pipeline", "STATUS", "FAILED", "STAGE", stageName, "ERROR", err.Error())
	return state, fmt.Errorf("%s: %w", stageName, err)
}

func buildReportData(state *State) report.Data {
	return report.Data{
		RunID:          state.RunID,
		BaseName:       state.Config.BaseName,
		StartedAt:      state.StartedAt,
		FinishedAt:     state.FinishedAt,
		OutputDir:      state.Config.OutputDir,
		ForwardReads:   state.Config.ForwardReads,
		ReverseReads:   state.Config.ReverseReads,
		Threads:        state.Config.Threads,
		MemoryGB:       state.Config.MemoryGB,
		Tools:          state.Tools,
		Stages:         state.Stages,
		PolishOutcome:  state.PolishOutcome.String(),
		PolishRounds:   state.Genome.Round,
		ChangeCounts:   state.Genome.Changes,
		PreStats:       state.PreStats,
		PostStats:      state.PostStats,
		Quast:          state.Quast,
		FinalAssembly:  state.FinalAssembly,
		ContigsRenamed: state.ContigsRenamed,
		Annotation:     state.Annotation,
		Advisories:     state.Advisories,
	}
}
