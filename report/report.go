package report

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/samber/lo"

	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/assembly"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/stage"
	"github.com/RuimiaoLi/procaryotic-genome-assembly-pipeline/tools"
)

// Data is everything the final report shows, assembled by the pipeline
// driver once the run is over. Rendering is pure substitution; all decisions
// about what happened were made upstream.
type Data struct {
	RunID      string
	BaseName   string
	StartedAt  time.Time
	FinishedAt time.Time
	OutputDir  string

	ForwardReads string
	ReverseReads string
	Threads      int
	MemoryGB     int

	Tools  []tools.GateResult
	Stages []stage.Result

	PolishOutcome string
	PolishRounds  int
	ChangeCounts  []int

	PreStats  *assembly.Stats
	PostStats *assembly.Stats
	Quast     []QuastMetrics

	FinalAssembly  string
	ContigsRenamed int
	Annotation     string

	Advisories []string
}

const summaryTemplate = `====================================================================
  Prokaryotic genome assembly report: {{.BaseName}}
====================================================================

Run ID:      {{.RunID}}
Started:     {{.StartedAt.Format "2006-01-02 15:04:05"}}
Finished:    {{.FinishedAt.Format "2006-01-02 15:04:05"}}
Elapsed:     {{dur (.FinishedAt.Sub .StartedAt)}}
Output dir:  {{.OutputDir}}

Reads:
  forward:   {{.ForwardReads}}
  reverse:   {{.ReverseReads}}
Budget:      {{.Threads}} threads, {{.MemoryGB}} GB memory

--------------------------------------------------------------------
Tools
--------------------------------------------------------------------
{{range .Tools}}{{printf "  %-12s" .Tool}}{{if .Available}}{{.Version}}{{if not .MeetsMinimum}}  (below tested minimum){{end}}{{else}}not found{{end}}
{{end}}
--------------------------------------------------------------------
Stages
--------------------------------------------------------------------
{{range .Stages}}{{printf "  %-18s %-18s %s" .Stage .Status (dur .Duration)}}
{{end}}
--------------------------------------------------------------------
Polishing: {{.PolishOutcome}}
--------------------------------------------------------------------
{{if .ChangeCounts}}Rounds run:            {{.PolishRounds}}
Corrections per round: {{joinInts .ChangeCounts}}
{{else}}No polishing rounds were run.
{{end}}
{{if .PreStats}}--------------------------------------------------------------------
Assembly statistics (pre-polish)
--------------------------------------------------------------------
{{template "stats" .PreStats}}
{{end}}{{if .PostStats}}--------------------------------------------------------------------
Assembly statistics (final)
--------------------------------------------------------------------
{{template "stats" .PostStats}}
{{end}}{{if .Quast}}--------------------------------------------------------------------
Quast evaluation
--------------------------------------------------------------------
{{range .Quast}}{{printf "  %-28s" .Assembly}}N50 {{.N50}}  contigs {{.Contigs}}  GC {{printf "%.2f" .GC}}%
{{end}}
{{end}}--------------------------------------------------------------------
Results
--------------------------------------------------------------------
Final assembly: {{.FinalAssembly}}{{if .ContigsRenamed}} ({{.ContigsRenamed}} contigs){{end}}
{{if .Annotation}}Annotation:     {{.Annotation}}
{{end}}
Advisories:
{{range .Advisories}}  - {{.}}
{{else}}  none
{{end}}`

const statsTemplate = `{{define "stats"}}  contigs:        {{.Contigs}}
  total length:   {{.TotalBases}} bp
  longest contig: {{.Longest}} bp
  N50:            {{.N50}} bp
  N90:            {{.N90}} bp
  mean length:    {{printf "%.0f" .Mean}} bp
  GC content:     {{printf "%.2f" .GCPercent}} %{{end}}`

var summaryFuncs = template.FuncMap{
	"dur": func(d time.Duration) string {
		if d <= 0 {
			return "-"
		}
		return d.Round(time.Millisecond).String()
	},
	"joinInts": func(ns []int) string {
		return strings.Join(lo.Map(ns, func(n int, _ int) string { return strconv.Itoa(n) }), ", ")
	},
}

var summaryTmpl = template.Must(
	template.Must(template.New("summary").Funcs(summaryFuncs).Parse(summaryTemplate)).Parse(statsTemplate))

// RenderSummary produces the plain-text report.
func RenderSummary(data Data) (string, error) {
	var sb strings.Builder
	if err := summaryTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering summary: %w", err)
	}
	return sb.String(), nil
}

// WriteSummary renders the report into a file.
func WriteSummary(data Data, path string) error {
	text, err := RenderSummary(data)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing summary %s: %w", path, err)
	}
	return nil
}
