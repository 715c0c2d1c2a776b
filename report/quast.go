package report

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// QuastMetrics carries the headline numbers quast reports for one evaluated
// assembly.
type QuastMetrics struct {
	Assembly    string
	Contigs     int
	TotalLength int
	Largest     int
	N50         int
	GC          float64
}

// ReadQuastReport parses quast's report.tsv. The file is transposed: the
// first column lists metric names and every further column is one assembly,
// so each extra column yields one QuastMetrics entry.
func ReadQuastReport(path string) ([]QuastMetrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening quast report: %w", err)
	}
	defer f.Close()

	// Numbers stay as strings here; type detection would reformat integer
	// cells through float64 on the way back out.
	df := dataframe.ReadCSV(f,
		dataframe.WithDelimiter('\t'),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String))
	if df.Error() != nil {
		return nil, fmt.Errorf("parsing quast report %s: %w", path, df.Error())
	}
	names := df.Names()
	if len(names) < 2 {
		return nil, fmt.Errorf("quast report %s has no assembly columns", path)
	}

	metrics := df.Col(names[0]).Records()
	var out []QuastMetrics
	for _, col := range names[1:] {
		records := df.Col(col).Records()
		m := QuastMetrics{Assembly: col}
		for i, name := range metrics {
			if i >= len(records) {
				break
			}
			v := strings.TrimSpace(records[i])
			switch name {
			case "# contigs":
				m.Contigs = parseInt(v)
			case "Total length":
				m.TotalLength = parseInt(v)
			case "Largest contig":
				m.Largest = parseInt(v)
			case "N50":
				m.N50 = parseInt(v)
			case "GC (%)":
				m.GC = parseFloat(v)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
