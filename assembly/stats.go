package assembly

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a contig set.
type Stats struct {
	Contigs    int
	TotalBases int
	Longest    int
	Shortest   int
	Mean       float64
	N50        int
	N90        int
	GCPercent  float64
	// Lengths holds every contig length, longest first.
	Lengths []int
}

// ReadStats scans a FASTA file, gzip-compressed or plain, and computes
// contig statistics.
func ReadStats(path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("opening fasta: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return Stats{}, fmt.Errorf("reading gzip fasta %s: %w", path, err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	r := fasta.NewReader(reader, linear.NewSeq("", nil, alphabet.DNA))
	sc := seqio.NewScanner(r)

	var s Stats
	gcBases := 0
	for sc.Next() {
		seq := sc.Seq().(*linear.Seq)
		n := seq.Len()
		s.Contigs++
		s.TotalBases += n
		s.Lengths = append(s.Lengths, n)
		for _, l := range seq.Seq {
			switch l {
			case 'G', 'C', 'g', 'c':
				gcBases++
			}
		}
	}
	if err := sc.Error(); err != nil {
		return Stats{}, fmt.Errorf("scanning fasta %s: %w", path, err)
	}
	if s.Contigs == 0 {
		return Stats{}, fmt.Errorf("no sequences in %s", path)
	}

	sort.Sort(sort.Reverse(sort.IntSlice(s.Lengths)))
	s.Longest = s.Lengths[0]
	s.Shortest = s.Lengths[len(s.Lengths)-1]
	s.N50, s.N90 = nStats(s.Lengths, s.TotalBases)
	s.GCPercent = float64(gcBases) / float64(s.TotalBases) * 100

	means := make([]float64, len(s.Lengths))
	for i, l := range s.Lengths {
		means[i] = float64(l)
	}
	s.Mean = stat.Mean(means, nil)
	return s, nil
}

// nStats walks the descending lengths once, picking the contig whose
// cumulative span first reaches 50% and 90% of the assembly.
func nStats(sorted []int, total int) (n50, n90 int) {
	cum := 0
	for _, l := range sorted {
		cum += l
		if n50 == 0 && cum*2 >= total {
			n50 = l
		}
		if cum*10 >= total*9 {
			n90 = l
			return n50, n90
		}
	}
	return n50, n90
}
