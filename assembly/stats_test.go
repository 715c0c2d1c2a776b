package assembly

import (
	"compress/gzip"
	"math"
	"os"
	"path/filepath"
	"testing"
)

const statsFasta = `>NODE_1_length_10_cov_7.5
GGGGGCCCCC
>NODE_2_length_6_cov_3.1
ATATAT
>NODE_3_length_4_cov_1.0
ACGT
`

func TestReadStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contigs.fasta")
	if err := os.WriteFile(path, []byte(statsFasta), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := ReadStats(path)
	if err != nil {
		t.Fatalf("ReadStats: %v", err)
	}
	if s.Contigs != 3 {
		t.Errorf("Contigs = %d, want 3", s.Contigs)
	}
	if s.TotalBases != 20 {
		t.Errorf("TotalBases = %d, want 20", s.TotalBases)
	}
	if s.Longest != 10 || s.Shortest != 4 {
		t.Errorf("Longest/Shortest = %d/%d, want 10/4", s.Longest, s.Shortest)
	}
	if s.N50 != 10 {
		t.Errorf("N50 = %d, want 10", s.N50)
	}
	if s.N90 != 4 {
		t.Errorf("N90 = %d, want 4", s.N90)
	}
	if math.Abs(s.GCPercent-60.0) > 1e-9 {
		t.Errorf("GCPercent = %f, want 60", s.GCPercent)
	}
	if math.Abs(s.Mean-20.0/3.0) > 1e-9 {
		t.Errorf("Mean = %f, want %f", s.Mean, 20.0/3.0)
	}
	if len(s.Lengths) != 3 || s.Lengths[0] != 10 || s.Lengths[2] != 4 {
		t.Errorf("Lengths = %v, want [10 6 4]", s.Lengths)
	}
}

func TestReadStatsGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contigs.fasta.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gz := gzip.NewWriter(f)
	if _, err := gz.Write([]byte(statsFasta)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	s, err := ReadStats(path)
	if err != nil {
		t.Fatalf("ReadStats: %v", err)
	}
	if s.Contigs != 3 || s.TotalBases != 20 {
		t.Errorf("gzip stats = %d contigs / %d bases, want 3 / 20", s.Contigs, s.TotalBases)
	}
}

func TestReadStatsNoSequences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.fasta")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadStats(path); err == nil {
		t.Error("ReadStats on an empty file returned nil error")
	}
}

func TestReadStatsMissingFile(t *testing.T) {
	if _, err := ReadStats(filepath.Join(t.TempDir(), "absent.fasta")); err == nil {
		t.Error("ReadStats on a missing file returned nil error")
	}
}
