package assembly

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRenameContigs(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "polished.fasta")
	out := filepath.Join(dir, "renamed.fasta")
	content := `>NODE_1_length_8_cov_11.2_pilon
ACGTACGT
ACGT
>NODE_2_length_4_cov_2.0_pilon
TTTT
`
	if err := os.WriteFile(in, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := RenameContigs(in, out, "ecoli")
	if err != nil {
		t.Fatalf("RenameContigs: %v", err)
	}
	if n != 2 {
		t.Errorf("renamed %d contigs, want 2", n)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := `>ecoli_contig_1
ACGTACGT
ACGT
>ecoli_contig_2
TTTT
`
	if string(got) != want {
		t.Errorf("renamed fasta:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenameContigsNumbersHeadersOnly(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.fasta")
	out := filepath.Join(dir, "out.fasta")
	// Multi-line sequences must not advance the contig counter.
	content := ">a\nAC\nGT\nAC\n>b\nGG\n>c\nTT\n"
	if err := os.WriteFile(in, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := RenameContigs(in, out, "s")
	if err != nil {
		t.Fatalf("RenameContigs: %v", err)
	}
	if n != 3 {
		t.Errorf("renamed %d contigs, want 3", n)
	}
	got, _ := os.ReadFile(out)
	want := ">s_contig_1\nAC\nGT\nAC\n>s_contig_2\nGG\n>s_contig_3\nTT\n"
	if string(got) != want {
		t.Errorf("renamed fasta:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenameContigsMissingInput(t *testing.T) {
	dir := t.TempDir()
	if _, err := RenameContigs(filepath.Join(dir, "absent.fasta"), filepath.Join(dir, "out.fasta"), "s"); err == nil {
		t.Error("RenameContigs on a missing input returned nil error")
	}
}
