package tools

import "testing"

func TestExtractVersion(t *testing.T) {
	cases := []struct {
		banner string
		want   Version
	}{
		{"fastp 0.23.2", Version{0, 23, 2}},
		{"SPAdes genome assembler v3.15.5", Version{3, 15, 5}},
		{"QUAST v5.2.0", Version{5, 2, 0}},
		{"Pilon version 1.24 Thu Jan 28 13:00:45 2021 -0500", Version{1, 24, 0}},
		{"prokka 1.14.6", Version{1, 14, 6}},
		{"no digits in here", Version{}},
		{"", Version{}},
	}
	for _, c := range cases {
		if got := ExtractVersion(c.banner); got != c.want {
			t.Errorf("ExtractVersion(%q) = %v, want %v", c.banner, got, c.want)
		}
	}
}

func TestLabeledVersion(t *testing.T) {
	bwaUsage := `
Program: bwa (alignment via Burrows-Wheeler transformation)
Version: 0.7.17-r1188
Contact: Heng Li <lh3@sanger.ac.uk>

Usage:   bwa <command> [options]
`
	if got := LabeledVersion(bwaUsage); got != (Version{0, 7, 17}) {
		t.Errorf("LabeledVersion = %v, want 0.7.17", got)
	}
	if got := LabeledVersion("Program: bwa 0.7.17"); !got.IsZero() {
		t.Errorf("LabeledVersion without a Version label = %v, want zero", got)
	}
}

func TestFirstLineVersion(t *testing.T) {
	banner := "samtools 1.16.1\nUsing htslib 1.16\nCopyright (C) 2022 Genome Research Ltd.\n"
	if got := FirstLineVersion(banner); got != (Version{1, 16, 1}) {
		t.Errorf("FirstLineVersion = %v, want 1.16.1", got)
	}
	if got := FirstLineVersion("samtools\nUsing htslib 1.16\n"); !got.IsZero() {
		t.Errorf("FirstLineVersion picked a later line: %v", got)
	}
}

func TestVersionCompare(t *testing.T) {
	cases := []struct {
		a, b Version
		want int
	}{
		{Version{1, 2, 3}, Version{1, 2, 3}, 0},
		{Version{0, 23, 2}, Version{0, 20, 0}, 1},
		{Version{3, 14, 0}, Version{3, 15, 5}, -1},
		{Version{1, 9, 0}, Version{1, 16, 1}, -1},
		{Version{}, Version{0, 0, 1}, -1},
	}
	for _, c := range cases {
		if got := c.a.Compare(c.b); got != c.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestVersionString(t *testing.T) {
	if got := (Version{0, 7, 17}).String(); got != "0.7.17" {
		t.Errorf("String = %q, want 0.7.17", got)
	}
	if got := (Version{}).String(); got != "0.0.0" {
		t.Errorf("zero String = %q, want 0.0.0", got)
	}
}
