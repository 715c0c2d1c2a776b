package assembly

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// RenameContigs rewrites a FASTA with uniform sequence identifiers of the
// form <base>_contig_<n>, numbering headers from 1 in input order. Sequence
// lines pass through untouched. Returns the number of contigs renamed.
func RenameContigs(inFasta string, outFasta string, base string) (int, error) {
	fmt.Println("Renaming contigs in fasta file")
	f, err := os.Open(inFasta)
	if err != nil {
		return 0, fmt.Errorf("opening fasta: %w", err)
	}
	defer f.Close()

	r, rErr := os.Create(outFasta)
	if rErr != nil {
		return 0, fmt.Errorf("creating renamed fasta: %w", rErr)
	}
	defer r.Close()

	w := bufio.NewWriter(r)
	lineScanner := bufio.NewScanner(f)
	// Assemblers usually wrap sequence lines, but unwrapped single-line
	// contigs exist and can run to megabytes.
	lineScanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	count := 0
	for lineScanner.Scan() {
		line := lineScanner.Text()
		if strings.HasPrefix(line, ">") {
			count++
			line = fmt.Sprintf(">%s_contig_%d", base, count)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return count, fmt.Errorf("writing renamed fasta: %w", err)
		}
	}
	if err := lineScanner.Err(); err != nil {
		return count, fmt.Errorf("reading fasta: %w", err)
	}
	if err := w.Flush(); err != nil {
		return count, fmt.Errorf("writing renamed fasta: %w", err)
	}
	return count, nil
}
