package config

import (
	"fmt"
	"os"
)

// ValidationError points at a single bad field so the CLI can report every
// problem in one pass instead of failing on the first.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration after defaults have been applied. Read
// files are stat-ed here so a bad path fails before any tool runs.
func (c RunConfig) Validate() []ValidationError {
	var errs []ValidationError

	if c.ForwardReads == "" {
		errs = append(errs, ValidationError{"forward_reads", "forward read file is required"})
	} else if !statFile(c.ForwardReads) {
		errs = append(errs, ValidationError{"forward_reads", fmt.Sprintf("file %s does not exist", c.ForwardReads)})
	}
	if c.ReverseReads == "" {
		errs = append(errs, ValidationError{"reverse_reads", "reverse read file is required"})
	} else if !statFile(c.ReverseReads) {
		errs = append(errs, ValidationError{"reverse_reads", fmt.Sprintf("file %s does not exist", c.ReverseReads)})
	}
	if c.ForwardReads != "" && c.ForwardReads == c.ReverseReads {
		errs = append(errs, ValidationError{"reverse_reads", "forward and reverse reads point at the same file"})
	}
	if c.OutputDir == "" {
		errs = append(errs, ValidationError{"output_dir", "output directory is required"})
	}
	if c.Threads < 1 {
		errs = append(errs, ValidationError{"threads", "must be at least 1"})
	}
	if c.MemoryGB < 1 {
		errs = append(errs, ValidationError{"memory_gb", "must be at least 1"})
	}
	if c.MinQuality < 1 {
		errs = append(errs, ValidationError{"min_quality", "must be at least 1"})
	}
	if c.MinLength < 1 {
		errs = append(errs, ValidationError{"min_length", "must be at least 1"})
	}
	if c.PolishRounds < 1 {
		errs = append(errs, ValidationError{"polish_rounds", "must be at least 1"})
	}
	return errs
}

func statFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
