package config

import (
	"path/filepath"
	"strings"
)

// RunConfig is the full parameter set for one pipeline execution. It is built
// once at startup (file and/or flags), adjusted at most once by the resource
// probe, and treated as read-only for the rest of the run.
type RunConfig struct {
	ForwardReads string `yaml:"forward_reads"`
	ReverseReads string `yaml:"reverse_reads"`
	OutputDir    string `yaml:"output_dir"`
	BaseName     string `yaml:"base_name"`

	Threads  int `yaml:"threads"`
	MemoryGB int `yaml:"memory_gb"`

	// Read trimming thresholds handed to fastp.
	MinQuality int `yaml:"min_quality"`
	MinLength  int `yaml:"min_length"`

	PolishRounds int `yaml:"polish_rounds"`

	LowMemory     bool `yaml:"low_memory"`
	SkipPolish    bool `yaml:"skip_polish"`
	Force         bool `yaml:"force"`
	LowDiskPolish bool `yaml:"allow_low_disk_polish"`
}

const (
	DefaultThreads      = 8
	DefaultMemoryGB     = 16
	DefaultMinQuality   = 20
	DefaultMinLength    = 50
	DefaultPolishRounds = 4
)

// ApplyDefaults fills unset numeric fields and derives the sample base name
// from the forward read file when none was given. Negative values are left
// alone for Validate to reject.
func ApplyDefaults(cfg *RunConfig) {
	if cfg.Threads == 0 {
		cfg.Threads = DefaultThreads
	}
	if cfg.MemoryGB == 0 {
		cfg.MemoryGB = DefaultMemoryGB
	}
	if cfg.MinQuality == 0 {
		cfg.MinQuality = DefaultMinQuality
	}
	if cfg.MinLength == 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.PolishRounds == 0 {
		cfg.PolishRounds = DefaultPolishRounds
	}
	if cfg.BaseName == "" && cfg.ForwardReads != "" {
		cfg.BaseName = deriveBaseName(cfg.ForwardReads)
	}
}

// deriveBaseName strips fastq extensions and the usual forward-read suffixes,
// so sample_R1.fastq.gz becomes sample.
func deriveBaseName(forward string) string {
	name := filepath.Base(forward)
	for _, ext := range []string{".gz", ".fastq", ".fq"} {
		name = strings.TrimSuffix(name, ext)
	}
	for _, suffix := range []string{"_R1", "_r1", "_1", ".R1", ".1"} {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != name {
			name = trimmed
			break
		}
	}
	if name == "" {
		return "assembly"
	}
	return name
}
