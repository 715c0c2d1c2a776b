package utils

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/exp/constraints"
)

func RunBashCmdVerbose(cmdStr string) error {
	cmd := exec.Command("bash", "-c", cmdStr)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		return err
	}
	return nil
}

func CopyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	_, err = io.Copy(out, in)
	if err != nil {
		out.Close()
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}

// HumanBytes renders a byte count the way the run log and report show sizes.
func HumanBytes[T constraints.Integer](n T) string {
	const unit = 1024
	v := float64(n)
	if v < unit {
		return fmt.Sprintf("%d B", int64(n))
	}
	div, exp := float64(unit), 0
	for v/div >= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", v/div, "KMGTPE"[exp])
}

// CreateResultsDir prepares the run's output directory. An existing non-empty
// directory is refused unless force is set, so two runs never interleave in
// the same tree.
func CreateResultsDir(outputDir string, force bool) error {
	info, err := os.Stat(outputDir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("output path %s exists and is not a directory", outputDir)
		}
		entries, rErr := os.ReadDir(outputDir)
		if rErr != nil {
			return fmt.Errorf("reading output directory %s: %w", outputDir, rErr)
		}
		if len(entries) > 0 && !force {
			return fmt.Errorf("output directory %s is not empty (use --force to overwrite)", outputDir)
		}
		if len(entries) > 0 && force {
			fmt.Printf("Output directory %s is not empty, overwriting ...\n", outputDir)
			if err := os.RemoveAll(outputDir); err != nil {
				return fmt.Errorf("clearing output directory %s: %w", outputDir, err)
			}
		}
	}

	bErr := os.MkdirAll(outputDir, 0755)
	if bErr != nil {
		return fmt.Errorf("creating results directory %s: %w", outputDir, bErr)
	}
	fmt.Printf("Created results directory at %s ..\n\n", outputDir)
	return nil
}

// SubDir creates (if needed) and returns a stage directory under the run root.
func SubDir(outputDir string, name string) (string, error) {
	dir := filepath.Join(outputDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return dir, nil
}
