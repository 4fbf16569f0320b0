package extract

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// MissingError lists every dependency or file a run cannot start without.
type MissingError struct {
	Items []string
}

func (e *MissingError) Error() string {
	return "missing dependencies or files: " + strings.Join(e.Items, ", ")
}

// Preflight checks that both tools resolve and that the script, the window
// BED and any extra files exist. Every missing item is reported at once.
func Preflight(cfg Config, files map[string]string) error {
	var missing []string
	for _, tool := range []string{cfg.Bedtools, cfg.Rscript} {
		if _, err := lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}

	missing = append(missing, missingFiles(map[string]string{
		"R script":   cfg.Script,
		"Window BED": cfg.Windows,
	})...)
	missing = append(missing, missingFiles(files)...)

	if len(missing) > 0 {
		return &MissingError{Items: missing}
	}
	return nil
}

// CheckFiles reports every file in files (description to path) that does
// not exist.
func CheckFiles(files map[string]string) error {
	if missing := missingFiles(files); len(missing) > 0 {
		return &MissingError{Items: missing}
	}
	return nil
}

func missingFiles(files map[string]string) []string {
	var missing []string
	for _, what := range sortedKeys(files) {
		if _, err := os.Stat(files[what]); err != nil {
			missing = append(missing, fmt.Sprintf("%s (%s)", what, files[what]))
		}
	}
	return missing
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
