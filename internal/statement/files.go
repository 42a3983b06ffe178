package statement

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDir lists the CSV files in dir, sorted by name. A directory that does
// not exist yields no files rather than an error, so a fresh checkout works
// before the statements folder is created.
func ScanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ScanDir: reading %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// MarkProcessed moves a statement file into the processed folder so the next
// run does not pick it up again.
func MarkProcessed(path, processedDir string) error {
	if err := os.MkdirAll(processedDir, 0o755); err != nil {
		return fmt.Errorf("MarkProcessed: creating %s: %w", processedDir, err)
	}
	dest := filepath.Join(processedDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("MarkProcessed: moving %s: %w", path, err)
	}
	return nil
}
