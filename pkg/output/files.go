package output

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grmpy/grmpy-go/internal/simulation"
	"github.com/grmpy/grmpy-go/pkg/constants"
	"github.com/grmpy/grmpy-go/pkg/validation"
)

// DatasetPath returns the dataset file for stem in dir.
func DatasetPath(dir, stem, format string) string {
	suffix := constants.DatasetTableSuffix
	if format == constants.OutputFormatCSV {
		suffix = constants.DatasetCSVSuffix
	}
	return filepath.Join(dir, stem+suffix)
}

// InfoPath returns the info report file for stem in dir.
func InfoPath(dir, stem string) string {
	return filepath.Join(dir, stem+constants.InfoSuffix)
}

// WriteRun writes the dataset and its report for stem into dir and returns
// the written paths.
func WriteRun(dir, stem, format string, ds *simulation.Dataset, report *Report) ([]string, error) {
	if err := validation.ValidateOutputFormat(format); err != nil {
		return nil, err
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	dataPath := DatasetPath(dir, stem, format)
	err := writeFile(dataPath, func(w *bufio.Writer) error {
		if format == constants.OutputFormatCSV {
			return WriteCSV(w, ds)
		}
		return WriteTable(w, ds)
	})
	if err != nil {
		return nil, err
	}

	infoPath := InfoPath(dir, stem)
	if err := writeFile(infoPath, func(w *bufio.Writer) error { return WriteInfo(w, report) }); err != nil {
		return nil, err
	}
	return []string{dataPath, infoPath}, nil
}

func writeFile(path string, write func(w *bufio.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return w.Flush()
}
