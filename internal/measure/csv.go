package measure

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteCSV writes the table's header and rows to w.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows()); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// SaveCSV writes the table to path, replacing any existing file.
func SaveCSV(path string, t Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create measurements file: %w", err)
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
