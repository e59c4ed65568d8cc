package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/grmpy/grmpy-go/internal/simulation"
)

const columnWidth = 15

// Columns returns the dataset header: Y D X_0.. Z_0.. Y1 Y0 U0 U1 UC V.
func Columns(ds *simulation.Dataset) []string {
	_, kx := ds.X.Dims()
	_, kz := ds.Z.Dims()
	cols := []string{"Y", "D"}
	for j := 0; j < kx; j++ {
		cols = append(cols, fmt.Sprintf("X_%d", j))
	}
	for j := 0; j < kz; j++ {
		cols = append(cols, fmt.Sprintf("Z_%d", j))
	}
	return append(cols, "Y1", "Y0", "U0", "U1", "UC", "V")
}

// row splits agent i into Y, D and the remaining fields in Columns order.
func row(ds *simulation.Dataset, i int) (float64, int, []float64) {
	r := ds.Record(i)
	rest := append(append(r.X, r.Z...), r.Y1, r.Y0, r.U0, r.U1, r.UC, r.V)
	return r.Y, r.D, rest
}

// WriteTable writes the dataset as a fixed-width whitespace-separated table.
func WriteTable(w io.Writer, ds *simulation.Dataset) error {
	for _, c := range Columns(ds) {
		if _, err := fmt.Fprintf(w, "%*s", columnWidth, c); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	for i := 0; i < ds.Len(); i++ {
		y, d, rest := row(ds, i)
		if _, err := fmt.Fprintf(w, "%*.4f%*d", columnWidth, y, columnWidth, d); err != nil {
			return err
		}
		for _, v := range rest {
			if _, err := fmt.Fprintf(w, "%*.4f", columnWidth, v); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes the dataset as comma-separated values at full precision.
func WriteCSV(w io.Writer, ds *simulation.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(ds)); err != nil {
		return err
	}
	for i := 0; i < ds.Len(); i++ {
		y, d, rest := row(ds, i)
		record := []string{formatFloat(y), strconv.Itoa(d)}
		for _, v := range rest {
			record = append(record, formatFloat(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
