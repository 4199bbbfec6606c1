package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ironsheep/label-templator/internal/template"
)

// csvHeader is the first row of every centers CSV.
var csvHeader = []string{"x", "y", "coord_space"}

// WriteCSV writes the template centers, row-major, as x,y,coord_space rows
// with six decimals.
func WriteCSV(w io.Writer, tpl *template.Template, space template.CoordSpace) error {
	if _, err := template.ParseCoordSpace(string(space)); err != nil {
		return err
	}
	centers, err := tpl.CentersIn(space)
	if err != nil {
		return err
	}
	template.SortRowMajor(centers)

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, c := range centers {
		row := []string{
			strconv.FormatFloat(c.X, 'f', 6, 64),
			strconv.FormatFloat(c.Y, 'f', 6, 64),
			string(space),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes a centers CSV file, creating parent directories.
func SaveCSV(path string, tpl *template.Template, space template.CoordSpace) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteCSV(w, tpl, space)
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
