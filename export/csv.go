package export

import (
	"encoding/csv"
	"io"
)

// WriteCSV writes every table as a ";"-separated section. A section starts
// with a "# Title" line and its header, and sections are separated by an
// empty line.
func (r Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	for i, t := range r.tables() {
		if i > 0 {
			if err := cw.Write([]string{""}); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{"# " + t.title}); err != nil {
			return err
		}
		if err := cw.Write(t.header); err != nil {
			return err
		}
		for _, rw := range t.rows {
			record := make([]string, len(rw.cells))
			for j, c := range rw.cells {
				record[j] = text(c)
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
