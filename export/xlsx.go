package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/wage-arrears/generic"
)

const (
	// Built-in number format "#,##0.00".
	numFmtMoney = 4
	rateFormat  = "0.00000000"
)

type xlsxStyles struct {
	header, total, money, rate, totalMoney int
}

// WriteXLSX writes the report as a workbook with one sheet per table.
func (r Report) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newXLSXStyles(f)
	if err != nil {
		return fmt.Errorf("xlsx styles: %w", err)
	}

	for i, t := range r.tables() {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.title); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(t.title); err != nil {
			return err
		}
		if err := writeSheet(f, t, styles); err != nil {
			return fmt.Errorf("xlsx sheet %s: %w", t.title, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error
	rateFmt := rateFormat

	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.header, &excelize.Style{
			Font:   &excelize.Font{Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
			Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
		}},
		{&s.total, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.money, &excelize.Style{NumFmt: numFmtMoney}},
		{&s.rate, &excelize.Style{CustomNumFmt: &rateFmt}},
		{&s.totalMoney, &excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: numFmtMoney}},
	}
	for _, d := range defs {
		if *d.dst, err = f.NewStyle(d.style); err != nil {
			return s, err
		}
	}
	return s, nil
}

func writeSheet(f *excelize.File, t table, styles xlsxStyles) error {
	sheet := t.title

	for col, name := range t.header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(t.header), 1)
	if err := f.SetCellStyle(sheet, "A1", last, styles.header); err != nil {
		return err
	}

	for i, rw := range t.rows {
		rowNum := i + 2
		for col, c := range rw.cells {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			value, style := xlsxCell(c, rw.total, styles)
			if value == nil {
				if rw.total {
					if err := f.SetCellStyle(sheet, cell, cell, styles.total); err != nil {
						return err
					}
				}
				continue
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
			if style != 0 {
				if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
					return err
				}
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(t.header))
	return f.SetColWidth(sheet, "A", lastCol, 16)
}

// xlsxCell converts a table cell to a workbook value and its style.
// Money stays numeric so sums can be checked in the spreadsheet.
func xlsxCell(c any, total bool, styles xlsxStyles) (any, int) {
	plain := 0
	if total {
		plain = styles.total
	}
	switch v := c.(type) {
	case nil:
		return nil, 0
	case money:
		if total {
			return decimal.Decimal(v).InexactFloat64(), styles.totalMoney
		}
		return decimal.Decimal(v).InexactFloat64(), styles.money
	case rate:
		return decimal.Decimal(v).InexactFloat64(), styles.rate
	case int:
		return v, plain
	case generic.TimePoint:
		if v.IsZero() {
			return nil, 0
		}
		return v.String(), plain
	}
	return text(c), plain
}
