package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/warp/wage-arrears/generic"
)

// WritePDF writes a one-document arrears statement: the parameters and
// totals followed by the per-month payment table. The core fonts carry no
// Cyrillic, so the statement is in English.
func (r Report) WritePDF(w io.Writer) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Wage arrears statement", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Wage arrears statement")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	params := r.parameters()
	for _, rw := range params.rows {
		if rw.total {
			pdf.SetFont("Helvetica", "B", 10)
		}
		pdf.CellFormat(90, 6, text(rw.cells[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, text(rw.cells[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	r.pdfMonths(pdf)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf write: %w", err)
	}
	return nil
}

// pdfMonths prints one line per period month: the month subtotals of the
// payments table.
func (r Report) pdfMonths(pdf *gofpdf.Fpdf) {
	header := []string{"Period", "Net paid", "Net indexed", "Underpayment", "Compensation", "Due"}
	widths := []float64{35, 45, 45, 45, 45, 45}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(224, 224, 224)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	line := func(cells []string) {
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	for _, g := range r.Result.Months {
		due := g.Underpayment.Add(g.Compensation)
		line([]string{
			generic.YearMonth{Year: g.Year, Month: g.Month}.String(),
			text(money(g.NetPaid)),
			text(money(g.NetIndexed)),
			text(money(g.Underpayment)),
			text(money(g.Compensation.Round(2))),
			text(money(due.Round(2))),
		})
	}

	tot := r.Result.Totals
	pdf.SetFont("Helvetica", "B", 10)
	line([]string{
		"Total",
		text(money(tot.NetPaid)),
		text(money(tot.NetIndexed)),
		text(money(tot.Underpayment)),
		text(money(tot.Compensation)),
		text(money(tot.Due)),
	})
}
