package reconciliation

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ErrExport marks failures while building the workbook, as opposed to failures computing it.
var ErrExport = errors.New("could not build reconciliation workbook")

const (
	DetailSheet  = "Detail"
	SummarySheet = "Summary"

	timestampLayout = "2006-01-02 15:04:05"
)

// DetailColumns is the fixed column order of the detail sheet
var DetailColumns = []string{
	"Warehouse", "Location", "Brand", "Barcode", "Description",
	"System Qty", "Physical Qty", "Counted At",
	"IN Pre-Count", "OUT Pre-Count", "IN Post-Count", "OUT Post-Count",
	"Net Pre-Count", "Expected Stock", "Apparent Diff", "Real Diff",
	"Status", "Message", "Has Movements", "Has Discrepancy",
}

// WriteWorkbook renders res as an xlsx workbook with a detail sheet and a summary sheet.
// All errors wrap ErrExport.
func WriteWorkbook(w io.Writer, res Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DetailSheet); err != nil {
		return exportErr("rename detail sheet", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return exportErr("create summary sheet", err)
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return exportErr("create header style", err)
	}

	if err := writeDetail(f, res, header); err != nil {
		return err
	}
	if err := writeSummary(f, res.Summary, header); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return exportErr("write workbook", err)
	}
	return nil
}

func writeDetail(f *excelize.File, res Result, header int) error {
	headerRow := make([]interface{}, len(DetailColumns))
	for i, c := range DetailColumns {
		headerRow[i] = c
	}
	if err := f.SetSheetRow(DetailSheet, "A1", &headerRow); err != nil {
		return exportErr("write detail header", err)
	}

	last, _ := excelize.ColumnNumberToName(len(DetailColumns))
	if err := f.SetCellStyle(DetailSheet, "A1", last+"1", header); err != nil {
		return exportErr("style detail header", err)
	}
	if err := f.SetColWidth(DetailSheet, "A", last, 16); err != nil {
		return exportErr("size detail columns", err)
	}

	for i, r := range res.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return exportErr("address detail row", err)
		}
		row := []interface{}{
			r.Warehouse,
			r.Location,
			r.Brand,
			r.Barcode,
			r.Description,
			r.SystemQuantity.InexactFloat64(),
			r.PhysicalQuantity.InexactFloat64(),
			r.CountedAt.Format(timestampLayout),
			r.InPre.InexactFloat64(),
			r.OutPre.InexactFloat64(),
			r.InPost.InexactFloat64(),
			r.OutPost.InexactFloat64(),
			r.NetPre.InexactFloat64(),
			r.ExpectedStock.InexactFloat64(),
			r.ApparentDiff.InexactFloat64(),
			r.RealDiff.InexactFloat64(),
			string(r.Status),
			r.Message,
			yesNo(r.HasMovements),
			yesNo(r.HasDiscrepancy),
		}
		if err := f.SetSheetRow(DetailSheet, cell, &row); err != nil {
			return exportErr("write detail row", err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, s Summary, header int) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total Records", s.TotalRecords},
		{"With Movements", s.WithMovements},
		{"Without Movements", s.TotalRecords - s.WithMovements},
		{"Explained by Movements", s.MovementExplained},
		{"Real Discrepancies", s.TrueDiscrepancies},
		{"No Difference", s.NoDiscrepancy},
		{"Incomplete Counts", s.IncompleteRecords},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return exportErr("address summary row", err)
		}
		if err := f.SetSheetRow(SummarySheet, cell, &rows[i]); err != nil {
			return exportErr("write summary row", err)
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", header); err != nil {
		return exportErr("style summary header", err)
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 28); err != nil {
		return exportErr("size summary columns", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func exportErr(step string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExport, step, err)
}
