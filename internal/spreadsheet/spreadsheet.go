// Package spreadsheet reads and writes inventory workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"stockcount/internal/model"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnreadable    = errors.New("workbook could not be read")
	ErrMissingColumn = errors.New("required column missing")
	ErrEmpty         = errors.New("workbook has no data rows")
)

// Column identifiers recognised in import headers
const (
	ColWarehouse      = "warehouse"
	ColLocation       = "location"
	ColBrand          = "brand"
	ColBarcode        = "barcode"
	ColDescription    = "description"
	ColSystemQuantity = "system_quantity"
)

var requiredColumns = []string{ColWarehouse, ColBrand, ColBarcode, ColSystemQuantity}

// headerAliases maps normalised header text to a column identifier.
var headerAliases = map[string]string{
	"warehouse": ColWarehouse,
	"wh":        ColWarehouse,
	"almacen":   ColWarehouse,
	"bodega":    ColWarehouse,

	"location":  ColLocation,
	"loc":       ColLocation,
	"ubicacion": ColLocation,

	"brand": ColBrand,
	"marca": ColBrand,

	"barcode":          ColBarcode,
	"bar code":         ColBarcode,
	"sku":              ColBarcode,
	"ean":              ColBarcode,
	"codigo":           ColBarcode,
	"codigo de barras": ColBarcode,

	"description": ColDescription,
	"descripcion": ColDescription,
	"name":        ColDescription,
	"nombre":      ColDescription,

	"system quantity":  ColSystemQuantity,
	"system qty":       ColSystemQuantity,
	"stock":            ColSystemQuantity,
	"qty":              ColSystemQuantity,
	"quantity":         ColSystemQuantity,
	"cantidad":         ColSystemQuantity,
	"cantidad sistema": ColSystemQuantity,
	"existencia":       ColSystemQuantity,
}

// NormalizeHeader lowercases s, strips accents and collapses separators
func NormalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	out = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == '.' {
			return ' '
		}
		return r
	}, out)
	return strings.Join(strings.Fields(out), " ")
}

// RowError reports a rejected data row. Row is the 1-based sheet row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult holds the accepted rows of an inventory workbook
type ImportResult struct {
	Items      []model.InventoryCount
	Errors     []RowError
	Duplicates int
}

// ParseInventory reads the first sheet of an xlsx workbook. Rows repeating a SKU key
// replace the earlier row. Row-level problems are reported in Errors; only unreadable
// workbooks and missing required columns fail the whole import.
func ParseInventory(r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmpty
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if len(rows) < 2 {
		return nil, ErrEmpty
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		if id, ok := headerAliases[NormalizeHeader(h)]; ok {
			if _, seen := cols[id]; !seen {
				cols[id] = i
			}
		}
	}
	var missing []string
	for _, id := range requiredColumns {
		if _, ok := cols[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	res := &ImportResult{Items: make([]model.InventoryCount, 0, len(rows)-1)}
	index := make(map[string]int)

	for i, row := range rows[1:] {
		sheetRow := i + 2
		cell := func(id string) string {
			idx, ok := cols[id]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if isBlank(row) {
			continue
		}

		item := model.InventoryCount{
			Warehouse:   cell(ColWarehouse),
			Location:    cell(ColLocation),
			Brand:       cell(ColBrand),
			Barcode:     cell(ColBarcode),
			Description: cell(ColDescription),
		}
		if item.Warehouse == "" || item.Brand == "" || item.Barcode == "" {
			res.Errors = append(res.Errors, RowError{Row: sheetRow, Message: "warehouse, brand and barcode are required"})
			continue
		}

		qty, err := parseQuantity(cell(ColSystemQuantity))
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: sheetRow, Message: err.Error()})
			continue
		}
		item.SystemQuantity = qty

		key := item.Warehouse + "\x00" + item.Location + "\x00" + item.Brand + "\x00" + item.Barcode
		if at, ok := index[key]; ok {
			res.Items[at] = item
			res.Duplicates++
			continue
		}
		index[key] = len(res.Items)
		res.Items = append(res.Items, item)
	}
	return res, nil
}

// thousandsGrouped matches quantities whose commas are well-formed thousands separators.
var thousandsGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)

func parseQuantity(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, errors.New("system quantity is empty")
	}
	if strings.Contains(s, ",") {
		if !thousandsGrouped.MatchString(s) {
			return decimal.Zero, fmt.Errorf("system quantity %q has an ambiguous comma", s)
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("system quantity %q is not a number", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("system quantity %s is negative", d)
	}
	return d, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// InventoryColumns is the header row of exported inventory workbooks
var InventoryColumns = []string{
	"Warehouse", "Location", "Brand", "Barcode", "Description",
	"System Qty", "Physical Qty", "Counted At", "Status",
}

const inventorySheet = "Inventory"

// WriteInventory renders items as a single-sheet workbook that ParseInventory can read back.
func WriteInventory(w io.Writer, items []model.InventoryCount) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", inventorySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := make([]interface{}, len(InventoryColumns))
	for i, c := range InventoryColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(inventorySheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(InventoryColumns))
	if err := f.SetCellStyle(inventorySheet, "A1", last+"1", style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, it := range items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var physical, countedAt interface{}
		status := model.CountStatusPending
		if it.PhysicalQuantity.Valid {
			physical = it.PhysicalQuantity.Decimal.InexactFloat64()
		}
		if it.CountedAt != nil {
			countedAt = it.CountedAt.Format("2006-01-02 15:04:05")
			status = model.CountStatusCounted
		}
		row := []interface{}{
			it.Warehouse,
			it.Location,
			it.Brand,
			it.Barcode,
			it.Description,
			it.SystemQuantity.InexactFloat64(),
			physical,
			countedAt,
			status,
		}
		if err := f.SetSheetRow(inventorySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
