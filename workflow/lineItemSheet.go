package workflow

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mmdatafocus/po_service/models"
	"github.com/mmdatafocus/po_service/utils"
	"github.com/xuri/excelize/v2"
)

var lineItemColumns = []string{"PONumber", "SKUId", "ProductName", "OrderedQty", "City", "VendorName", "POCreatedDate"}

// ParseLineItemsXlsx reads line items from the first sheet of an .xlsx file.
// Row 1 holds the column names (any order, case-insensitive, unknown columns
// ignored). Fully empty rows are skipped. Date cells may hold an Excel serial.
func ParseLineItemsXlsx(r io.Reader) ([]LineItem, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("unable to open Excel file: %v: %w", err, models.ErrInvalidInput)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %w", models.ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("unable to read sheet: %v: %w", err, models.ErrInvalidInput)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty: %w", sheets[0], models.ErrInvalidInput)
	}

	colIndex := make(map[string]int)
	for i, header := range rows[0] {
		for _, col := range lineItemColumns {
			if strings.EqualFold(strings.TrimSpace(header), col) {
				colIndex[col] = i
			}
		}
	}
	for _, col := range lineItemColumns {
		if col == "ProductName" {
			continue
		}
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing column %s: %w", col, models.ErrInvalidInput)
		}
	}

	items := make([]LineItem, 0, len(rows)-1)
	for rowNo, row := range rows[1:] {
		cell := func(col string) string {
			i, ok := colIndex[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if isBlankRow(row) {
			continue
		}

		item := LineItem{
			PONumber:      cell("PONumber"),
			SKUId:         cell("SKUId"),
			ProductName:   cell("ProductName"),
			City:          cell("City"),
			VendorName:    cell("VendorName"),
			POCreatedDate: sheetDate(cell("POCreatedDate")),
		}
		if raw := cell("OrderedQty"); raw != "" {
			dec, err := utils.ParseDecimal(raw)
			if err != nil {
				// rowNo is 0-based over data rows; sheet rows start at 2
				return nil, fmt.Errorf("row %d: OrderedQty %q is not a number: %w", rowNo+2, raw, models.ErrInvalidInput)
			}
			qty := dec.InexactFloat64()
			item.OrderedQty = &qty
		}
		items = append(items, item)
	}
	return items, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sheetDate turns an Excel date serial into YYYY-MM-DD; other values pass through.
func sheetDate(value string) string {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02")
}
