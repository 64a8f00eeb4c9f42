// Package export renders stock ledger history as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	stockdomain "github.com/Apurer/go-procurement-server/internal/domains/stock/domain"
)

const (
	historySheet = "History"
	timeLayout   = "2006-01-02 15:04:05"

	// ContentTypeXLSX is the media type of the rendered workbook.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var historyHeadings = []string{"Entry", "Date", "Direction", "Kind", "Quantity", "Site", "Reference", "Label", "Reason", "Active"}

// WriteHistory writes entries, newest first as given, to w as an XLSX workbook with one
// heading row and one row per ledger entry.
func WriteHistory(w io.Writer, productID int64, entries []*stockdomain.Entry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return err
	}
	for i, heading := range historyHeadings {
		if err := setCell(f, i+1, 1, heading); err != nil {
			return err
		}
	}
	for i, entry := range entries {
		row := i + 2
		values := []any{
			entry.ID,
			entry.CreatedAt.UTC().Format(timeLayout),
			string(entry.Direction),
			string(entry.Kind),
			entry.Quantity.InexactFloat64(),
			siteLabel(entry.SiteID),
			referenceLabel(entry),
			entry.Label,
			entry.Reason,
			entry.Active,
		}
		for col, value := range values {
			if err := setCell(f, col+1, row, value); err != nil {
				return err
			}
		}
	}
	if err := f.SetDocProps(&excelize.DocProperties{Title: fmt.Sprintf("Stock history of product %d", productID)}); err != nil {
		return err
	}
	return f.Write(w)
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(historySheet, cell, value)
}

func siteLabel(siteID *int64) string {
	if siteID == nil {
		return "general"
	}
	return fmt.Sprintf("%d", *siteID)
}

func referenceLabel(entry *stockdomain.Entry) string {
	if entry.ReferenceType == "" {
		return ""
	}
	if entry.ReferenceID == nil {
		return entry.ReferenceType
	}
	return fmt.Sprintf("%s #%d", entry.ReferenceType, *entry.ReferenceID)
}
