/*
Package export renders reconciled ledgers into statement documents.

PURPOSE:
  The engine produces ledger data; this package turns it into something a
  trainer or treasurer can read - a PDF for the issued statement and an
  XLSX for spreadsheet people. Rendering is deliberately plain: layout is
  not a billing concern.
*/
package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/warp/billing-engine/billing"
)

// BuildStatementPDF renders a monthly statement with its ledger line items.
func BuildStatementPDF(stmt billing.MonthlyStatement, items []billing.LineItem) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Trainer Statement")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Trainer: %s", stmt.Trainer))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %04d-%02d", stmt.Year, stmt.Month))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", stmt.Status))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total: %s", stmt.Total))
	pdf.Ln(8)

	// Items table
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(24, 6, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Kind", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Sport", "1", 0, "C", false, 0, "")
	pdf.CellFormat(26, 6, "Time", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Role", "1", 0, "C", false, 0, "")
	pdf.CellFormat(16, 6, "Hours", "1", 0, "C", false, 0, "")
	pdf.CellFormat(22, 6, "Amount", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, item := range items {
		pdf.CellFormat(24, 6, item.Date.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(22, 6, string(item.Kind), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, item.Sport, "1", 0, "L", false, 0, "")
		pdf.CellFormat(26, 6, fmt.Sprintf("%s-%s", item.Start, item.End), "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, string(item.Role), "1", 0, "C", false, 0, "")
		pdf.CellFormat(16, 6, item.Hours.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(22, 6, item.Amount.String(), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildStatementXLSX renders the same statement as a workbook: a summary
// sheet plus one row per ledger line item.
func BuildStatementXLSX(stmt billing.MonthlyStatement, items []billing.LineItem) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	itemsSheet := "items"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(itemsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Trainer Statement")
	_ = f.SetCellValue(summarySheet, "A3", "Trainer")
	_ = f.SetCellValue(summarySheet, "B3", stmt.Trainer)
	_ = f.SetCellValue(summarySheet, "A4", "Period")
	_ = f.SetCellValue(summarySheet, "B4", fmt.Sprintf("%04d-%02d", stmt.Year, stmt.Month))
	_ = f.SetCellValue(summarySheet, "A5", "Status")
	_ = f.SetCellValue(summarySheet, "B5", string(stmt.Status))
	_ = f.SetCellValue(summarySheet, "A6", "Total")
	_ = f.SetCellValue(summarySheet, "B6", stmt.Total.String())

	headers := []string{"Date", "Kind", "Sport", "Field", "Start", "End", "Role", "Hours", "Amount", "Note"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(itemsSheet, cell, h)
	}
	for row, item := range items {
		values := []interface{}{
			item.Date.String(), string(item.Kind), item.Sport, item.Field,
			item.Start.String(), item.End.String(), string(item.Role),
			item.Hours.String(), item.Amount.String(), item.Note,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(itemsSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
