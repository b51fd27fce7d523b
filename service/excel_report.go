package service

import (
	"fmt"
	"log"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kraimines/ticketocr/store"
)

// ReportService produces XLSX bytes from the accounting ledger.
type ReportService struct {
	db store.DB
}

func NewReportService(db store.DB) *ReportService {
	return &ReportService{db: db}
}

// ExportLedgerXLSX renders the full accounting ledger as an XLSX workbook and
// returns it as bytes, with a totals row after the entries.
func (s *ReportService) ExportLedgerXLSX() ([]byte, error) {
	start := time.Now()

	entries, err := s.db.ListEntries()
	if err != nil {
		return nil, fmt.Errorf("query ledger entries: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Journal"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date",
		"Compte",
		"Description",
		"Libelle",
		"Debit (DT)",
		"Credit (DT)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 2
	var totalDebit, totalCredit float64
	for _, e := range entries {
		write(1, row, e.EntryDate.Format("02/01/2006"))
		write(2, row, e.Account)
		write(3, row, e.Description)
		write(4, row, e.Label)
		write(5, row, fmt.Sprintf("%.3f", e.Debit))
		write(6, row, fmt.Sprintf("%.3f", e.Credit))

		totalDebit += e.Debit
		totalCredit += e.Credit
		row++
	}

	write(4, row, "TOTAL")
	write(5, row, fmt.Sprintf("%.3f", totalDebit))
	write(6, row, fmt.Sprintf("%.3f", totalCredit))

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "B", 10)
	_ = f.SetColWidth(sheet, "C", "C", 24)
	_ = f.SetColWidth(sheet, "D", "D", 32)
	_ = f.SetColWidth(sheet, "E", "F", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	log.Printf("Report: exported %d ledger entries in %dms", len(entries), time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}
