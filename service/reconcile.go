package service

import (
	"log"

	"github.com/kraimines/ticketocr/dto"
	"github.com/kraimines/ticketocr/utils"
)

// ReconciliationEngine merges an LLM-extracted ticket with an independent
// regex extraction over the same raw OCR text. The LLM result always wins
// when its field is non-empty; regex only fills gaps.
type ReconciliationEngine struct{}

func NewReconciliationEngine() *ReconciliationEngine {
	return &ReconciliationEngine{}
}

// Reconcile back-fills empty LLM fields from the regex extraction and
// attaches the regex validation report. Store name and ticket number are
// never back-filled: regex cannot tell a store name from any other line.
func (e *ReconciliationEngine) Reconcile(ticket dto.ExtractedTicket, rawText string) dto.ExtractedTicket {
	return e.ReconcileReport(ticket, utils.BuildReport(rawText))
}

// ReconcileReport is Reconcile for callers that already ran the regex
// extraction and want to reuse its report.
func (e *ReconciliationEngine) ReconcileReport(ticket dto.ExtractedTicket, report dto.RegexReport) dto.ExtractedTicket {
	if ticket.Date == "" && len(report.Dates) > 0 {
		ticket.Date = report.Dates[0]
		log.Printf("Reconciliation: date back-filled from regex: %s", ticket.Date)
	}

	if ticket.Total == "" && report.Total != "" {
		ticket.Total = report.Total
		log.Printf("Reconciliation: total back-filled from regex: %s", ticket.Total)
	}

	// Items are all-or-nothing: merging at line granularity would need to
	// match item identity across two noisy extractions.
	if len(ticket.Articles) == 0 && len(report.Articles) > 0 {
		ticket.Articles = report.Articles
		log.Printf("Reconciliation: %d articles back-filled from regex", len(report.Articles))
	}

	ticket.Validation = &dto.ValidationReport{
		TotalCoherent: report.TotalCoherent,
		ItemsSum:      report.ItemsSum,
		DetectedTotal: report.Total,
		Alert:         report.Alert,
	}
	return ticket
}

// TicketFromReport builds a regex-only ticket for the case where every LLM
// tier failed. Store and ticket number stay empty; the caller sets the
// provenance comment.
func TicketFromReport(report dto.RegexReport) dto.ExtractedTicket {
	ticket := dto.ExtractedTicket{
		Articles: report.Articles,
		Total:    report.Total,
	}
	if len(report.Dates) > 0 {
		ticket.Date = report.Dates[0]
	}
	ticket.Validation = &dto.ValidationReport{
		TotalCoherent: report.TotalCoherent,
		ItemsSum:      report.ItemsSum,
		DetectedTotal: report.Total,
		Alert:         report.Alert,
	}
	return ticket
}
