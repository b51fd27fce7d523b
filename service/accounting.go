package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kraimines/ticketocr/dto"
	"github.com/kraimines/ticketocr/store"
	"github.com/kraimines/ticketocr/utils"
)

const (
	purchaseAccount     = "606100"
	purchaseDescription = "Achat divers"
)

// ticketDateFormats are the layouts accepted at the persistence boundary.
// Extraction keeps the date as free text; only here does it become a real date.
var ticketDateFormats = []string{
	"02/01/2006",
	"02-01-2006",
	"2006-01-02",
}

// AccountingService turns analyzed tickets into ledger entries.
type AccountingService struct {
	db store.DB
}

func NewAccountingService(db store.DB) *AccountingService {
	return &AccountingService{db: db}
}

// ParseTicketDate parses a free-text extracted date. A time suffix is
// ignored, and an unparseable or empty date falls back to today.
func ParseTicketDate(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, ' '); i >= 0 {
		raw = raw[:i]
	}
	for _, layout := range ticketDateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	if raw != "" {
		log.Printf("Accounting: unparseable ticket date %q, defaulting to today", raw)
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// BuildEntry derives the single purchase entry for a ticket. A missing or
// unparseable total records a zero debit rather than failing: the ledger
// stays append-only even for degraded extractions.
func BuildEntry(ticket dto.ExtractedTicket, ticketID string) dto.AccountingEntry {
	total, err := utils.ParseAmount(ticket.Total)
	if err != nil {
		total = 0
	}

	storeName := strings.TrimSpace(ticket.Magasin)
	if storeName == "" {
		storeName = "Inconnu"
	}

	return dto.AccountingEntry{
		ID:          uuid.New().String(),
		TicketID:    ticketID,
		EntryDate:   ParseTicketDate(ticket.Date),
		Account:     purchaseAccount,
		Description: purchaseDescription,
		Label:       fmt.Sprintf("Achat-%s", storeName),
		Debit:       total,
		CreatedAt:   time.Now().UTC(),
	}
}

// RecordTicket persists the ticket in the history and appends its ledger
// entry, returning the stored record.
func (s *AccountingService) RecordTicket(ticket dto.ExtractedTicket) (*dto.TicketRecord, error) {
	total, err := utils.ParseAmount(ticket.Total)
	if err != nil {
		total = 0
	}

	record := &dto.TicketRecord{
		ID:           uuid.New().String(),
		TicketDate:   ParseTicketDate(ticket.Date),
		Magasin:      ticket.Magasin,
		Total:        total,
		NumeroTicket: ticket.NumeroTicket,
		Articles:     ticket.Articles,
		Analysis:     ticket,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.SaveTicket(record); err != nil {
		return nil, fmt.Errorf("saving ticket: %w", err)
	}

	entry := BuildEntry(ticket, record.ID)
	if err := s.db.SaveEntry(&entry); err != nil {
		return nil, fmt.Errorf("saving ledger entry: %w", err)
	}

	log.Printf("Accounting: recorded ticket %s (%s, %.3f)", record.ID, record.Magasin, record.Total)
	return record, nil
}
