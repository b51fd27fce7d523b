package dto

import "time"

// TicketRecord is a persisted analyzed ticket.
type TicketRecord struct {
	ID           string          `json:"id"`
	TicketDate   time.Time       `json:"ticket_date"`
	Magasin      string          `json:"magasin"`
	Total        float64         `json:"total"`
	NumeroTicket string          `json:"numero_ticket,omitempty"`
	Articles     []Article       `json:"articles"`
	Analysis     ExtractedTicket `json:"analysis"`
	CreatedAt    time.Time       `json:"created_at"`
}

// AccountingEntry is one ledger line generated from a ticket.
type AccountingEntry struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	EntryDate   time.Time `json:"entry_date"`
	Account     string    `json:"account"`
	Description string    `json:"description"`
	Label       string    `json:"label"`
	Debit       float64   `json:"debit"`
	Credit      float64   `json:"credit,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BudgetType distinguishes monthly from yearly budgets.
type BudgetType string

const (
	BudgetMonthly BudgetType = "monthly"
	BudgetYearly  BudgetType = "yearly"
)

// Budget is a spending ceiling for a month or a year.
type Budget struct {
	Type      BudgetType `json:"type"`
	Amount    float64    `json:"amount"`
	Year      int        `json:"year"`
	Month     int        `json:"month,omitempty"` // zero for yearly budgets
	UpdatedAt time.Time  `json:"updated_at"`
}

// BudgetStatus is a budget together with the spend recorded against it.
type BudgetStatus struct {
	Budget    Budget  `json:"budget"`
	Spent     float64 `json:"spent"`
	Remaining float64 `json:"remaining"`
	Exceeded  bool    `json:"exceeded"`
}
