package dto

import "errors"

// Custom errors
var (
	// ErrNoJSONFound means no recoverable JSON object was present in an LLM
	// response. Distinct from a ticket with empty fields: callers branch on
	// this to fall back to the next model tier or to regex-only mode.
	ErrNoJSONFound = errors.New("no valid JSON object found in LLM response")

	ErrNoTicketFile      = errors.New("a ticket image or PDF is required")
	ErrUnsupportedFormat = errors.New("unsupported file format: expected png, jpg or pdf")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrBudgetNotFound    = errors.New("budget not found")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// TicketAnalyzeResponse is the final response for one analyzed receipt.
type TicketAnalyzeResponse struct {
	Ticket      ExtractedTicket `json:"ticket"`
	OcrResults  RawOcrBundle    `json:"ocr_results"`
	RegexReport RegexReport     `json:"regex_report"`
	Barcode     string          `json:"barcode,omitempty"`
	TicketID    string          `json:"ticket_id,omitempty"`
	ProcessedAt string          `json:"processed_at"`
}

// HistoryResponse lists persisted tickets.
type HistoryResponse struct {
	Tickets []TicketRecord `json:"tickets"`
	Count   int            `json:"count"`
}
