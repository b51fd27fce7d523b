package dto

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
)

// TicketAnalyzeRequest represents an uploaded receipt to analyze.
type TicketAnalyzeRequest struct {
	File *multipart.FileHeader `form:"ticket" binding:"required"`
	// Mode selects the analysis path: "llm" (default, full tier chain) or
	// "regex" (deterministic extraction only, no LLM call).
	Mode string `form:"mode"`
}

// Validate performs basic validation on the request.
func (r *TicketAnalyzeRequest) Validate() error {
	if r.File == nil {
		return ErrNoTicketFile
	}
	switch strings.ToLower(filepath.Ext(r.File.Filename)) {
	case ".png", ".jpg", ".jpeg", ".pdf":
	default:
		return ErrUnsupportedFormat
	}
	if r.Mode != "" && r.Mode != "llm" && r.Mode != "regex" {
		return errors.New("mode must be llm or regex")
	}
	return nil
}

// BudgetRequest creates or updates a monthly/yearly budget.
type BudgetRequest struct {
	Type   string  `json:"type" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
	Year   int     `json:"year" binding:"required"`
	Month  int     `json:"month"`
}

// Validate performs basic validation on the request.
func (r *BudgetRequest) Validate() error {
	if r.Type != string(BudgetMonthly) && r.Type != string(BudgetYearly) {
		return errors.New("type must be monthly or yearly")
	}
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	if r.Type == string(BudgetMonthly) && (r.Month < 1 || r.Month > 12) {
		return errors.New("monthly budget requires month between 1 and 12")
	}
	return nil
}
