package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kraimines/ticketocr/dto"
	"github.com/kraimines/ticketocr/service"
	"github.com/kraimines/ticketocr/store"
)

type HistoryHandler struct {
	db            store.DB
	reportService *service.ReportService
}

func NewHistoryHandler(db store.DB, reportService *service.ReportService) *HistoryHandler {
	return &HistoryHandler{
		db:            db,
		reportService: reportService,
	}
}

// ListTickets handles the GET /api/v1/tickets endpoint
func (h *HistoryHandler) ListTickets(c *gin.Context) {
	tickets, err := h.db.ListTickets()
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to list tickets", err)
		return
	}

	response := dto.HistoryResponse{Count: len(tickets)}
	for _, t := range tickets {
		response.Tickets = append(response.Tickets, *t)
	}
	c.JSON(http.StatusOK, response)
}

// GetTicket handles the GET /api/v1/tickets/:id endpoint
func (h *HistoryHandler) GetTicket(c *gin.Context) {
	ticket, err := h.db.GetTicket(c.Param("id"))
	if err != nil {
		if notFound(err) {
			h.sendError(c, http.StatusNotFound, "Ticket not found", err)
			return
		}
		h.sendError(c, http.StatusInternalServerError, "Failed to load ticket", err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// UpsertBudget handles the POST /api/v1/budget endpoint
func (h *HistoryHandler) UpsertBudget(c *gin.Context) {
	var request dto.BudgetRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to parse budget request", err)
		return
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	budget := &dto.Budget{
		Type:      dto.BudgetType(request.Type),
		Amount:    request.Amount,
		Year:      request.Year,
		Month:     request.Month,
		UpdatedAt: time.Now().UTC(),
	}
	if err := h.db.UpsertBudget(budget); err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to save budget", err)
		return
	}

	log.Printf("Budget saved: %s %04d-%02d = %.3f", budget.Type, budget.Year, budget.Month, budget.Amount)
	c.JSON(http.StatusOK, budget)
}

// GetBudgetStatus handles the GET /api/v1/budget/status endpoint
func (h *HistoryHandler) GetBudgetStatus(c *gin.Context) {
	budgetType := dto.BudgetType(c.DefaultQuery("type", string(dto.BudgetMonthly)))

	now := time.Now().UTC()
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid year", err)
		return
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Invalid month", err)
		return
	}

	status, err := h.db.BudgetStatus(budgetType, year, month)
	if err != nil {
		if notFound(err) {
			h.sendError(c, http.StatusNotFound, "No budget defined for this period", err)
			return
		}
		h.sendError(c, http.StatusInternalServerError, "Failed to compute budget status", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ExportExcel handles the GET /api/v1/reports/excel endpoint
func (h *HistoryHandler) ExportExcel(c *gin.Context) {
	data, err := h.reportService.ExportLedgerXLSX()
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to generate report", err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+ExcelReportFilename())
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// sendError sends a structured error response
func (h *HistoryHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "HISTORY_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}
