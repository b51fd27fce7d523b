package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kraimines/ticketocr/dto"
	"github.com/kraimines/ticketocr/service"
)

type TicketHandler struct {
	ticketService *service.TicketService
}

func NewTicketHandler(ticketService *service.TicketService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
	}
}

// AnalyzeTicket handles the POST /api/v1/tickets/analyze endpoint
func (h *TicketHandler) AnalyzeTicket(c *gin.Context) {
	log.Println("Received ticket analysis request")

	var request dto.TicketAnalyzeRequest
	if err := c.ShouldBind(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to parse multipart form", err)
		return
	}

	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	file, err := request.File.Open()
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "Failed to read uploaded file", err)
		return
	}

	log.Printf("Processing ticket %s (%d bytes, mode=%s)",
		request.File.Filename, len(data), request.Mode)

	response, err := h.ticketService.Analyze(c.Request.Context(), data, request.File.Filename, request.Mode)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "Failed to analyze ticket", err)
		return
	}

	log.Println("Ticket analysis completed successfully")
	c.JSON(http.StatusOK, response)
}

// sendError sends a structured error response
func (h *TicketHandler) sendError(c *gin.Context, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = err.Error()
		log.Printf("Error: %s - %v", message, err)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   "ANALYSIS_FAILED",
		Message: errorMsg,
		Code:    statusCode,
	})
}

// ExcelReportFilename names the attachment with the export date.
func ExcelReportFilename() string {
	return "journal-comptable-" + time.Now().UTC().Format("2006-01-02") + ".xlsx"
}

func notFound(err error) bool {
	return errors.Is(err, dto.ErrTicketNotFound) || errors.Is(err, dto.ErrBudgetNotFound)
}
