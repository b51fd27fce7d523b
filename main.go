package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/kraimines/ticketocr/client"
	"github.com/kraimines/ticketocr/config"
	"github.com/kraimines/ticketocr/handler"
	"github.com/kraimines/ticketocr/service"
	"github.com/kraimines/ticketocr/store"
	"github.com/kraimines/ticketocr/utils"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	// Initialize OCR engines
	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath)
	defer tesseractClient.Close()

	ocrEngines := []service.OCRClient{
		client.NewDoctrClient(cfg.DoctrAPIURL),
		tesseractClient,
		client.NewDoclingClient(cfg.DoclingAPIURL),
	}

	// Initialize LLM tier chain: Gemini first when a key is configured,
	// then the local Ollama models
	ctx := context.Background()
	var llmTiers []service.LLMClient

	if cfg.GeminiAPIKey != "" {
		geminiClient, err := client.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("Gemini client unavailable, continuing without it: %v", err)
		} else {
			defer geminiClient.Close()
			llmTiers = append(llmTiers, geminiClient)
		}
	} else {
		log.Println("GOOGLE_API_KEY not set, Gemini tier disabled")
	}
	for _, model := range cfg.OllamaModels {
		llmTiers = append(llmTiers, client.NewOllamaClient(cfg.OllamaBaseURL, model, cfg.LLMTimeout))
	}

	// Initialize persistence
	db, err := store.NewBoltDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Initialize service layer
	accountingService := service.NewAccountingService(db)
	reportService := service.NewReportService(db)

	ticketService, err := service.NewTicketService(service.TicketServiceConfig{
		OCREngines:  ocrEngines,
		LLMTiers:    llmTiers,
		Recover:     utils.RecoverJSON,
		Barcode:     client.NewBarcodeClient(),
		PDF:         service.NewPDFProcessor(),
		Accounting:  accountingService,
		UploadDir:   cfg.UploadDir,
		LLMTimeout:  cfg.LLMTimeout,
		StampNorm:   utils.NormalizeFiscalStamp,
		BuildReport: utils.BuildReport,
	})
	if err != nil {
		log.Fatalf("Failed to initialize ticket service: %v", err)
	}

	// Initialize handler layer
	ticketHandler := handler.NewTicketHandler(ticketService)
	historyHandler := handler.NewHistoryHandler(db, reportService)

	// Setup Gin router
	router := gin.Default()

	// Configure max multipart memory (32 MB)
	router.MaxMultipartMemory = 32 << 20

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Ticket OCR",
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		tickets := api.Group("/tickets")
		{
			tickets.POST("/analyze", ticketHandler.AnalyzeTicket)
			tickets.GET("", historyHandler.ListTickets)
			tickets.GET("/:id", historyHandler.GetTicket)
		}
		budget := api.Group("/budget")
		{
			budget.POST("", historyHandler.UpsertBudget)
			budget.GET("/status", historyHandler.GetBudgetStatus)
		}
		reports := api.Group("/reports")
		{
			reports.GET("/excel", historyHandler.ExportExcel)
		}
	}

	// Start server
	log.Printf("Starting Ticket OCR Service on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
