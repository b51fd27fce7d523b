package service

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kraimines/ticketocr/dto"
)

// OCRClient is one of the three OCR engines.
type OCRClient interface {
	Name() string
	ExtractText(path string) (string, error)
}

// LLMClient is one tier of the model fallback chain.
type LLMClient interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// BarcodeDecoder reads the optional reference barcode from a receipt image.
type BarcodeDecoder interface {
	DecodeFile(path string) (string, error)
}

// JSONRecoverer extracts a JSON object from raw LLM text; the concrete
// implementation lives in utils.
type JSONRecoverer func(raw string) (map[string]interface{}, error)

const extractionPrompt = `Tu es un expert en extraction de données de tickets de caisse. Analyse ces 3 textes OCR d'un même ticket et extrais les informations suivantes au format JSON strict :

{
    "Magasin": "nom du magasin",
    "Date": "DD/MM/YYYY",
    "NumeroTicket": "numéro du ticket" ou null,
    "Articles": [
        {
            "nom": "nom de l'article",
            "prix": "prix de l'article avec unité (ex: 5.500 DT)"
        }
    ],
    "Total": "montant total avec unité (ex: 39.500 DT)"
}

RÈGLES IMPORTANTES :
- Utilise les 3 textes pour obtenir la meilleure précision
- Corrige les erreurs OCR courantes : O→0, I→1, etc.
- Si une information n'est pas trouvée, utilise null
- Réponds UNIQUEMENT avec le JSON, sans texte supplémentaire

TEXTES OCR À ANALYSER :
%s`

// TicketService runs the full analysis pipeline for one uploaded receipt:
// OCR, LLM extraction with tier fallback, regex reconciliation, barcode
// lookup, persistence.
type TicketService struct {
	ocrEngines  []OCRClient
	llmTiers    []LLMClient
	recoverJSON JSONRecoverer
	barcode     BarcodeDecoder
	pdf         PDFProcessor
	reconciler  *ReconciliationEngine
	accounting  *AccountingService
	uploadDir   string
	llmTimeout  time.Duration
	stampNorm   func(*dto.ExtractedTicket)
	buildReport func(string) dto.RegexReport
}

// TicketServiceConfig wires the collaborators. Nil LLM tiers are skipped,
// so a missing Gemini key simply shortens the fallback chain.
type TicketServiceConfig struct {
	OCREngines  []OCRClient
	LLMTiers    []LLMClient
	Recover     JSONRecoverer
	Barcode     BarcodeDecoder
	PDF         PDFProcessor
	Accounting  *AccountingService
	UploadDir   string
	LLMTimeout  time.Duration
	StampNorm   func(*dto.ExtractedTicket)
	BuildReport func(string) dto.RegexReport
}

func NewTicketService(cfg TicketServiceConfig) (*TicketService, error) {
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}
	if cfg.LLMTimeout == 0 {
		cfg.LLMTimeout = 60 * time.Second
	}

	tiers := make([]LLMClient, 0, len(cfg.LLMTiers))
	for _, tier := range cfg.LLMTiers {
		if tier != nil {
			tiers = append(tiers, tier)
		}
	}

	return &TicketService{
		ocrEngines:  cfg.OCREngines,
		llmTiers:    tiers,
		recoverJSON: cfg.Recover,
		barcode:     cfg.Barcode,
		pdf:         cfg.PDF,
		reconciler:  NewReconciliationEngine(),
		accounting:  cfg.Accounting,
		uploadDir:   cfg.UploadDir,
		llmTimeout:  cfg.LLMTimeout,
		stampNorm:   cfg.StampNorm,
		buildReport: cfg.BuildReport,
	}, nil
}

// Analyze processes one uploaded receipt end to end. Mode "regex" skips the
// LLM chain entirely; anything else runs the full pipeline.
func (s *TicketService) Analyze(ctx context.Context, data []byte, filename, mode string) (*dto.TicketAnalyzeResponse, error) {
	bundle, imagePath, err := s.collectText(data, filename)
	if err != nil {
		return nil, err
	}
	if imagePath != "" {
		defer os.Remove(imagePath)
	}

	rawText := bundle.Combined()
	report := s.buildReport(rawText)

	var ticket dto.ExtractedTicket
	if mode == "regex" || len(s.llmTiers) == 0 {
		ticket = TicketFromReport(report)
		if len(s.llmTiers) == 0 && mode != "regex" {
			ticket.Commentaire = "Aucun modèle LLM disponible, extraction regex uniquement"
		}
	} else {
		ticket = s.extractWithFallback(ctx, bundle, report)
	}

	response := &dto.TicketAnalyzeResponse{
		Ticket:      ticket,
		OcrResults:  bundle,
		RegexReport: report,
		ProcessedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if s.barcode != nil && imagePath != "" {
		if code, err := s.barcode.DecodeFile(imagePath); err == nil {
			response.Barcode = code
			if response.Ticket.NumeroTicket == "" {
				response.Ticket.NumeroTicket = code
			}
		}
	}

	if s.accounting != nil {
		record, err := s.accounting.RecordTicket(response.Ticket)
		if err != nil {
			log.Printf("Ticket persistence failed: %v", err)
		} else {
			response.TicketID = record.ID
		}
	}

	return response, nil
}

// collectText turns the upload into a RawOcrBundle. Images go through the
// three OCR engines; PDFs use their text layer when present, otherwise their
// first embedded page image is OCRed like a photo. Returns the temp image
// path when one was written, for the barcode pass.
func (s *TicketService) collectText(data []byte, filename string) (dto.RawOcrBundle, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	if ext != ".pdf" {
		path, err := s.saveUpload(data, ext)
		if err != nil {
			return dto.RawOcrBundle{}, "", err
		}
		return s.runOCR(path), path, nil
	}

	if s.pdf != nil {
		if text, err := s.pdf.ExtractText(data); err == nil && strings.TrimSpace(text) != "" {
			// Native text layer, no OCR engine ran. The text is reported
			// under the tesseract slot so the rest of the pipeline sees one
			// populated engine.
			return dto.RawOcrBundle{Tesseract: text}, "", nil
		}

		images, err := s.pdf.ExtractImages(data)
		if err == nil && len(images) > 0 {
			var buf bytes.Buffer
			if err := png.Encode(&buf, images[0]); err != nil {
				return dto.RawOcrBundle{}, "", fmt.Errorf("encoding pdf page image: %w", err)
			}
			path, err := s.saveUpload(buf.Bytes(), ".png")
			if err != nil {
				return dto.RawOcrBundle{}, "", err
			}
			return s.runOCR(path), path, nil
		}
	}

	return dto.RawOcrBundle{}, "", fmt.Errorf("pdf has no text layer and no extractable image")
}

func (s *TicketService) saveUpload(data []byte, ext string) (string, error) {
	path := filepath.Join(s.uploadDir, uuid.New().String()+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	return path, nil
}

// runOCR fans the image out to every engine concurrently. An engine failure
// records its error message in the engine's slot instead of aborting.
func (s *TicketService) runOCR(path string) dto.RawOcrBundle {
	var bundle dto.RawOcrBundle
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, engine := range s.ocrEngines {
		wg.Add(1)
		go func(engine OCRClient) {
			defer wg.Done()
			text, err := engine.ExtractText(path)
			if err != nil {
				log.Printf("OCR engine %s failed: %v", engine.Name(), err)
				text = fmt.Sprintf("Erreur OCR %s: %v", engine.Name(), err)
			}

			mu.Lock()
			defer mu.Unlock()
			switch engine.Name() {
			case dto.EngineDoctr:
				bundle.Doctr = text
			case dto.EngineTesseract:
				bundle.Tesseract = text
			case dto.EngineDocling:
				bundle.Docling = text
			}
		}(engine)
	}
	wg.Wait()
	return bundle
}

// extractWithFallback walks the model tiers in order, one attempt each, and
// falls back to the regex-only ticket when every tier fails.
func (s *TicketService) extractWithFallback(ctx context.Context, bundle dto.RawOcrBundle, report dto.RegexReport) dto.ExtractedTicket {
	prompt := fmt.Sprintf(extractionPrompt, fusedText(bundle))

	var failures []string
	for _, tier := range s.llmTiers {
		tierCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
		raw, err := tier.Generate(tierCtx, prompt)
		cancel()
		if err != nil {
			log.Printf("LLM tier %s failed: %v", tier.Name(), err)
			failures = append(failures, fmt.Sprintf("%s: %v", tier.Name(), err))
			continue
		}

		obj, err := s.recoverJSON(raw)
		if err != nil {
			log.Printf("LLM tier %s returned no recoverable JSON", tier.Name())
			failures = append(failures, fmt.Sprintf("%s: réponse JSON invalide", tier.Name()))
			continue
		}

		ticket := ticketFromMap(obj)
		if s.stampNorm != nil {
			s.stampNorm(&ticket)
		}
		ticket = s.reconciler.ReconcileReport(ticket, report)
		if len(failures) > 0 {
			ticket.Commentaire = fmt.Sprintf("Modèle utilisé: %s (échecs: %s)",
				tier.Name(), strings.Join(failures, "; "))
		}
		log.Printf("Extraction succeeded with model %s", tier.Name())
		return ticket
	}

	log.Printf("All LLM tiers failed, regex-only fallback")
	ticket := TicketFromReport(report)
	ticket.Commentaire = fmt.Sprintf("Échec de l'extraction LLM (%s), résultat regex uniquement",
		strings.Join(failures, "; "))
	return ticket
}

// fusedText lays out the three engine texts under labeled sections, the
// shape the extraction prompt expects.
func fusedText(bundle dto.RawOcrBundle) string {
	return fmt.Sprintf("=== TEXTE DOCTR ===\n%s\n\n=== TEXTE TESSERACT ===\n%s\n\n=== TEXTE DOCLING ===\n%s",
		bundle.Doctr, bundle.Tesseract, bundle.Docling)
}

// ticketFromMap builds a ticket from a recovered JSON object. Field lookup
// is forgiving: absent keys and JSON nulls become empty strings, numbers are
// stringified, anything else is dropped.
func ticketFromMap(m map[string]interface{}) dto.ExtractedTicket {
	ticket := dto.ExtractedTicket{
		Magasin:      stringField(m, "Magasin"),
		NumeroTicket: stringField(m, "NumeroTicket"),
		Date:         stringField(m, "Date"),
		Total:        stringField(m, "Total"),
	}

	items, ok := m["Articles"].([]interface{})
	if !ok {
		return ticket
	}
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		article := dto.Article{
			Nom:  stringField(obj, "nom"),
			Prix: stringField(obj, "prix"),
		}
		if article.Nom == "" && article.Prix == "" {
			continue
		}
		ticket.Articles = append(ticket.Articles, article)
	}
	return ticket
}

func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
