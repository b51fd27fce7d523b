package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraimines/ticketocr/dto"
	"github.com/kraimines/ticketocr/store"
	"github.com/kraimines/ticketocr/utils"
)

type fakeOCR struct {
	name string
	text string
	err  error
}

func (f *fakeOCR) Name() string { return f.name }

func (f *fakeOCR) ExtractText(path string) (string, error) {
	return f.text, f.err
}

type fakeLLM struct {
	name     string
	response string
	err      error
	called   bool
}

func (f *fakeLLM) Name() string { return f.name }

func (f *fakeLLM) Generate(ctx context.Context, prompt string) (string, error) {
	f.called = true
	return f.response, f.err
}

func newTestService(t *testing.T, engines []OCRClient, tiers []LLMClient) *TicketService {
	t.Helper()

	db, err := store.NewBoltDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc, err := NewTicketService(TicketServiceConfig{
		OCREngines:  engines,
		LLMTiers:    tiers,
		Recover:     utils.RecoverJSON,
		Accounting:  NewAccountingService(db),
		UploadDir:   t.TempDir(),
		StampNorm:   utils.NormalizeFiscalStamp,
		BuildReport: utils.BuildReport,
	})
	require.NoError(t, err)
	return svc
}

func TestAnalyzeFullPipeline(t *testing.T) {
	engines := []OCRClient{
		&fakeOCR{name: dto.EngineDoctr, text: "MONOPRIX LAC 2\n25/01/2025"},
		&fakeOCR{name: dto.EngineTesseract, text: "LAIT 1.200 DT\nTotal: 4.090 DT"},
		&fakeOCR{name: dto.EngineDocling, text: "YAOURT 2.890 DT"},
	}
	llm := &fakeLLM{
		name: "gemini-1.5-flash",
		response: `{"Magasin": "MONOPRIX", "Date": "25/01/2025", "NumeroTicket": "T-42",
			"Articles": [{"nom": "LAIT", "prix": "1.200 DT"}, {"nom": "YAOURT", "prix": "2.890 DT"}],
			"Total": "4.090 DT"}`,
	}

	svc := newTestService(t, engines, []LLMClient{llm})

	resp, err := svc.Analyze(context.Background(), []byte("img"), "ticket.jpg", "llm")
	require.NoError(t, err)

	assert.Equal(t, "MONOPRIX", resp.Ticket.Magasin)
	assert.Equal(t, "T-42", resp.Ticket.NumeroTicket)
	assert.Len(t, resp.Ticket.Articles, 2)
	assert.Equal(t, "4.090 DT", resp.Ticket.Total)
	assert.Empty(t, resp.Ticket.Commentaire)

	// Each engine landed in its own slot.
	assert.Contains(t, resp.OcrResults.Doctr, "MONOPRIX")
	assert.Contains(t, resp.OcrResults.Tesseract, "Total")
	assert.Contains(t, resp.OcrResults.Docling, "YAOURT")

	// Validation is always attached, and the combined text is coherent.
	require.NotNil(t, resp.Ticket.Validation)
	assert.True(t, resp.Ticket.Validation.TotalCoherent)

	assert.NotEmpty(t, resp.TicketID)
}

func TestAnalyzeTierFallback(t *testing.T) {
	engines := []OCRClient{
		&fakeOCR{name: dto.EngineTesseract, text: "PAIN 0.800 DT\nTotal: 0.800 DT"},
	}
	primary := &fakeLLM{name: "gemini-1.5-flash", err: errors.New("deadline exceeded")}
	secondary := &fakeLLM{name: "mistral", response: "I could not read the receipt, sorry."}
	tertiary := &fakeLLM{name: "llama2", response: `{"Magasin": "BOULANGERIE", "Date": null,
		"NumeroTicket": null, "Articles": [{"nom": "PAIN", "prix": "0.800 DT"}], "Total": "0.800 DT"}`}

	svc := newTestService(t, engines, []LLMClient{primary, secondary, tertiary})

	resp, err := svc.Analyze(context.Background(), []byte("img"), "ticket.png", "llm")
	require.NoError(t, err)

	assert.True(t, primary.called)
	assert.True(t, secondary.called)
	assert.True(t, tertiary.called)

	assert.Equal(t, "BOULANGERIE", resp.Ticket.Magasin)
	assert.Contains(t, resp.Ticket.Commentaire, "llama2")
	assert.Contains(t, resp.Ticket.Commentaire, "gemini-1.5-flash")
}

func TestAnalyzeAllTiersFailRegexFallback(t *testing.T) {
	engines := []OCRClient{
		&fakeOCR{name: dto.EngineTesseract, text: "MG LAC\n25/01/2025\nLAIT 1.200 DT\nTotal: 1.200 DT"},
	}
	tiers := []LLMClient{
		&fakeLLM{name: "gemini-1.5-flash", err: errors.New("transport down")},
		&fakeLLM{name: "mistral", response: "no json here"},
	}

	svc := newTestService(t, engines, tiers)

	resp, err := svc.Analyze(context.Background(), []byte("img"), "ticket.jpg", "llm")
	require.NoError(t, err)

	// Regex back-fills what it can; store and number stay empty.
	assert.Empty(t, resp.Ticket.Magasin)
	assert.Empty(t, resp.Ticket.NumeroTicket)
	assert.Equal(t, "25/01/2025", resp.Ticket.Date)
	assert.Equal(t, "1.200 DT", resp.Ticket.Total)
	assert.Len(t, resp.Ticket.Articles, 1)

	assert.Contains(t, resp.Ticket.Commentaire, "Échec de l'extraction LLM")
	assert.Contains(t, resp.Ticket.Commentaire, "mistral")
}

func TestAnalyzeRegexModeSkipsLLM(t *testing.T) {
	engines := []OCRClient{
		&fakeOCR{name: dto.EngineTesseract, text: "25/01/2025\nLAIT 1.200 DT\nTotal: 1.200 DT"},
	}
	llm := &fakeLLM{name: "gemini-1.5-flash", response: `{"Magasin": "X"}`}

	svc := newTestService(t, engines, []LLMClient{llm})

	resp, err := svc.Analyze(context.Background(), []byte("img"), "ticket.jpg", "regex")
	require.NoError(t, err)

	assert.False(t, llm.called)
	assert.Empty(t, resp.Ticket.Magasin)
	assert.Equal(t, "1.200 DT", resp.Ticket.Total)
}

func TestAnalyzeEngineFailureRecordedInSlot(t *testing.T) {
	engines := []OCRClient{
		&fakeOCR{name: dto.EngineDoctr, err: errors.New("connection refused")},
		&fakeOCR{name: dto.EngineTesseract, text: "Total: 2.000 DT"},
	}

	svc := newTestService(t, engines, nil)

	resp, err := svc.Analyze(context.Background(), []byte("img"), "ticket.jpg", "llm")
	require.NoError(t, err)

	assert.Contains(t, resp.OcrResults.Doctr, "Erreur OCR doctr")
	assert.Contains(t, resp.OcrResults.Tesseract, "Total")
	// No tiers configured, so the regex path ran.
	assert.Equal(t, "2.000 DT", resp.Ticket.Total)
}

func TestTicketFromMapTolerantFields(t *testing.T) {
	m := map[string]interface{}{
		"Magasin":      "  MONOPRIX ",
		"NumeroTicket": nil,
		"Date":         "25/01/2025",
		"Total":        4.09,
		"Articles": []interface{}{
			map[string]interface{}{"nom": "LAIT", "prix": "1.200 DT"},
			map[string]interface{}{"nom": "", "prix": ""},
			"not an object",
		},
	}

	ticket := ticketFromMap(m)

	assert.Equal(t, "MONOPRIX", ticket.Magasin)
	assert.Empty(t, ticket.NumeroTicket)
	assert.Equal(t, "4.09", ticket.Total)
	require.Len(t, ticket.Articles, 1)
	assert.Equal(t, "LAIT", ticket.Articles[0].Nom)
}
