package client

import (
	"fmt"
	"log"

	"github.com/otiai10/gosseract/v2"
)

// TesseractClient runs the in-process Tesseract OCR engine over receipt
// images. Receipts are mostly French with occasional English tokens, so both
// languages are loaded.
type TesseractClient struct {
	dataPath  string
	languages string
}

func NewTesseractClient(dataPath string) *TesseractClient {
	return &TesseractClient{
		dataPath:  dataPath,
		languages: "fra+eng",
	}
}

// Name identifies this engine in RawOcrBundle and provenance comments.
func (tc *TesseractClient) Name() string {
	return "tesseract"
}

// ExtractText runs Tesseract over the image at path and returns the raw text.
func (tc *TesseractClient) ExtractText(path string) (string, error) {
	c := gosseract.NewClient()
	defer c.Close()

	if tc.dataPath != "" {
		c.SetTessdataPrefix(tc.dataPath)
	}
	if err := c.SetLanguage(tc.languages); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := c.SetImage(path); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}
	return text, nil
}

// Close performs cleanup
func (tc *TesseractClient) Close() {
	log.Println("Tesseract client closed")
}
