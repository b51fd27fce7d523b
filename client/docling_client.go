package client

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

// DoclingClient wraps the Docling OCR sidecar service. Docling returns
// positioned text items rather than rendered text; this client reassembles
// them into top-to-bottom lines the way the receipt reads.
type DoclingClient struct {
	apiURL     string
	httpClient *http.Client
}

func NewDoclingClient(apiURL string) *DoclingClient {
	if apiURL == "" {
		apiURL = "http://docling:8869/convert"
	}
	return &DoclingClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Name identifies this engine in RawOcrBundle and provenance comments.
func (d *DoclingClient) Name() string {
	return "docling"
}

// ExtractText sends the image at path to the Docling service and rebuilds
// the text from its positioned items, sorted top to bottom.
func (d *DoclingClient) ExtractText(path string) (string, error) {
	imageData, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	payload := map[string]interface{}{
		"image": base64.StdEncoding.EncodeToString(imageData),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := d.httpClient.Post(d.apiURL, "application/json", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to call Docling API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Docling API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Texts []struct {
			Text string  `json:"text"`
			Y    float64 `json:"y"`
		} `json:"texts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode Docling response: %w", err)
	}

	// Page coordinates grow upward: higher y means earlier on the receipt.
	sort.SliceStable(result.Texts, func(i, j int) bool {
		return result.Texts[i].Y > result.Texts[j].Y
	})

	var lines []string
	for _, item := range result.Texts {
		if t := strings.TrimSpace(item.Text); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("Docling extracted no text from image")
	}

	text := strings.Join(lines, "\n")
	log.Printf("Docling extracted %d characters", len(text))
	return text, nil
}
