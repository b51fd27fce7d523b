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
	"time"
)

// DoctrClient wraps the docTR OCR sidecar service. The model runs in its own
// Python process; this client only ships images and collects raw text.
type DoctrClient struct {
	apiURL     string
	httpClient *http.Client
}

func NewDoctrClient(apiURL string) *DoctrClient {
	if apiURL == "" {
		apiURL = "http://doctr:8868/predict"
	}
	return &DoctrClient{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Name identifies this engine in RawOcrBundle and provenance comments.
func (d *DoctrClient) Name() string {
	return "doctr"
}

// ExtractText sends the image at path to the docTR service and returns the
// rendered text.
func (d *DoctrClient) ExtractText(path string) (string, error) {
	imageData, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	payload := map[string]interface{}{
		"images": []string{base64.StdEncoding.EncodeToString(imageData)},
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := d.httpClient.Post(d.apiURL, "application/json", bytes.NewBuffer(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to call docTR API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("docTR API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode docTR response: %w", err)
	}

	if result.Text == "" {
		return "", fmt.Errorf("docTR extracted no text from image")
	}

	log.Printf("docTR extracted %d characters", len(result.Text))
	return result.Text, nil
}
