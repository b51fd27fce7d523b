package client

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// BarcodeClient decodes the reference barcode some receipts carry near the
// footer. A decode is purely a bonus: it supplies a ticket-number hint when
// the LLM leaves the field empty, and most photographed receipts simply have
// no readable code.
type BarcodeClient struct{}

func NewBarcodeClient() *BarcodeClient {
	return &BarcodeClient{}
}

// DecodeFile attempts to read a barcode or QR code from the image at path.
// An error means absence, never a fault worth propagating.
func (b *BarcodeClient) DecodeFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	return b.Decode(img)
}

// Decode tries Code128 first (the common receipt footer barcode), then EAN-13,
// then a QR code.
func (b *BarcodeClient) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to create binary bitmap: %w", err)
	}

	readers := []gozxing.Reader{
		oned.NewCode128Reader(),
		oned.NewEAN13Reader(),
		qrcode.NewQRCodeReader(),
	}

	var lastErr error
	for _, reader := range readers {
		result, err := reader.Decode(bmp, nil)
		if err != nil {
			lastErr = err
			continue
		}
		text := strings.TrimSpace(result.GetText())
		if text == "" {
			continue
		}
		log.Printf("Barcode decoded, length: %d bytes", len(text))
		return text, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no barcode reader matched")
	}
	return "", fmt.Errorf("no barcode found: %w", lastErr)
}
