package extraction

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the OCR interface using the Tesseract engine. A
// fresh engine client is created per recognition; gosseract clients are
// not safe for concurrent use.
type Tesseract struct {
	language string
}

// NewTesseract creates a Tesseract OCR adapter for the given language
// (e.g. "eng").
func NewTesseract(language string) (*Tesseract, error) {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language}, nil
}

// Recognize extracts text fragments from a PNG image. Receipt photos are
// grayscaled and upscaled before recognition; small phone images OCR badly
// at native resolution.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) ([]Fragment, error) {
	prepared, err := preprocess(image)
	if err != nil {
		return nil, err
	}

	type result struct {
		fragments []Fragment
		err       error
	}
	ch := make(chan result, 1)

	go func() {
		fragments, err := t.recognize(prepared)
		ch <- result{fragments: fragments, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("ocr: %w", ctx.Err())
	case r := <-ch:
		return r.fragments, r.err
	}
}

func (t *Tesseract) recognize(image []byte) ([]Fragment, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("setting ocr language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("loading image into ocr engine: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	fragments := make([]Fragment, 0, len(boxes))
	for _, b := range boxes {
		fragments = append(fragments, Fragment{
			Text:       b.Word,
			Confidence: b.Confidence,
		})
	}
	return fragments, nil
}

// Close releases engine resources (no-op; clients are per-call).
func (t *Tesseract) Close() error {
	return nil
}

// preprocess grayscales the image and upscales small ones before handing
// it to the engine.
func preprocess(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image for ocr: %w", err)
	}

	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < 800 {
		gray = imaging.Resize(gray, 0, 1200, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding preprocessed image: %w", err)
	}
	return buf.Bytes(), nil
}
