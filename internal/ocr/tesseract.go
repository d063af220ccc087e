// Package ocr reads the score readout at the top of the game screen.
package ocr

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
	"sync"

	"jumpbot/internal/logging"
	"jumpbot/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

var ocrLog zerolog.Logger = logging.Module("ocr")

// DigitChars restricts recognition to the score glyphs.
const DigitChars = "0123456789"

// ErrNoScore means the band held no readable number.
var ErrNoScore = errors.New("no score in readout")

// Engine provides OCR using Tesseract. It is safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewEngine creates a new OCR engine.
func NewEngine() (*Engine, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage("eng"); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// The readout is a bare number; dictionaries only hurt.
	_ = client.SetVariable("load_system_dawg", "false")
	_ = client.SetVariable("load_freq_dawg", "false")

	return &Engine{client: client}, nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		err := e.client.Close()
		e.client = nil
		return err
	}
	return nil
}

// ScoreBand returns the screen region holding the score: the upper-left
// area below the status bar.
func ScoreBand(res geometry.Resolution) geometry.RectInt {
	return geometry.RectFromCorners(
		res.Width*3/100, res.Height*6/100,
		res.Width/2, res.Height*17/100,
	).Clamp(res.Width, res.Height)
}

// ReadScore recognizes the score in a grayscale frame.
func (e *Engine) ReadScore(gray gocv.Mat) (int, error) {
	res := geometry.Resolution{Width: gray.Cols(), Height: gray.Rows()}
	text, err := e.RecognizeRegion(gray, ScoreBand(res))
	if err != nil {
		return 0, err
	}
	score, err := ParseScore(text)
	if err != nil {
		ocrLog.Debug().Str("text", text).Msg("Unreadable score")
		return 0, err
	}
	return score, nil
}

// ParseScore extracts the first run of digits from text.
func ParseScore(text string) (int, error) {
	start := strings.IndexAny(text, DigitChars)
	if start < 0 {
		return 0, ErrNoScore
	}
	end := start
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(text[start:end])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNoScore, err)
	}
	return n, nil
}

// RecognizeRegion performs OCR on a region of a grayscale image.
func (e *Engine) RecognizeRegion(img gocv.Mat, bounds geometry.RectInt) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("empty image")
	}

	bounds = bounds.Clamp(img.Cols(), img.Rows())
	if bounds.Empty() {
		return "", fmt.Errorf("invalid region bounds")
	}

	region := img.Region(bounds.Image())
	defer region.Close()

	processed := preprocessForOCR(region)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return "", fmt.Errorf("engine closed")
	}

	// PSM 7 = treat the image as a single text line
	if err := e.client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set PSM: %w", err)
	}
	if err := e.client.SetWhitelist(DigitChars); err != nil {
		return "", fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.Join(strings.Fields(text), " "), nil
}

// preprocessForOCR upscales a grayscale region and binarizes it to dark
// glyphs on a light background.
func preprocessForOCR(region gocv.Mat) gocv.Mat {
	h, w := region.Rows(), region.Cols()

	var scaled gocv.Mat
	if minDim := min(h, w); minDim < 150 {
		scale := 150.0 / float64(minDim)
		scaled = gocv.NewMat()
		gocv.Resize(region, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
	} else {
		scaled = region.Clone()
	}

	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{8, 8})
	defer clahe.Close()

	enhanced := gocv.NewMat()
	clahe.Apply(scaled, &enhanced)
	scaled.Close()

	binary := gocv.NewMat()
	gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	enhanced.Close()

	// Tesseract expects dark text on light; the readout may be either.
	if whiteRatio := float64(gocv.CountNonZero(binary)) / float64(binary.Rows()*binary.Cols()); whiteRatio < 0.5 {
		gocv.BitwiseNot(binary, &binary)
	}
	return binary
}
