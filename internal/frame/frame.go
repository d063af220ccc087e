// Package frame holds screenshots in the two forms the pipeline needs: a
// grayscale Mat for matching and edge detection, and the decoded color
// image for annotation.
package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"jumpbot/pkg/geometry"

	"gocv.io/x/gocv"
	_ "golang.org/x/image/tiff"
)

// Frame is one captured screenshot. Gray is read-only for every consumer;
// stages that need to modify pixels work on their own copy.
type Frame struct {
	Gray gocv.Mat    // 8-bit single channel
	RGB  image.Image // Decoded color image, for annotation and display
	Path string      // Source file, empty for live captures
}

// Decode builds a Frame from an encoded image (PNG from screencap, or any
// format registered with image.Decode).
func Decode(data []byte) (*Frame, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img)
}

// Load reads a screenshot from disk.
func Load(path string) (*Frame, error) {
	if !IsSupportedFormat(path) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// FromImage converts a decoded image. The grayscale conversion uses the
// same luma weights as OpenCV's RGB2GRAY.
func FromImage(img image.Image) (*Frame, error) {
	gray, err := GrayMat(img)
	if err != nil {
		return nil, err
	}
	return &Frame{Gray: gray, RGB: img}, nil
}

// FromGray wraps an existing grayscale Mat. The Frame takes ownership.
func FromGray(gray gocv.Mat) (*Frame, error) {
	if gray.Empty() {
		return nil, fmt.Errorf("empty image")
	}
	if gray.Channels() != 1 {
		return nil, fmt.Errorf("expected 1 channel, got %d", gray.Channels())
	}
	rgb, err := gray.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert mat: %w", err)
	}
	return &Frame{Gray: gray, RGB: rgb}, nil
}

// GrayMat converts an image to an 8-bit single channel Mat.
func GrayMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return gocv.Mat{}, fmt.Errorf("empty image")
	}

	gray, ok := img.(*image.Gray)
	if !ok || gray.Stride != w || bounds.Min != (image.Point{}) {
		gray = image.NewGray(image.Rect(0, 0, w, h))
		draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	}

	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, gray.Pix)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer mat.Close()

	// NewMatFromBytes aliases the Go slice; Clone gives OpenCV its own buffer.
	return mat.Clone(), nil
}

// Resolution returns the frame size.
func (f *Frame) Resolution() geometry.Resolution {
	return geometry.Resolution{Width: f.Gray.Cols(), Height: f.Gray.Rows()}
}

// RGBA returns a mutable copy of the color image for drawing.
func (f *Frame) RGBA() *image.RGBA {
	b := f.RGB.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), f.RGB, b.Min, draw.Src)
	return dst
}

// PixelAt returns the gray value at (x, y), or 0 outside the frame.
func (f *Frame) PixelAt(x, y int) color.Gray {
	if x < 0 || y < 0 || x >= f.Gray.Cols() || y >= f.Gray.Rows() {
		return color.Gray{}
	}
	return color.Gray{Y: f.Gray.GetUCharAt(y, x)}
}

// Close releases the native Mat.
func (f *Frame) Close() error {
	return f.Gray.Close()
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".tiff", ".tif"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
