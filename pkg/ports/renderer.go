package ports

import (
	"image"
	"image/color"
	"path/filepath"
	"strings"
)

// Renderer abstracts image coding and drawing.
type Renderer interface {
	// CreateCanvas creates a drawing canvas with the given background color.
	CreateCanvas(width, height int, bg color.Color) Canvas

	// DecodeImage decodes image data into an image.Image.
	DecodeImage(data []byte, format ImageFormat) (image.Image, error)

	// EncodeImage encodes an image to the specified format.
	// Quality applies to JPEG only.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage resizes an image to the specified dimensions.
	ResizeImage(img image.Image, width, height int) image.Image
}

// Canvas provides the drawing operations used for synthetic frames and
// motion field overlays.
type Canvas interface {
	// DrawImage draws an image with its top-left corner at (x, y).
	DrawImage(img image.Image, x, y int)

	// DrawRect draws a filled rectangle.
	DrawRect(x, y, w, h int, c color.Color)

	// DrawRectStroke draws a rectangle outline.
	DrawRectStroke(x, y, w, h int, c color.Color, strokeWidth float64)

	// DrawLine draws a line between two points.
	DrawLine(x1, y1, x2, y2 int, c color.Color, width float64)

	// DrawCircle draws a filled circle.
	DrawCircle(x, y int, radius float64, c color.Color)

	// ToImage returns the canvas as an image.Image.
	ToImage() image.Image
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// FormatFromPath guesses the image format from a file extension.
func FormatFromPath(path string) (ImageFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, true
	case ".jpg", ".jpeg":
		return FormatJPEG, true
	default:
		return 0, false
	}
}
