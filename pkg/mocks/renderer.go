package mocks

import (
	"image"
	"image/color"

	"github.com/user/gopcodec/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	DecodeImageFunc func(data []byte, format ports.ImageFormat) (image.Image, error)
	EncodeImageFunc func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)

	// Canvases holds every canvas created, in order.
	Canvases []*Canvas
}

var _ ports.Renderer = (*Renderer)(nil)

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	c := &Canvas{width: width, height: height, Background: bg}
	m.Canvases = append(m.Canvases, c)
	return c
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data, format)
	}
	return image.NewRGBA(image.Rect(0, 0, 16, 16)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{byte(format)}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Canvas records drawing calls.
type Canvas struct {
	width      int
	height     int
	Background color.Color

	Rects   int
	Strokes int
	Lines   int
	Circles int
	Images  int
}

var _ ports.Canvas = (*Canvas)(nil)

func (m *Canvas) DrawImage(img image.Image, x, y int)                              { m.Images++ }
func (m *Canvas) DrawRect(x, y, w, h int, c color.Color)                           { m.Rects++ }
func (m *Canvas) DrawRectStroke(x, y, w, h int, c color.Color, strokeWidth float64) { m.Strokes++ }
func (m *Canvas) DrawLine(x1, y1, x2, y2 int, c color.Color, width float64)        { m.Lines++ }
func (m *Canvas) DrawCircle(x, y int, radius float64, c color.Color)               { m.Circles++ }

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.width, m.height))
}
