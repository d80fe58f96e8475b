// Package frame provides the raw pixel frame type consumed and produced by the codec.
package frame

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Frame is a Width×Height grid of pixels with Channels interleaved samples
// per pixel. Samples are stored row-major: (y*Width+x)*Channels + c.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed frame.
func New(width, height, channels int) Frame {
	if width < 0 || height < 0 || channels < 0 {
		width, height, channels = 0, 0, 0
	}
	return Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}
}

// Solid returns a frame where every pixel has the given channel values.
func Solid(width, height int, value ...uint8) Frame {
	f := New(width, height, len(value))
	for i := 0; i < len(f.Pix); i += len(value) {
		copy(f.Pix[i:], value)
	}
	return f
}

// Offset returns the index of sample (x, y, c) in Pix.
func (f Frame) Offset(x, y, c int) int {
	return (y*f.Width+x)*f.Channels + c
}

// At returns sample c of pixel (x, y).
func (f Frame) At(x, y, c int) uint8 {
	return f.Pix[f.Offset(x, y, c)]
}

// Set stores sample c of pixel (x, y).
func (f Frame) Set(x, y, c int, v uint8) {
	f.Pix[f.Offset(x, y, c)] = v
}

// Validate checks that the sample buffer matches the declared geometry.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("non-positive resolution %dx%d", f.Width, f.Height)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("non-positive channel count %d", f.Channels)
	}
	if len(f.Pix) != f.Width*f.Height*f.Channels {
		return fmt.Errorf("sample buffer has %d samples, want %d", len(f.Pix), f.Width*f.Height*f.Channels)
	}
	return nil
}

// SameGeometry reports whether both frames have equal dimensions and channel count.
func (f Frame) SameGeometry(o Frame) bool {
	return f.Width == o.Width && f.Height == o.Height && f.Channels == o.Channels
}

// Clone returns a deep copy.
func (f Frame) Clone() Frame {
	c := f
	c.Pix = append([]uint8(nil), f.Pix...)
	return c
}

// Equal reports whether both frames have the same geometry and samples.
func (f Frame) Equal(o Frame) bool {
	if !f.SameGeometry(o) || len(f.Pix) != len(o.Pix) {
		return false
	}
	for i := range f.Pix {
		if f.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// MaxAbsDiff returns the largest per-sample absolute difference between
// two frames of the same geometry, or -1 if the geometry differs.
func (f Frame) MaxAbsDiff(o Frame) int {
	if !f.SameGeometry(o) || len(f.Pix) != len(o.Pix) {
		return -1
	}
	max := 0
	for i := range f.Pix {
		d := int(f.Pix[i]) - int(o.Pix[i])
		if d < 0 {
			d = -d
		}
		if d > max {
			max = d
		}
	}
	return max
}

// FromImage converts an image into a frame with 1 (gray) or 3 (RGB) channels.
func FromImage(img image.Image, channels int) (Frame, error) {
	b := img.Bounds()
	switch channels {
	case 1:
		gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
		f := New(b.Dx(), b.Dy(), 1)
		for y := 0; y < f.Height; y++ {
			copy(f.Pix[y*f.Width:(y+1)*f.Width], gray.Pix[y*gray.Stride:])
		}
		return f, nil
	case 3:
		rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
		f := New(b.Dx(), b.Dy(), 3)
		for y := 0; y < f.Height; y++ {
			row := rgba.Pix[y*rgba.Stride:]
			for x := 0; x < f.Width; x++ {
				o := f.Offset(x, y, 0)
				f.Pix[o] = row[x*4]
				f.Pix[o+1] = row[x*4+1]
				f.Pix[o+2] = row[x*4+2]
			}
		}
		return f, nil
	default:
		return Frame{}, fmt.Errorf("unsupported channel count %d for image conversion", channels)
	}
}

// ToImage converts the frame into an image. Single-channel frames become
// *image.Gray, everything else *image.RGBA using the first three channels.
func (f Frame) ToImage() image.Image {
	if f.Channels == 1 {
		gray := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
		for y := 0; y < f.Height; y++ {
			copy(gray.Pix[y*gray.Stride:], f.Pix[y*f.Width:(y+1)*f.Width])
		}
		return gray
	}
	rgba := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			var c [3]uint8
			for i := 0; i < 3 && i < f.Channels; i++ {
				c[i] = f.At(x, y, i)
			}
			if f.Channels == 2 {
				c[2] = c[1]
			}
			rgba.SetRGBA(x, y, color.RGBA{R: c[0], G: c[1], B: c[2], A: 255})
		}
	}
	return rgba
}
