// Package overlay draws diagnostic images for coded frames.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/user/gopcodec/pkg/macroblock"
	"github.com/user/gopcodec/pkg/motion"
	"github.com/user/gopcodec/pkg/ports"
)

var (
	gridColor   = color.RGBA{R: 255, G: 255, B: 255, A: 60}
	vectorColor = color.RGBA{R: 255, G: 210, B: 0, A: 255}
	zeroColor   = color.RGBA{R: 90, G: 200, B: 120, A: 255}
)

// MotionField draws the macroblock grid and one arrow per macroblock over
// base. Each arrow starts at the block centre and points to the centre of
// the matched block in the reference frame.
func MotionField(r ports.Renderer, base image.Image, vectors []motion.Vector, blockSize int) (image.Image, error) {
	b := base.Bounds()
	rows, cols := macroblock.GridSize(b.Dx(), b.Dy(), blockSize)
	if len(vectors) != rows*cols {
		return nil, fmt.Errorf("%d vectors for a %dx%d grid", len(vectors), rows, cols)
	}

	canvas := r.CreateCanvas(b.Dx(), b.Dy(), color.Black)
	canvas.DrawImage(base, 0, 0)

	half := blockSize / 2
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x, y := col*blockSize, row*blockSize
			canvas.DrawRectStroke(x, y, blockSize, blockSize, gridColor, 1)

			v := vectors[row*cols+col]
			cx, cy := x+half, y+half
			if v == motion.Zero {
				canvas.DrawCircle(cx, cy, 1, zeroColor)
				continue
			}
			canvas.DrawLine(cx, cy, cx+v.DX, cy+v.DY, vectorColor, 1)
			canvas.DrawCircle(cx+v.DX, cy+v.DY, 1.5, vectorColor)
		}
	}
	return canvas.ToImage(), nil
}
