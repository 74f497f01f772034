package encoder

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	moduleWidth    = 2
	quietZonePx    = 10 * moduleWidth
	textGapPx      = 4
	textBaselinePx = 11
	textBandPx     = 16
)

// renderCode128 draws the bars at moduleWidth px per module and the
// human-readable value centred underneath.
func renderCode128(value string, barHeight int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	barsWidth := code.Bounds().Dx() * moduleWidth
	bars, err := barcode.Scale(code, barsWidth, barHeight)
	if err != nil {
		return nil, err
	}

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, value).Ceil()
	width := barsWidth + 2*quietZonePx
	if textWidth+2*quietZonePx > width {
		width = textWidth + 2*quietZonePx
	}
	height := barHeight + textGapPx + textBandPx

	canvas := imaging.New(width, height, color.White)
	canvas = imaging.Paste(canvas, bars, image.Pt((width-barsWidth)/2, 0))

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P((width-textWidth)/2, barHeight+textGapPx+textBaselinePx),
	}
	drawer.DrawString(value)

	gray := image.NewGray(canvas.Bounds())
	draw.Draw(gray, gray.Bounds(), canvas, image.Point{}, draw.Src)
	return encodePNG(gray)
}
