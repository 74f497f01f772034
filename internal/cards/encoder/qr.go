package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"
)

const quietZoneModules = 2

var twoTone = color.Palette{color.White, color.Black}

// renderQR draws the symbol one pixel per module with a two-module quiet
// zone, then scales to size with nearest-neighbour so modules stay crisp.
func renderQR(content string, size int) ([]byte, error) {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	code.DisableBorder = true
	modules := code.Bitmap()

	side := len(modules) + 2*quietZoneModules
	small := image.NewPaletted(image.Rect(0, 0, side, side), twoTone)
	for y, row := range modules {
		for x, dark := range row {
			if dark {
				small.SetColorIndex(x+quietZoneModules, y+quietZoneModules, 1)
			}
		}
	}

	scaled := imaging.Resize(small, size, size, imaging.NearestNeighbor)
	out := image.NewPaletted(scaled.Bounds(), twoTone)
	draw.Draw(out, out.Bounds(), scaled, image.Point{}, draw.Src)
	return encodePNG(out)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
