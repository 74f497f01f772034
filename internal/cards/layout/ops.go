package layout

import "github.com/angelmondragon/membercards/internal/settings"

// Op is one drawing primitive in card coordinates. The set is closed: FillRect,
// TextRun and ImagePlacement.
type Op interface {
	isOp()
}

type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
)

type FillRect struct {
	X, Y, W, H float64
	Color      settings.RGB
}

// TextRun is a single line of text set inside the box at X,Y with width W and height H.
type TextRun struct {
	X, Y, W, H float64
	Text       string
	FontSize   float64
	Bold       bool
	Color      settings.RGB
	Align      Align
}

// ImagePlacement scales a PNG into the box at X,Y.
type ImagePlacement struct {
	X, Y, W, H float64
	PNG        []byte
}

func (FillRect) isOp()       {}
func (TextRun) isOp()        {}
func (ImagePlacement) isOp() {}

// Translate shifts every op by dx,dy. The input slice is not modified.
func Translate(ops []Op, dx, dy float64) []Op {
	out := make([]Op, 0, len(ops))
	for _, op := range ops {
		switch v := op.(type) {
		case FillRect:
			v.X += dx
			v.Y += dy
			out = append(out, v)
		case TextRun:
			v.X += dx
			v.Y += dy
			out = append(out, v)
		case ImagePlacement:
			v.X += dx
			v.Y += dy
			out = append(out, v)
		}
	}
	return out
}
