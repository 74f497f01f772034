package pdf

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/angelmondragon/membercards/internal/cards/layout"
	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fontFamily is embedded as UTF-8 so card text is not limited to cp1252.
const fontFamily = "GoSans"

// Document executes layout ops onto fpdf pages. It is not safe for concurrent use.
type Document struct {
	pdf    *fpdf.Fpdf
	images map[string]string
}

// New starts an empty document whose pages are width x height points.
func New(width, height float64, created time.Time) *Document {
	f := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: width, Ht: height},
	})
	f.SetMargins(0, 0, 0)
	f.SetCellMargin(0)
	f.SetAutoPageBreak(false, 0)
	f.SetCatalogSort(true)
	f.SetCreator("membercards", true)
	if !created.IsZero() {
		f.SetCreationDate(created)
		f.SetModificationDate(created)
	}
	f.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	f.AddUTF8FontFromBytes(fontFamily, "B", gobold.TTF)
	return &Document{
		pdf:    f,
		images: map[string]string{},
	}
}

// NewCard starts a document whose single page is exactly one card.
func NewCard(created time.Time) *Document {
	return New(layout.CardWidth, layout.CardHeight, created)
}

// AddPage appends a blank page.
func (d *Document) AddPage() {
	d.pdf.AddPage()
}

// PageCount reports how many pages were started.
func (d *Document) PageCount() int {
	return d.pdf.PageCount()
}

// DrawCard runs ops on the current page with the card origin at originX, originY.
func (d *Document) DrawCard(ops []layout.Op, originX, originY float64) {
	for _, op := range ops {
		if d.pdf.Err() {
			return
		}
		switch v := op.(type) {
		case layout.FillRect:
			d.pdf.SetFillColor(int(v.Color.R), int(v.Color.G), int(v.Color.B))
			d.pdf.Rect(originX+v.X, originY+v.Y, v.W, v.H, "F")
		case layout.TextRun:
			style := ""
			if v.Bold {
				style = "B"
			}
			d.pdf.SetFont(fontFamily, style, v.FontSize)
			d.pdf.SetTextColor(int(v.Color.R), int(v.Color.G), int(v.Color.B))
			d.pdf.SetXY(originX+v.X, originY+v.Y)
			d.pdf.CellFormat(v.W, v.H, v.Text, "", 0, string(v.Align)+"M", false, 0, "")
		case layout.ImagePlacement:
			if len(v.PNG) == 0 {
				continue
			}
			name := d.register(v.PNG)
			d.pdf.ImageOptions(name, originX+v.X, originY+v.Y, v.W, v.H, false, pngOptions, 0, "")
		}
	}
}

var pngOptions = fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}

// register embeds each distinct image once, keyed by content hash.
func (d *Document) register(data []byte) string {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:8])
	if name, ok := d.images[key]; ok {
		return name
	}
	name := "img-" + key
	d.pdf.RegisterImageOptionsReader(name, pngOptions, bytes.NewReader(data))
	d.images[key] = name
	return name
}

// Err returns the first drawing error, if any.
func (d *Document) Err() error {
	return d.pdf.Error()
}

// Write serializes the finished document.
func (d *Document) Write(w io.Writer) error {
	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("rendering pdf: %w", err)
	}
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}
