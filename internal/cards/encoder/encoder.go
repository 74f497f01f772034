package encoder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultQRSize        = 200
	DefaultBarcodeHeight = 60
)

// QRPayload is the structured record embedded in the QR symbol.
type QRPayload struct {
	Barcode     string `json:"barcode"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	ProfileURL  string `json:"profileUrl"`
	GeneratedAt string `json:"generatedAt"`
}

// EncodedIdentity holds the PNG bitmaps for one member. It is never persisted.
type EncodedIdentity struct {
	QR      []byte
	Barcode []byte
	Payload QRPayload
}

type Options struct {
	ProfileBaseURL string
	QRSize         int
	BarcodeHeight  int
	Now            func() time.Time
}

// Encoder turns identity fields into QR and Code-128 bitmaps. It holds no
// mutable state and is safe for concurrent use.
type Encoder struct {
	profileBaseURL string
	qrSize         int
	barHeight      int
	now            func() time.Time
}

func New(opts Options) *Encoder {
	enc := &Encoder{
		profileBaseURL: strings.TrimRight(strings.TrimSpace(opts.ProfileBaseURL), "/"),
		qrSize:         opts.QRSize,
		barHeight:      opts.BarcodeHeight,
		now:            opts.Now,
	}
	if enc.qrSize <= 0 {
		enc.qrSize = DefaultQRSize
	}
	if enc.barHeight <= 0 {
		enc.barHeight = DefaultBarcodeHeight
	}
	if enc.now == nil {
		enc.now = time.Now
	}
	return enc
}

// Payload builds the QR record for a member.
func (e *Encoder) Payload(barcode, name, email string) QRPayload {
	return QRPayload{
		Barcode:     barcode,
		Name:        name,
		Email:       email,
		ProfileURL:  e.profileBaseURL + "/members/" + barcode,
		GeneratedAt: e.now().UTC().Format(time.RFC3339),
	}
}

// Encode produces both bitmaps. The two encodings are independent and run
// concurrently; the first failure is returned.
func (e *Encoder) Encode(ctx context.Context, barcode, name, email string) (*EncodedIdentity, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member has no barcode value")
	}

	payload := e.Payload(barcode, name, email)
	out := &EncodedIdentity{Payload: payload}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		png, err := e.EncodePayload(payload)
		if err != nil {
			return err
		}
		out.QR = png
		return nil
	})
	g.Go(func() error {
		png, err := e.EncodeBarcode(barcode)
		if err != nil {
			return err
		}
		out.Barcode = png
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodePayload renders the JSON payload as a QR PNG.
func (e *Encoder) EncodePayload(payload QRPayload) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeEncoding, err, "marshal qr payload")
	}
	png, err := renderQR(string(raw), e.qrSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeEncoding, err, "qr encoding failed")
	}
	return png, nil
}

// EncodeBarcode renders value as a Code-128 PNG with the text beneath.
func (e *Encoder) EncodeBarcode(value string) ([]byte, error) {
	if strings.TrimSpace(value) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "member has no barcode value")
	}
	png, err := renderCode128(value, e.barHeight)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeEncoding, err, fmt.Sprintf("barcode encoding failed for %q", value))
	}
	return png, nil
}
