package cards

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/angelmondragon/membercards/internal/cards/layout"
	"github.com/angelmondragon/membercards/internal/cards/pdf"
	"github.com/angelmondragon/membercards/internal/members"
	"github.com/angelmondragon/membercards/internal/settings"
	"github.com/angelmondragon/membercards/pkg/enums"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/storage"
)

// assets is the style plus the fetched logo shared by every card of one request.
type assets struct {
	style settings.CardStyle
	logo  []byte
}

// assetLoader resolves assets once per request. A failed style lookup is not
// cached so later members retry it.
type assetLoader struct {
	svc    *service
	mu     sync.Mutex
	loaded *assets
}

func newAssetLoader(svc *service) *assetLoader {
	return &assetLoader{svc: svc}
}

func (l *assetLoader) get(ctx context.Context) (*assets, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded != nil {
		return l.loaded, nil
	}
	style, err := l.svc.styles.Current(ctx)
	if err != nil {
		return nil, err
	}
	style = style.WithDefaults()
	a := &assets{style: style}
	if style.LogoURL != "" && l.svc.logos != nil {
		a.logo = l.svc.logos.Fetch(ctx, style.LogoURL)
	}
	l.loaded = a
	return a, nil
}

// cardOps encodes the member and lays out one card.
func (s *service) cardOps(ctx context.Context, identity members.MemberIdentity, a *assets) ([]layout.Op, error) {
	encoded, err := s.encoder.Encode(ctx, identity.BarcodeValue, identity.DisplayName, identity.Email)
	if err != nil {
		return nil, err
	}
	ops := layout.CardLayout(layout.CardInput{
		Member:  identity,
		Style:   a.style,
		QR:      encoded.QR,
		Barcode: encoded.Barcode,
		Logo:    a.logo,
	})
	return ops, nil
}

// generateSingle renders a standalone card document and persists it.
func (s *service) generateSingle(ctx context.Context, identity members.MemberIdentity, loader *assetLoader) (*GeneratedCard, error) {
	start := time.Now()
	card, err := s.renderSingle(ctx, identity, loader)
	if err != nil {
		s.recordFailure(ctx, enums.DocumentKindSingle, err)
		return nil, err
	}
	s.metrics.ObserveDuration(enums.DocumentKindSingle.String(), time.Since(start))
	s.metrics.IncSuccess(enums.DocumentKindSingle.String())
	ctx = s.logg.WithDocument(ctx, enums.DocumentKindSingle.String(), card.Document.FileName)
	s.logg.Info(s.logg.WithField(ctx, "size_bytes", card.Document.SizeBytes), "card.generated")
	return card, nil
}

func (s *service) renderSingle(ctx context.Context, identity members.MemberIdentity, loader *assetLoader) (*GeneratedCard, error) {
	if !identity.HasBarcode() {
		return nil, missingBarcode(identity.ID.String())
	}
	a, err := loader.get(ctx)
	if err != nil {
		return nil, err
	}
	ops, err := s.cardOps(ctx, identity, a)
	if err != nil {
		return nil, err
	}

	doc := pdf.NewCard(s.now())
	doc.AddPage()
	doc.DrawCard(ops, 0, 0)
	if err := doc.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeEncoding, err, "rendering card")
	}

	name := SingleFileName(identity.DisplayName, identity.BarcodeValue)
	saved, err := s.store.Save(ctx, name, storage.ContentTypePDF, func(w io.Writer) error {
		return doc.Write(w)
	})
	if err != nil {
		return nil, saveError(err)
	}
	return &GeneratedCard{
		MemberID:     identity.ID.String(),
		DisplayName:  identity.DisplayName,
		BarcodeValue: identity.BarcodeValue,
		Document:     *saved,
	}, nil
}
