package cards

import (
	"context"
	"io"
	"time"

	"github.com/angelmondragon/membercards/internal/cards/layout"
	"github.com/angelmondragon/membercards/internal/cards/pdf"
	"github.com/angelmondragon/membercards/internal/members"
	"github.com/angelmondragon/membercards/pkg/enums"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/storage"
)

// CombinedResult describes one multi-card document.
type CombinedResult struct {
	Document       storage.Document `json:"document"`
	PlacedCount    int              `json:"placed_count"`
	RequestedCount int              `json:"requested_count"`
	Skipped        []string         `json:"skipped"`
	Failed         []BatchFailure   `json:"failed"`
}

type placeable struct {
	identity members.MemberIdentity
	ops      []layout.Op
}

// GenerateCombined packs every placeable member onto grid pages of a single
// document. Members without a barcode are skipped.
func (s *service) GenerateCombined(ctx context.Context, memberIDs []string) (*CombinedResult, error) {
	start := time.Now()
	result, err := s.generateCombined(ctx, memberIDs)
	if err != nil {
		s.recordFailure(ctx, enums.DocumentKindCombined, err)
		return nil, err
	}
	s.metrics.ObserveDuration(enums.DocumentKindCombined.String(), time.Since(start))
	s.metrics.IncSuccess(enums.DocumentKindCombined.String())
	s.metrics.AddPlaced(result.PlacedCount)
	ctx = s.logg.WithDocument(ctx, enums.DocumentKindCombined.String(), result.Document.FileName)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"placed":    result.PlacedCount,
		"requested": result.RequestedCount,
		"skipped":   len(result.Skipped),
		"failed":    len(result.Failed),
		"pages":     s.grid.Pages(result.PlacedCount),
	}), "combined.complete")
	return result, nil
}

func (s *service) generateCombined(ctx context.Context, memberIDs []string) (*CombinedResult, error) {
	ids, err := s.resolveIDs(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	result := &CombinedResult{
		RequestedCount: len(ids),
		Skipped:        make([]string, 0),
		Failed:         make([]BatchFailure, 0),
	}
	loader := newAssetLoader(s)

	cards := make([]placeable, 0, len(ids))
	for _, id := range ids {
		identity, err := s.members.GetByID(ctx, id)
		if err != nil {
			result.Failed = append(result.Failed, failureFor(id, err))
			continue
		}
		if !identity.HasBarcode() {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		a, err := loader.get(ctx)
		if err != nil {
			result.Failed = append(result.Failed, failureFor(id, err))
			continue
		}
		ops, err := s.cardOps(ctx, *identity, a)
		if err != nil {
			result.Failed = append(result.Failed, failureFor(id, err))
			continue
		}
		cards = append(cards, placeable{identity: *identity, ops: ops})
	}

	if len(cards) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no members with barcode values to place").
			WithDetails(map[string]any{
				"requested": len(ids),
				"skipped":   len(result.Skipped),
				"failed":    len(result.Failed),
			})
	}

	now := s.now()
	doc := pdf.New(s.page.Width, s.page.Height, now)
	currentPage := -1
	for _, p := range s.grid.Place(len(cards)) {
		if p.Page != currentPage {
			doc.AddPage()
			currentPage = p.Page
		}
		doc.DrawCard(cards[p.Index].ops, p.X, p.Y)
	}
	if err := doc.Err(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeEncoding, err, "rendering combined document")
	}

	name := CombinedFileName(len(cards), now)
	saved, err := s.store.Save(ctx, name, storage.ContentTypePDF, func(w io.Writer) error {
		return doc.Write(w)
	})
	if err != nil {
		return nil, saveError(err)
	}

	result.Document = *saved
	result.PlacedCount = len(cards)
	return result, nil
}

// saveError keeps typed store errors and classifies the rest as I/O.
func saveError(err error) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeIO, err, "saving document")
}

func failureFor(id string, err error) BatchFailure {
	return BatchFailure{MemberID: id, Error: pkgerrors.Describe(err), Code: pkgerrors.CodeOf(err)}
}
