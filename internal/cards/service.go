package cards

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/angelmondragon/membercards/internal/cards/encoder"
	"github.com/angelmondragon/membercards/internal/cards/layout"
	"github.com/angelmondragon/membercards/internal/members"
	"github.com/angelmondragon/membercards/internal/settings"
	"github.com/angelmondragon/membercards/pkg/enums"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/metrics"
	"github.com/angelmondragon/membercards/pkg/storage"
)

type memberLookup interface {
	GetByID(ctx context.Context, id string) (*members.MemberIdentity, error)
	GetByBarcode(ctx context.Context, barcode string) (*members.MemberIdentity, error)
	ListActiveWithBarcode(ctx context.Context) ([]members.MemberIdentity, error)
}

type styleProvider interface {
	Current(ctx context.Context) (settings.CardStyle, error)
}

// Service generates membership card documents.
type Service interface {
	GenerateCard(ctx context.Context, memberID string) (*GeneratedCard, error)
	GenerateCardByBarcode(ctx context.Context, barcode string) (*GeneratedCard, error)
	GenerateBatch(ctx context.Context, memberIDs []string) (*BatchResult, error)
	GenerateCombined(ctx context.Context, memberIDs []string) (*CombinedResult, error)
	QRPreview(ctx context.Context, memberID string) ([]byte, error)
	BarcodePreview(ctx context.Context, memberID string) ([]byte, error)
	ListDocuments(ctx context.Context) ([]storage.Document, error)
	OpenDocument(ctx context.Context, fileName string) (io.ReadCloser, *storage.Document, error)
}

// GeneratedCard is the outcome of one successful single-card generation.
type GeneratedCard struct {
	MemberID     string           `json:"member_id"`
	DisplayName  string           `json:"display_name"`
	BarcodeValue string           `json:"barcode_value"`
	Document     storage.Document `json:"document"`
}

// ServiceParams groups the collaborators for NewService.
type ServiceParams struct {
	Members     memberLookup
	Styles      styleProvider
	Encoder     *encoder.Encoder
	Store       storage.Store
	Logos       LogoSource
	Metrics     *metrics.CardMetrics
	Logger      *logger.Logger
	Page        layout.Page
	Concurrency int
	Now         func() time.Time
}

type service struct {
	members     memberLookup
	styles      styleProvider
	encoder     *encoder.Encoder
	store       storage.Store
	logos       LogoSource
	metrics     *metrics.CardMetrics
	logg        *logger.Logger
	grid        layout.Grid
	page        layout.Page
	concurrency int
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Members == nil {
		return nil, fmt.Errorf("member lookup required")
	}
	if params.Styles == nil {
		return nil, fmt.Errorf("style provider required")
	}
	if params.Encoder == nil {
		return nil, fmt.Errorf("encoder required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("output store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	page := params.Page
	if page.Width <= 0 || page.Height <= 0 {
		page = layout.A4Portrait
	}
	concurrency := params.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		members:     params.Members,
		styles:      params.Styles,
		encoder:     params.Encoder,
		store:       params.Store,
		logos:       params.Logos,
		metrics:     params.Metrics,
		logg:        params.Logger,
		grid:        layout.ComputeGrid(page, layout.CardWidth, layout.CardHeight),
		page:        page,
		concurrency: concurrency,
		now:         now,
	}, nil
}

func (s *service) GenerateCard(ctx context.Context, memberID string) (*GeneratedCard, error) {
	ctx = s.logg.WithMemberID(ctx, memberID)
	identity, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		s.recordFailure(ctx, enums.DocumentKindSingle, err)
		return nil, err
	}
	return s.generateSingle(ctx, *identity, newAssetLoader(s))
}

func (s *service) GenerateCardByBarcode(ctx context.Context, barcode string) (*GeneratedCard, error) {
	identity, err := s.members.GetByBarcode(ctx, barcode)
	if err != nil {
		s.recordFailure(ctx, enums.DocumentKindSingle, err)
		return nil, err
	}
	ctx = s.logg.WithMemberID(ctx, identity.ID.String())
	return s.generateSingle(ctx, *identity, newAssetLoader(s))
}

func (s *service) QRPreview(ctx context.Context, memberID string) ([]byte, error) {
	identity, err := s.previewIdentity(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return s.encoder.EncodePayload(s.encoder.Payload(identity.BarcodeValue, identity.DisplayName, identity.Email))
}

func (s *service) BarcodePreview(ctx context.Context, memberID string) ([]byte, error) {
	identity, err := s.previewIdentity(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return s.encoder.EncodeBarcode(identity.BarcodeValue)
}

func (s *service) previewIdentity(ctx context.Context, memberID string) (*members.MemberIdentity, error) {
	identity, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !identity.HasBarcode() {
		return nil, missingBarcode(memberID)
	}
	return identity, nil
}

func (s *service) ListDocuments(ctx context.Context) ([]storage.Document, error) {
	return s.store.List(ctx)
}

func (s *service) OpenDocument(ctx context.Context, fileName string) (io.ReadCloser, *storage.Document, error) {
	return s.store.Open(ctx, fileName)
}

func missingBarcode(memberID string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "member has no barcode value").
		WithDetails(map[string]any{"member_id": memberID})
}

func (s *service) recordFailure(ctx context.Context, kind enums.DocumentKind, err error) {
	code := pkgerrors.CodeOf(err)
	s.metrics.IncFailure(kind.String(), string(code))
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"kind":  kind.String(),
		"code":  string(code),
		"error": pkgerrors.Describe(err),
	}), "card.failed")
}
