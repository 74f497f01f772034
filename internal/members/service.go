package members

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/membercards/pkg/db"
	"github.com/angelmondragon/membercards/pkg/db/models"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/google/uuid"
)

type repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	FindByBarcode(ctx context.Context, barcode string) (*models.Member, error)
	ListActiveWithBarcode(ctx context.Context) ([]models.Member, error)
}

// Service resolves member identities for card generation.
type Service struct {
	repo repository
}

// NewService builds a member lookup over the repository.
func NewService(repo repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	return &Service{repo: repo}, nil
}

// GetByID resolves a member by id string. Malformed ids are lookup failures.
func (s *Service) GetByID(ctx context.Context, id string) (*MemberIdentity, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeLookup, err, "member not found").
			WithDetails(map[string]any{"member_id": id})
	}
	member, err := s.repo.FindByID(ctx, parsed)
	if err != nil {
		return nil, lookupError(err, map[string]any{"member_id": id})
	}
	identity := FromModel(member)
	return &identity, nil
}

// GetByBarcode resolves a member by barcode token.
func (s *Service) GetByBarcode(ctx context.Context, barcode string) (*MemberIdentity, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode value is required")
	}
	member, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, lookupError(err, map[string]any{"barcode": barcode})
	}
	identity := FromModel(member)
	return &identity, nil
}

// ListActiveWithBarcode returns the identities that qualify for "generate all".
func (s *Service) ListActiveWithBarcode(ctx context.Context) ([]MemberIdentity, error) {
	rows, err := s.repo.ListActiveWithBarcode(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing members")
	}
	out := make([]MemberIdentity, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func lookupError(err error, details map[string]any) error {
	if db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeLookup, err, "member not found").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading member").WithDetails(details)
}
