package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/membercards/pkg/db"
	"github.com/angelmondragon/membercards/pkg/db/models"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/redis"
)

const cacheScope = "current"

type repository interface {
	Latest(ctx context.Context) (*models.CardSettings, error)
}

type styleCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	StyleKey(scope string) string
}

// Service resolves the current CardStyle, reading through an optional cache.
type Service struct {
	repo  repository
	cache styleCache
	ttl   time.Duration
	logg  *logger.Logger
}

// ServiceParams groups the dependencies for NewService. Cache is optional.
type ServiceParams struct {
	Repo   repository
	Cache  styleCache
	TTL    time.Duration
	Logger *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:  params.Repo,
		cache: params.Cache,
		ttl:   ttl,
		logg:  params.Logger,
	}, nil
}

// Current returns the style to render with. A missing settings row yields the
// defaults; cache failures fall back to the database.
func (s *Service) Current(ctx context.Context) (CardStyle, error) {
	if style, ok := s.fromCache(ctx); ok {
		return style, nil
	}

	row, err := s.repo.Latest(ctx)
	switch {
	case err == nil:
	case db.IsNotFound(err):
		row = nil
	default:
		return CardStyle{}, pkgerrors.Wrap(pkgerrors.CodeLookup, err, "loading card settings")
	}

	style := FromModel(row)
	s.store(ctx, style)
	return style, nil
}

// Invalidate drops the cached style so the next read hits the database.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, s.cache.StyleKey(cacheScope))
}

func (s *Service) fromCache(ctx context.Context) (CardStyle, bool) {
	if s.cache == nil {
		return CardStyle{}, false
	}
	raw, err := s.cache.Get(ctx, s.cache.StyleKey(cacheScope))
	if err != nil {
		if !redis.IsMiss(err) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "settings.cache_read_failed")
		}
		return CardStyle{}, false
	}
	var style CardStyle
	if err := json.Unmarshal([]byte(raw), &style); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "settings.cache_decode_failed")
		return CardStyle{}, false
	}
	return style.WithDefaults(), true
}

func (s *Service) store(ctx context.Context, style CardStyle) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(style)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.StyleKey(cacheScope), string(payload), s.ttl); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "settings.cache_write_failed")
	}
}
