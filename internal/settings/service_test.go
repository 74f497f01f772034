package settings

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/membercards/pkg/db/models"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type countingRepo struct {
	row   *models.CardSettings
	err   error
	calls int
}

func (r *countingRepo) Latest(context.Context) (*models.CardSettings, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if r.row == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return r.row, nil
}

func newRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return redis.Wrap(raw), mr
}

func TestCurrentDefaultsWhenUnset(t *testing.T) {
	repo := &countingRepo{}
	svc, err := NewService(ServiceParams{Repo: repo, Logger: logger.Nop()})
	require.NoError(t, err)

	style, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultStyle(), style)
}

func TestCurrentReadsThroughCache(t *testing.T) {
	title := "CACHED CLUB"
	repo := &countingRepo{row: &models.CardSettings{HeaderTitle: &title}}
	cache, mr := newRedis(t)
	svc, err := NewService(ServiceParams{Repo: repo, Cache: cache, TTL: time.Minute, Logger: logger.Nop()})
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Current(ctx)
	require.NoError(t, err)
	second, err := svc.Current(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "CACHED CLUB", second.HeaderTitle)
	assert.Equal(t, 1, repo.calls)
	assert.True(t, mr.Exists(cache.StyleKey(cacheScope)))
	assert.Equal(t, time.Minute, mr.TTL(cache.StyleKey(cacheScope)))

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestCurrentSurvivesCacheOutage(t *testing.T) {
	repo := &countingRepo{}
	cache, mr := newRedis(t)
	mr.Close()

	svc, err := NewService(ServiceParams{Repo: repo, Cache: cache, Logger: logger.Nop()})
	require.NoError(t, err)

	style, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultStyle(), style)
}

func TestCurrentIgnoresCorruptCacheEntry(t *testing.T) {
	repo := &countingRepo{}
	cache, mr := newRedis(t)
	require.NoError(t, mr.Set(cache.StyleKey(cacheScope), "{not json"))

	svc, err := NewService(ServiceParams{Repo: repo, Cache: cache, Logger: logger.Nop()})
	require.NoError(t, err)

	_, err = svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
}

func TestCurrentDatabaseFailureIsLookupError(t *testing.T) {
	svc, err := NewService(ServiceParams{Repo: &countingRepo{err: errors.New("connection refused")}, Logger: logger.Nop()})
	require.NoError(t, err)

	_, err = svc.Current(context.Background())
	assert.Equal(t, pkgerrors.CodeLookup, pkgerrors.CodeOf(err))
}

func TestRepositoryLatest(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "settings.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.CardSettings{}))
	repo := NewRepository(conn)
	ctx := context.Background()

	_, err = repo.Latest(ctx)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	older, newer := "OLD", "NEW"
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, conn.Create(&models.CardSettings{HeaderTitle: &older, UpdatedAt: base}).Error)
	require.NoError(t, conn.Create(&models.CardSettings{HeaderTitle: &newer, UpdatedAt: base.Add(time.Hour)}).Error)

	row, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NEW", *row.HeaderTitle)
}

func TestNewServiceValidates(t *testing.T) {
	_, err := NewService(ServiceParams{Logger: logger.Nop()})
	assert.Error(t, err)
	_, err = NewService(ServiceParams{Repo: &countingRepo{}})
	assert.Error(t, err)
}

func TestInvalidateWithoutCache(t *testing.T) {
	svc, err := NewService(ServiceParams{Repo: &countingRepo{}, Logger: logger.Nop()})
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background()))
}
