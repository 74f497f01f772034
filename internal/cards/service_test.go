package cards

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/angelmondragon/membercards/internal/cards/encoder"
	"github.com/angelmondragon/membercards/internal/members"
	"github.com/angelmondragon/membercards/internal/settings"
	"github.com/angelmondragon/membercards/pkg/enums"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/angelmondragon/membercards/pkg/storage"
	"github.com/angelmondragon/membercards/pkg/storage/local"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type stubMembers struct {
	mu       sync.Mutex
	byID     map[string]members.MemberIdentity
	failures map[string]error
	order    []string
	lookups  int
}

func newStubMembers() *stubMembers {
	return &stubMembers{byID: map[string]members.MemberIdentity{}, failures: map[string]error{}}
}

func (s *stubMembers) add(name, barcode string) string {
	id := uuid.New()
	s.byID[id.String()] = members.MemberIdentity{
		ID:              id,
		DisplayName:     name,
		Email:           strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		BarcodeValue:    barcode,
		MembershipLevel: enums.MembershipLevelGold,
		Status:          enums.MemberStatusActive,
	}
	s.order = append(s.order, id.String())
	return id.String()
}

func (s *stubMembers) GetByID(_ context.Context, id string) (*members.MemberIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if err, ok := s.failures[id]; ok {
		return nil, err
	}
	m, ok := s.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeLookup, "member not found")
	}
	return &m, nil
}

func (s *stubMembers) GetByBarcode(_ context.Context, barcode string) (*members.MemberIdentity, error) {
	for _, id := range s.order {
		if m := s.byID[id]; m.BarcodeValue == barcode && barcode != "" {
			return &m, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeLookup, "member not found")
}

func (s *stubMembers) ListActiveWithBarcode(context.Context) ([]members.MemberIdentity, error) {
	out := make([]members.MemberIdentity, 0, len(s.order))
	for _, id := range s.order {
		if m := s.byID[id]; m.HasBarcode() {
			out = append(out, m)
		}
	}
	return out, nil
}

type stubStyles struct {
	mu    sync.Mutex
	style settings.CardStyle
	err   error
	calls int
}

func (s *stubStyles) Current(context.Context) (settings.CardStyle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.style, s.err
}

type memStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	failOn string
}

func newMemStore() *memStore {
	return &memStore{docs: map[string][]byte{}}
}

func (m *memStore) Save(_ context.Context, name, _ string, write func(io.Writer) error) (*storage.Document, error) {
	if err := storage.CheckSaveName(name); err != nil {
		return nil, err
	}
	if m.failOn != "" && strings.Contains(name, m.failOn) {
		return nil, fmt.Errorf("disk full")
	}
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[name] = buf.Bytes()
	return &storage.Document{FileName: name, FilePath: "mem://" + name, SizeBytes: int64(buf.Len()), CreatedAt: fixedNow}, nil
}

func (m *memStore) List(context.Context) ([]storage.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.Document, 0, len(m.docs))
	for name, data := range m.docs {
		out = append(out, storage.Document{FileName: name, SizeBytes: int64(len(data)), CreatedAt: fixedNow})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}

func (m *memStore) Open(_ context.Context, name string) (io.ReadCloser, *storage.Document, error) {
	if err := storage.CheckOpenName(name); err != nil {
		return nil, nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[name]
	if !ok {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
	}
	return io.NopCloser(bytes.NewReader(data)), &storage.Document{FileName: name, SizeBytes: int64(len(data))}, nil
}

func (m *memStore) Ping(context.Context) error { return nil }

type fixture struct {
	members *stubMembers
	styles  *stubStyles
	store   storage.Store
	svc     Service
}

type fixtureT interface {
	require.TestingT
	Helper()
}

func newFixture(t fixtureT, store storage.Store, concurrency int) *fixture {
	t.Helper()
	f := &fixture{
		members: newStubMembers(),
		styles:  &stubStyles{style: settings.DefaultStyle()},
		store:   store,
	}
	svc, err := NewService(ServiceParams{
		Members:     f.members,
		Styles:      f.styles,
		Encoder:     encoder.New(encoder.Options{ProfileBaseURL: "https://cards.example.com/members", Now: func() time.Time { return fixedNow }}),
		Store:       store,
		Logos:       NewLogoFetcher(time.Second, logger.Nop()),
		Logger:      logger.Nop(),
		Concurrency: concurrency,
		Now:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.EqualError(t, err, "member lookup required")

	_, err = NewService(ServiceParams{Members: newStubMembers(), Styles: &stubStyles{}, Encoder: encoder.New(encoder.Options{})})
	require.EqualError(t, err, "output store required")
}

func TestGenerateCardWritesNamedDocument(t *testing.T) {
	store, err := local.New(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	f := newFixture(t, store, 1)
	id := f.members.add("Ana María López", "MC-0001")

	card, err := f.svc.GenerateCard(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, card.MemberID)
	require.Equal(t, "Ana_Mar_a_L_pez_MC-0001_card.pdf", card.Document.FileName)
	require.Positive(t, card.Document.SizeBytes)

	rc, doc, err := f.svc.OpenDocument(context.Background(), card.Document.FileName)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	require.Equal(t, card.Document.SizeBytes, doc.SizeBytes)
}

func TestGenerateCardIsIdempotentUnderFixedClock(t *testing.T) {
	store := newMemStore()
	f := newFixture(t, store, 1)
	id := f.members.add("Sam Rivera", "MC-0042")

	first, err := f.svc.GenerateCard(context.Background(), id)
	require.NoError(t, err)
	firstBytes := store.docs[first.Document.FileName]

	second, err := f.svc.GenerateCard(context.Background(), id)
	require.NoError(t, err)

	require.Equal(t, first.Document.FileName, second.Document.FileName)
	require.Equal(t, first.Document.SizeBytes, second.Document.SizeBytes)
	require.Equal(t, firstBytes, store.docs[second.Document.FileName])

	docs, err := f.svc.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestGenerateCardByBarcode(t *testing.T) {
	f := newFixture(t, newMemStore(), 1)
	id := f.members.add("Lee Park", "MC-0100")

	card, err := f.svc.GenerateCardByBarcode(context.Background(), "MC-0100")
	require.NoError(t, err)
	require.Equal(t, id, card.MemberID)

	_, err = f.svc.GenerateCardByBarcode(context.Background(), "MC-9999")
	require.Equal(t, pkgerrors.CodeLookup, pkgerrors.CodeOf(err))
}

func TestGenerateCardWithoutBarcodeIsValidationError(t *testing.T) {
	f := newFixture(t, newMemStore(), 1)
	id := f.members.add("No Code", "")

	_, err := f.svc.GenerateCard(context.Background(), id)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.QRPreview(context.Background(), id)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestPreviewsArePNG(t *testing.T) {
	f := newFixture(t, newMemStore(), 1)
	id := f.members.add("Preview Member", "MC-0777")
	pngMagic := []byte("\x89PNG\r\n\x1a\n")

	qr, err := f.svc.QRPreview(context.Background(), id)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(qr, pngMagic))

	bc, err := f.svc.BarcodePreview(context.Background(), id)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(bc, pngMagic))
}

func TestLogoFailureRendersWithoutLogo(t *testing.T) {
	store := newMemStore()
	f := newFixture(t, store, 1)
	id := f.members.add("Logo Less", "MC-0500")

	plain, err := f.svc.GenerateCard(context.Background(), id)
	require.NoError(t, err)

	f.styles.style.LogoURL = "/does/not/exist/logo.png"
	withBrokenLogo, err := f.svc.GenerateCard(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, plain.Document.SizeBytes, withBrokenLogo.Document.SizeBytes)
}

func TestStyleLookupFailureFailsCard(t *testing.T) {
	f := newFixture(t, newMemStore(), 1)
	id := f.members.add("Style Less", "MC-0600")
	f.styles.err = pkgerrors.New(pkgerrors.CodeLookup, "settings unavailable")

	_, err := f.svc.GenerateCard(context.Background(), id)
	require.Equal(t, pkgerrors.CodeLookup, pkgerrors.CodeOf(err))
}

func TestGenerateBatchIsolatesFailures(t *testing.T) {
	f := newFixture(t, newMemStore(), 1)
	ids := []string{
		f.members.add("First Member", "MC-1"),
		f.members.add("Second Member", "MC-2"),
		f.members.add("Third Member", "MC-3"),
	}
	f.members.failures[ids[1]] = pkgerrors.New(pkgerrors.CodeLookup, "lookup timed out")

	result, err := f.svc.GenerateBatch(context.Background(), ids)
	require.NoError(t, err)
	require.Equal(t, 3, result.RequestedCount)
	require.Equal(t, 2, result.SucceededCount)
	require.Equal(t, 1, result.FailedCount)
	require.Equal(t, ids[1], result.Failed[0].MemberID)
	require.Equal(t, pkgerrors.CodeLookup, result.Failed[0].Code)
	require.Equal(t, ids[0], result.Succeeded[0].MemberID)
	require.Equal(t, ids[2], result.Succeeded[1].MemberID)
	require.Equal(t, 1, f.styles.calls)
}

func TestGenerateBatchContinuesPastStoreFailure(t *testing.T) {
	store := newMemStore()
	store.failOn = "MC-2_"
	f := newFixture(t, store, 1)
	ids := []string{
		f.members.add("First Member", "MC-1"),
		f.members.add("Second Member", "MC-2"),
		f.members.add("Third Member", "MC-3"),
	}

	result, err := f.svc.GenerateBatch(context.Background(), ids)
	require.NoError(t, err)
	require.Equal(t, 2, result.SucceededCount)
	require.Equal(t, 1, result.FailedCount)
	require.Equal(t, ids[1], result.Failed[0].MemberID)
	require.Equal(t, pkgerrors.CodeIO, result.Failed[0].Code)
	require.Equal(t, ids[2], result.Succeeded[1].MemberID)
	require.Len(t, store.docs, 2)
}

func TestGenerateBatchContinuesPastEncodingFailure(t *testing.T) {
	f := newFixture(t, newMemStore(), 1)
	ids := []string{
		f.members.add("First Member", "MC-1"),
		f.members.add("Second Member", "ÄÖ-é"),
		f.members.add("Third Member", "MC-3"),
	}

	result, err := f.svc.GenerateBatch(context.Background(), ids)
	require.NoError(t, err)
	require.Equal(t, 2, result.SucceededCount)
	require.Equal(t, 1, result.FailedCount)
	require.Equal(t, ids[1], result.Failed[0].MemberID)
	require.Equal(t, pkgerrors.CodeEncoding, result.Failed[0].Code)
	require.Equal(t, ids[0], result.Succeeded[0].MemberID)
	require.Equal(t, ids[2], result.Succeeded[1].MemberID)
}

func TestGenerateBatchRejectsExplicitEmptyList(t *testing.T) {
	f := newFixture(t, newMemStore(), 1)

	_, err := f.svc.GenerateBatch(context.Background(), []string{})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestGenerateBatchWithNoQualifyingMembers(t *testing.T) {
	f := newFixture(t, newMemStore(), 1)
	f.members.add("No Barcode", "")

	result, err := f.svc.GenerateBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Zero(t, result.RequestedCount)
	require.Zero(t, result.SucceededCount)
	require.Zero(t, result.FailedCount)
	require.Equal(t, "no qualifying members found", result.Message)
}

func TestGenerateBatchDefaultsToActiveMembers(t *testing.T) {
	f := newFixture(t, newMemStore(), 1)
	f.members.add("One", "MC-A")
	f.members.add("Missing", "")
	f.members.add("Two", "MC-B")

	result, err := f.svc.GenerateBatch(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.RequestedCount)
	require.Equal(t, 2, result.SucceededCount)
}

func TestGenerateBatchConcurrentPreservesOrder(t *testing.T) {
	f := newFixture(t, newMemStore(), 4)
	ids := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		ids = append(ids, f.members.add(fmt.Sprintf("Member %d", i), fmt.Sprintf("MC-%03d", i)))
	}

	result, err := f.svc.GenerateBatch(context.Background(), ids)
	require.NoError(t, err)
	require.Equal(t, 6, result.SucceededCount)
	for i, card := range result.Succeeded {
		require.Equal(t, ids[i], card.MemberID)
	}
	require.Equal(t, 1, f.styles.calls)
}

func TestBatchCountsAlwaysBalance(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := newFixture(rt, newMemStore(), rapid.IntRange(1, 3).Draw(rt, "concurrency"))
		n := rapid.IntRange(1, 6).Draw(rt, "members")
		ids := make([]string, 0, n)
		for i := 0; i < n; i++ {
			barcode := ""
			if rapid.Bool().Draw(rt, fmt.Sprintf("barcode_%d", i)) {
				barcode = fmt.Sprintf("MC-%d", i)
			}
			id := f.members.add(fmt.Sprintf("Member %d", i), barcode)
			if rapid.Bool().Draw(rt, fmt.Sprintf("fail_%d", i)) {
				f.members.failures[id] = pkgerrors.New(pkgerrors.CodeLookup, "down")
			}
			ids = append(ids, id)
		}

		result, err := f.svc.GenerateBatch(context.Background(), ids)
		if err != nil {
			rt.Fatalf("GenerateBatch: %v", err)
		}
		if result.RequestedCount != result.SucceededCount+result.FailedCount {
			rt.Fatalf("requested %d != succeeded %d + failed %d", result.RequestedCount, result.SucceededCount, result.FailedCount)
		}
		if result.SucceededCount != len(result.Succeeded) || result.FailedCount != len(result.Failed) {
			rt.Fatalf("counts disagree with slices: %+v", result)
		}
		seen := map[string]bool{}
		for _, c := range result.Succeeded {
			seen[c.MemberID] = true
		}
		for _, fl := range result.Failed {
			if seen[fl.MemberID] {
				rt.Fatalf("member %s reported twice", fl.MemberID)
			}
			seen[fl.MemberID] = true
		}
		if len(seen) != n {
			rt.Fatalf("expected %d distinct members, got %d", n, len(seen))
		}
	})
}

func TestGenerateCombinedSkipsMembersWithoutBarcode(t *testing.T) {
	store := newMemStore()
	f := newFixture(t, store, 1)
	ids := []string{
		f.members.add("Member One", "MC-1"),
		f.members.add("Member Two", "MC-2"),
		f.members.add("Member Three", ""),
		f.members.add("Member Four", "MC-4"),
		f.members.add("Member Five", "MC-5"),
	}

	result, err := f.svc.GenerateCombined(context.Background(), ids)
	require.NoError(t, err)
	require.Equal(t, 4, result.PlacedCount)
	require.Equal(t, 5, result.RequestedCount)
	require.Equal(t, []string{ids[2]}, result.Skipped)
	require.Empty(t, result.Failed)
	require.Equal(t, "membership_cards_combined_4_2025-03-01T12-00-00-000Z.pdf", result.Document.FileName)
	require.True(t, bytes.HasPrefix(store.docs[result.Document.FileName], []byte("%PDF-")))
}

func TestGenerateCombinedRecordsLookupFailures(t *testing.T) {
	f := newFixture(t, newMemStore(), 1)
	ok := f.members.add("Good Member", "MC-1")
	bad := f.members.add("Bad Member", "MC-2")
	f.members.failures[bad] = pkgerrors.New(pkgerrors.CodeLookup, "lookup failed")

	result, err := f.svc.GenerateCombined(context.Background(), []string{ok, bad})
	require.NoError(t, err)
	require.Equal(t, 1, result.PlacedCount)
	require.Len(t, result.Failed, 1)
	require.Equal(t, bad, result.Failed[0].MemberID)
}

func TestGenerateCombinedWithNothingPlaceable(t *testing.T) {
	f := newFixture(t, newMemStore(), 1)
	id := f.members.add("Nobody", "")

	_, err := f.svc.GenerateCombined(context.Background(), []string{id})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	_, err = f.svc.GenerateCombined(context.Background(), nil)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestOpenUnknownDocumentIsNotFound(t *testing.T) {
	store, err := local.New(t.TempDir(), logger.Nop())
	require.NoError(t, err)
	f := newFixture(t, store, 1)

	_, _, err = f.svc.OpenDocument(context.Background(), "missing_card.pdf")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	_, _, err = f.svc.OpenDocument(context.Background(), "../etc/passwd")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))
}
