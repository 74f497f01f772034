package cards

import (
	"context"
	"fmt"

	"github.com/angelmondragon/membercards/pkg/enums"
	pkgerrors "github.com/angelmondragon/membercards/pkg/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const noQualifyingMembers = "no qualifying members found"

// BatchFailure records why one requested member produced no card.
type BatchFailure struct {
	MemberID string         `json:"member_id"`
	Error    string         `json:"error"`
	Code     pkgerrors.Code `json:"code"`
}

// BatchResult covers every requested member exactly once.
type BatchResult struct {
	Succeeded      []GeneratedCard `json:"succeeded"`
	Failed         []BatchFailure  `json:"failed"`
	RequestedCount int             `json:"requested_count"`
	SucceededCount int             `json:"succeeded_count"`
	FailedCount    int             `json:"failed_count"`
	Message        string          `json:"message,omitempty"`
}

// outcome is the per-member result: either succeeded or failed.
type outcome interface {
	memberID() string
}

type succeeded struct {
	id   string
	card GeneratedCard
}

type failed struct {
	id  string
	err error
}

func (o succeeded) memberID() string { return o.id }
func (o failed) memberID() string    { return o.id }

type accumulator struct {
	succeeded []GeneratedCard
	failed    []BatchFailure
}

func (a *accumulator) add(o outcome) {
	switch v := o.(type) {
	case succeeded:
		a.succeeded = append(a.succeeded, v.card)
	case failed:
		a.failed = append(a.failed, failureFor(v.id, v.err))
	}
}

func (a *accumulator) result(requested int, message string) *BatchResult {
	return &BatchResult{
		Succeeded:      a.succeeded,
		Failed:         a.failed,
		RequestedCount: requested,
		SucceededCount: len(a.succeeded),
		FailedCount:    len(a.failed),
		Message:        message,
	}
}

func newAccumulator(capacity int) *accumulator {
	return &accumulator{
		succeeded: make([]GeneratedCard, 0, capacity),
		failed:    make([]BatchFailure, 0),
	}
}

// GenerateBatch writes one standalone document per member. A nil id list means
// every active member with a barcode; an explicitly empty list is rejected.
func (s *service) GenerateBatch(ctx context.Context, memberIDs []string) (*BatchResult, error) {
	ids, err := s.resolveIDs(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return newAccumulator(0).result(0, noQualifyingMembers), nil
	}

	batchID := uuid.NewString()
	ctx = s.logg.WithBatchID(ctx, batchID)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"requested":   len(ids),
		"concurrency": s.concurrency,
	}), "batch.start")

	loader := newAssetLoader(s)
	outcomes := s.runEach(ctx, ids, func(ctx context.Context, id string) outcome {
		return s.batchMember(ctx, id, loader)
	})

	acc := newAccumulator(len(ids))
	for _, o := range outcomes {
		acc.add(o)
	}
	result := acc.result(len(ids), fmt.Sprintf("generated %d of %d cards", len(acc.succeeded), len(ids)))

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"requested": result.RequestedCount,
		"succeeded": result.SucceededCount,
		"failed":    result.FailedCount,
	}), "batch.complete")
	return result, nil
}

func (s *service) batchMember(ctx context.Context, id string, loader *assetLoader) outcome {
	ctx = s.logg.WithMemberID(ctx, id)
	identity, err := s.members.GetByID(ctx, id)
	if err != nil {
		s.recordFailure(ctx, enums.DocumentKindSingle, err)
		return failed{id: id, err: err}
	}
	card, err := s.generateSingle(ctx, *identity, loader)
	if err != nil {
		return failed{id: id, err: err}
	}
	return succeeded{id: id, card: *card}
}

// runEach applies fn to every id and returns the outcomes in request order.
// With concurrency 1 members run strictly one after another.
func (s *service) runEach(ctx context.Context, ids []string, fn func(context.Context, string) outcome) []outcome {
	out := make([]outcome, len(ids))
	if s.concurrency <= 1 {
		for i, id := range ids {
			out[i] = fn(ctx, id)
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			out[i] = fn(ctx, id)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// resolveIDs expands a nil list to all qualifying members.
func (s *service) resolveIDs(ctx context.Context, memberIDs []string) ([]string, error) {
	if memberIDs != nil {
		if len(memberIDs) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "member_ids must not be empty")
		}
		return memberIDs, nil
	}
	all, err := s.members.ListActiveWithBarcode(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(all))
	for _, m := range all {
		ids = append(ids, m.ID.String())
	}
	return ids, nil
}
