package services

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/VitalPointAI/argus-sub001/internal/data/repos/testutil"
	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"github.com/VitalPointAI/argus-sub001/internal/domain/reperr"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

type seededRating struct {
	user   *types.User
	rating int
}

func TestSubmitRatingIdempotentResubmission(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: st.tx}

	user := testutil.SeedUser(t, ctx, st.tx, "analyst-idem")
	source := testutil.SeedSource(t, ctx, st.tx, "wire-idem")

	first, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: source.ID, UserID: user.ID, Rating: 4})
	if err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}
	if first.IsUpdate {
		t.Fatalf("first submission marked as update")
	}
	if !almostEqual(first.Weight, 1.0) {
		t.Fatalf("first weight: want=1.0 got=%v", first.Weight)
	}

	second, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: source.ID, UserID: user.ID, Rating: 2, Comment: "revised after corrections"})
	if err != nil {
		t.Fatalf("SubmitRating resubmit: %v", err)
	}
	if !second.IsUpdate {
		t.Fatalf("resubmission not marked as update")
	}
	if second.RatingID != first.RatingID {
		t.Fatalf("resubmission created a new row: %s vs %s", second.RatingID, first.RatingID)
	}
	if second.Remaining != first.Remaining {
		t.Fatalf("resubmission consumed quota: first=%d second=%d", first.Remaining, second.Remaining)
	}

	rows, err := st.ratings.ListBySource(dbc, source.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("stored rows: want=1 got=%d", len(rows))
	}
	if rows[0].Rating != 2 || rows[0].Comment != "revised after corrections" {
		t.Fatalf("row not updated in place: %+v", rows[0])
	}

	used, err := st.limiter.CountForDay(dbc, user.ID, todayKey())
	if err != nil {
		t.Fatalf("CountForDay: %v", err)
	}
	if used != 1 {
		t.Fatalf("rate limit units consumed: want=1 got=%d", used)
	}

	u, err := st.users.GetByID(dbc, user.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.TotalRatingsGiven != 1 {
		t.Fatalf("total_ratings_given: want=1 got=%d", u.TotalRatingsGiven)
	}
}

func TestSubmitRatingRateLimitBoundary(t *testing.T) {
	st := newTestStack(t, withDailyLimit(5))
	ctx := context.Background()

	user := testutil.SeedUser(t, ctx, st.tx, "analyst-limit")
	sources := make([]uuid.UUID, 0, 6)
	for i := 0; i < 6; i++ {
		s := testutil.SeedSource(t, ctx, st.tx, fmt.Sprintf("wire-limit-%d", i))
		sources = append(sources, s.ID)
	}

	for i := 0; i < 5; i++ {
		res, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: sources[i], UserID: user.ID, Rating: 3})
		if err != nil {
			t.Fatalf("submission %d: %v", i+1, err)
		}
		if want := 5 - (i + 1); res.Remaining != want {
			t.Fatalf("submission %d remaining: want=%d got=%d", i+1, want, res.Remaining)
		}
	}

	_, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: sources[5], UserID: user.ID, Rating: 3})
	if !reperr.IsCode(err, reperr.CodeRateLimited) {
		t.Fatalf("over-limit submission: want rate_limit_exceeded, got %v", err)
	}

	// An update to an already-rated source still goes through at the cap.
	res, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: sources[0], UserID: user.ID, Rating: 5})
	if err != nil {
		t.Fatalf("resubmission at the cap: %v", err)
	}
	if !res.IsUpdate {
		t.Fatalf("resubmission at the cap not marked as update")
	}
}

func TestSubmitRatingRejectsBadInput(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, ctx, st.tx, "analyst-validate")
	source := testutil.SeedSource(t, ctx, st.tx, "wire-validate")

	for _, bad := range []int{0, -1, 6, 42} {
		_, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: source.ID, UserID: user.ID, Rating: bad})
		if !reperr.IsCode(err, reperr.CodeInvalidRating) {
			t.Fatalf("rating %d: want invalid_rating, got %v", bad, err)
		}
	}

	_, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: source.ID, UserID: uuid.New(), Rating: 3})
	if !reperr.IsCode(err, reperr.CodeNotFound) {
		t.Fatalf("unknown user: want not_found, got %v", err)
	}
	_, err = st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: uuid.New(), UserID: user.ID, Rating: 3})
	if !reperr.IsCode(err, reperr.CodeNotFound) {
		t.Fatalf("unknown source: want not_found, got %v", err)
	}
	_, err = st.rating.SubmitRating(ctx, SubmitRatingInput{UserID: user.ID, Rating: 3})
	if !reperr.IsCode(err, reperr.CodeValidation) {
		t.Fatalf("missing source id: want validation, got %v", err)
	}

	// Nothing was written along any of the rejected paths.
	rows, err := st.ratings.ListBySource(dbctx.Context{Ctx: ctx, Tx: st.tx}, source.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListBySource: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rejected submissions left %d rows", len(rows))
	}
}

func TestSubmitRatingSnapshotsCurrentTrust(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: st.tx}

	rater := testutil.SeedUser(t, ctx, st.tx, "analyst-snapshot")
	bystander := testutil.SeedUser(t, ctx, st.tx, "analyst-bystander")
	source := testutil.SeedSource(t, ctx, st.tx, "wire-snapshot")

	if _, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: source.ID, UserID: bystander.ID, Rating: 3}); err != nil {
		t.Fatalf("bystander submission: %v", err)
	}
	first, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: source.ID, UserID: rater.ID, Rating: 4})
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if !almostEqual(first.Weight, 1.0) {
		t.Fatalf("first weight: want=1.0 got=%v", first.Weight)
	}

	if err := st.users.UpdateTrustScore(dbc, rater.ID, 2.5); err != nil {
		t.Fatalf("UpdateTrustScore: %v", err)
	}
	second, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: source.ID, UserID: rater.ID, Rating: 4})
	if err != nil {
		t.Fatalf("resubmission: %v", err)
	}
	if !almostEqual(second.Weight, 2.5) {
		t.Fatalf("resubmitted weight: want=2.5 got=%v", second.Weight)
	}

	// Only the touched row re-snapshots; the bystander's stays as written.
	other, err := st.ratings.GetBySourceAndUser(dbc, source.ID, bystander.ID)
	if err != nil {
		t.Fatalf("GetBySourceAndUser: %v", err)
	}
	if !almostEqual(other.Weight, 1.0) {
		t.Fatalf("bystander weight drifted: got=%v", other.Weight)
	}
}

func TestGetRatings(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()

	source := testutil.SeedSource(t, ctx, st.tx, "wire-page")
	// Third rater is heavier so the weighted average separates from the mean.
	raters := []seededRating{
		{user: testutil.SeedUser(t, ctx, st.tx, "analyst-page-0"), rating: 4},
		{user: testutil.SeedUser(t, ctx, st.tx, "analyst-page-1"), rating: 4},
		{user: testutil.SeedUserWithTrust(t, ctx, st.tx, "analyst-page-heavy", 2.0, 4, 4), rating: 5},
	}
	for i, r := range raters {
		if _, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: source.ID, UserID: r.user.ID, Rating: r.rating}); err != nil {
			t.Fatalf("submission %d: %v", i, err)
		}
	}

	page, err := st.rating.GetRatings(ctx, source.ID, 2, 0)
	if err != nil {
		t.Fatalf("GetRatings: %v", err)
	}
	if len(page.Ratings) != 2 {
		t.Fatalf("page size: want=2 got=%d", len(page.Ratings))
	}
	if page.Stats.TotalRatings != 3 {
		t.Fatalf("total ratings: want=3 got=%d", page.Stats.TotalRatings)
	}
	if !almostEqual(page.Stats.AverageRating, 13.0/3.0) {
		t.Fatalf("average: want=%v got=%v", 13.0/3.0, page.Stats.AverageRating)
	}
	// (4*1 + 4*1 + 5*2) / (1 + 1 + 2)
	if !almostEqual(page.Stats.WeightedAverage, 4.5) {
		t.Fatalf("weighted average: want=4.5 got=%v", page.Stats.WeightedAverage)
	}
	if page.Stats.Distribution[4] != 2 || page.Stats.Distribution[5] != 1 || page.Stats.Distribution[1] != 0 {
		t.Fatalf("distribution: %+v", page.Stats.Distribution)
	}

	rest, err := st.rating.GetRatings(ctx, source.ID, 10, 2)
	if err != nil {
		t.Fatalf("GetRatings offset: %v", err)
	}
	if len(rest.Ratings) != 1 {
		t.Fatalf("offset page size: want=1 got=%d", len(rest.Ratings))
	}

	if _, err := st.rating.GetRatings(ctx, uuid.New(), 10, 0); !reperr.IsCode(err, reperr.CodeNotFound) {
		t.Fatalf("unknown source: want not_found, got %v", err)
	}
}
