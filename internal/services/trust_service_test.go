package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	redisclient "github.com/VitalPointAI/argus-sub001/internal/clients/redis"
	"github.com/VitalPointAI/argus-sub001/internal/data/repos/testutil"
	"github.com/VitalPointAI/argus-sub001/internal/domain/reperr"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
)

func TestRecordRatingOutcome(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: st.tx}

	alice := testutil.SeedUser(t, ctx, st.tx, "analyst-outcome-alice")
	for i, name := range []string{"wire-outcome-a", "wire-outcome-b"} {
		src := testutil.SeedSource(t, ctx, st.tx, name)
		if _, err := st.rating.SubmitRating(ctx, SubmitRatingInput{SourceID: src.ID, UserID: alice.ID, Rating: 4}); err != nil {
			t.Fatalf("submission %d: %v", i, err)
		}
	}

	update, err := st.trust.RecordRatingOutcome(ctx, alice.ID, true)
	if err != nil {
		t.Fatalf("RecordRatingOutcome accurate: %v", err)
	}
	if !update.Applied {
		t.Fatalf("first adjudication did not move trust: %+v", update)
	}
	// 0.1 + 2.9 * (1/2)
	if !almostEqual(update.OldTrust, 1.0) || !almostEqual(update.NewTrust, 1.55) {
		t.Fatalf("trust after one accurate of two: %+v", update)
	}
	if update.AccurateRatings != 1 || update.TotalRatings != 2 {
		t.Fatalf("counters: %+v", update)
	}

	// An inaccurate outcome leaves the counters where the math already is.
	update, err = st.trust.RecordRatingOutcome(ctx, alice.ID, false)
	if err != nil {
		t.Fatalf("RecordRatingOutcome inaccurate: %v", err)
	}
	if update.Applied {
		t.Fatalf("unchanged trust reported as applied: %+v", update)
	}
	if !almostEqual(update.NewTrust, 1.55) {
		t.Fatalf("trust after inaccurate outcome: %+v", update)
	}

	update, err = st.trust.RecordRatingOutcome(ctx, alice.ID, true)
	if err != nil {
		t.Fatalf("RecordRatingOutcome second accurate: %v", err)
	}
	if !update.Applied || !almostEqual(update.NewTrust, 3.0) {
		t.Fatalf("trust at full accuracy: %+v", update)
	}

	stored, err := st.users.GetByID(dbc, alice.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !almostEqual(stored.TrustScore, 3.0) || stored.AccurateRatings != 2 {
		t.Fatalf("stored analyst: trust=%v accurate=%d", stored.TrustScore, stored.AccurateRatings)
	}

	if got := st.bus.countEvent(redisclient.EventTrustUpdated); got != 2 {
		t.Fatalf("trust events published: want=2 got=%d", got)
	}

	if _, err := st.trust.RecordRatingOutcome(ctx, uuid.New(), true); !reperr.IsCode(err, reperr.CodeNotFound) {
		t.Fatalf("unknown user: want not_found, got %v", err)
	}
	if _, err := st.trust.RecordRatingOutcome(ctx, uuid.Nil, true); !reperr.IsCode(err, reperr.CodeValidation) {
		t.Fatalf("nil user: want validation, got %v", err)
	}
}

func TestUpdateUserTrustScoreNoRatings(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: st.tx}

	fresh := testutil.SeedUser(t, ctx, st.tx, "analyst-trust-fresh")
	update, err := st.trust.UpdateUserTrustScore(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("UpdateUserTrustScore: %v", err)
	}
	if update.Applied || !almostEqual(update.NewTrust, 1.0) || update.TotalRatings != 0 {
		t.Fatalf("recompute with no ratings: %+v", update)
	}
	stored, err := st.users.GetByID(dbc, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !almostEqual(stored.TrustScore, 1.0) {
		t.Fatalf("stored trust moved: %v", stored.TrustScore)
	}
}

func TestUpdateUserTrustScoreRecomputesFromCounters(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: st.tx}

	// Counters seeded out of step with the stored trust, as after a backfill.
	seeded := testutil.SeedUserWithTrust(t, ctx, st.tx, "analyst-trust-backfill", 1.0, 7, 10)

	update, err := st.trust.UpdateUserTrustScore(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("UpdateUserTrustScore: %v", err)
	}
	if !update.Applied {
		t.Fatalf("recompute over stale trust did not apply: %+v", update)
	}
	// 0.1 + 2.9 * (7/10)
	if !almostEqual(update.NewTrust, 2.13) {
		t.Fatalf("recomputed trust: want=2.13 got=%v", update.NewTrust)
	}
	stored, err := st.users.GetByID(dbc, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !almostEqual(stored.TrustScore, 2.13) {
		t.Fatalf("stored trust: want=2.13 got=%v", stored.TrustScore)
	}

	again, err := st.trust.UpdateUserTrustScore(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("UpdateUserTrustScore rerun: %v", err)
	}
	if again.Applied {
		t.Fatalf("idempotent recompute reported as applied: %+v", again)
	}
}
