package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	redisclient "github.com/VitalPointAI/argus-sub001/internal/clients/redis"
	"github.com/VitalPointAI/argus-sub001/internal/data/repos/testutil"
	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
)

func TestApplyReputationDecayPenalizesStaleSources(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: st.tx}
	now := time.Now().UTC()

	stale := testutil.SeedStaleSource(t, ctx, st.tx, "wire-decay-stale", 50, now.Add(-45*24*time.Hour))
	fresh := testutil.SeedStaleSource(t, ctx, st.tx, "wire-decay-fresh", 50, now.Add(-5*24*time.Hour))
	silent := testutil.SeedSource(t, ctx, st.tx, "wire-decay-silent")

	summary, err := st.decay.ApplyReputationDecay(ctx)
	if err != nil {
		t.Fatalf("ApplyReputationDecay: %v", err)
	}
	if summary.Processed != 1 || summary.Decayed != 1 {
		t.Fatalf("summary: processed=%d decayed=%d, want 1/1", summary.Processed, summary.Decayed)
	}
	if len(summary.Details) != 1 {
		t.Fatalf("details: %+v", summary.Details)
	}
	d := summary.Details[0]
	if d.SourceID != stale.ID || !almostEqual(d.OldScore, 50) || !almostEqual(d.NewScore, 48) {
		t.Fatalf("detail: %+v", d)
	}
	if d.DaysSinceLastArticle != 45 {
		t.Fatalf("days since last article: want=45 got=%d", d.DaysSinceLastArticle)
	}

	decayed, err := st.sources.GetByID(dbc, stale.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !almostEqual(decayed.ReliabilityScore, 48) {
		t.Fatalf("stored score: want=48 got=%v", decayed.ReliabilityScore)
	}
	if decayed.DecayAppliedAt == nil {
		t.Fatalf("decay stamp not set")
	}

	rows, err := st.history.ListBySource(dbc, stale.ID, 10)
	if err != nil {
		t.Fatalf("history ListBySource: %v", err)
	}
	if len(rows) != 1 || rows[0].ChangeReason != types.ChangeReasonDecay {
		t.Fatalf("history rows: %+v", rows)
	}
	meta := map[string]float64{}
	if err := json.Unmarshal(rows[0].Metadata, &meta); err != nil {
		t.Fatalf("history metadata: %v", err)
	}
	if meta["days_since_last_article"] != 45 || meta["weeks_stale"] != 6 {
		t.Fatalf("history metadata: %v", meta)
	}

	// A recently active source and a source with no publication marker are
	// never candidates.
	for _, tc := range []struct {
		name string
		src  *types.Source
	}{{"fresh", fresh}, {"silent", silent}} {
		got, err := st.sources.GetByID(dbc, tc.src.ID)
		if err != nil {
			t.Fatalf("GetByID %s: %v", tc.name, err)
		}
		if !almostEqual(got.ReliabilityScore, 50) || got.DecayAppliedAt != nil {
			t.Fatalf("%s source touched by decay: score=%v stamp=%v", tc.name, got.ReliabilityScore, got.DecayAppliedAt)
		}
	}

	if got := st.bus.countEvent(redisclient.EventDecayApplied); got != 1 {
		t.Fatalf("decay events published: want=1 got=%d", got)
	}
}

func TestApplyReputationDecayWeeklyGate(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: st.tx}
	now := time.Now().UTC()

	src := testutil.SeedStaleSource(t, ctx, st.tx, "wire-decay-gate", 50, now.Add(-40*24*time.Hour))

	first, err := st.decay.ApplyReputationDecay(ctx)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if first.Processed != 1 || first.Decayed != 1 {
		t.Fatalf("first pass summary: %+v", first)
	}

	// The stamp from the first pass holds the source out until a week goes by.
	second, err := st.decay.ApplyReputationDecay(ctx)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if second.Processed != 0 || second.Decayed != 0 {
		t.Fatalf("second pass summary: %+v", second)
	}

	got, err := st.sources.GetByID(dbc, src.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !almostEqual(got.ReliabilityScore, 48) {
		t.Fatalf("score after back-to-back passes: want=48 got=%v", got.ReliabilityScore)
	}
	rows, err := st.history.ListBySource(dbc, src.ID, 10)
	if err != nil {
		t.Fatalf("history ListBySource: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("history rows after back-to-back passes: want=1 got=%d", len(rows))
	}
}

func TestApplyReputationDecayFloor(t *testing.T) {
	st := newTestStack(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: st.tx}
	now := time.Now().UTC()

	src := testutil.SeedStaleSource(t, ctx, st.tx, "wire-decay-floor", 11, now.Add(-40*24*time.Hour))

	first, err := st.decay.ApplyReputationDecay(ctx)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if first.Processed != 1 || first.Decayed != 1 {
		t.Fatalf("first pass summary: %+v", first)
	}
	got, err := st.sources.GetByID(dbc, src.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !almostEqual(got.ReliabilityScore, 10) {
		t.Fatalf("score clamped at floor: want=10 got=%v", got.ReliabilityScore)
	}

	// Re-open the weekly gate and run again while the source sits at the
	// floor: processed but not decayed, stamp advanced, no history entry.
	backdated := now.Add(-8 * 24 * time.Hour)
	if err := st.tx.WithContext(ctx).Model(&types.Source{}).
		Where("id = ?", src.ID).
		Update("decay_applied_at", backdated).Error; err != nil {
		t.Fatalf("backdate decay stamp: %v", err)
	}

	second, err := st.decay.ApplyReputationDecay(ctx)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if second.Processed != 1 || second.Decayed != 0 {
		t.Fatalf("floored pass summary: %+v", second)
	}
	if len(second.Details) != 0 {
		t.Fatalf("floored pass details: %+v", second.Details)
	}

	got, err = st.sources.GetByID(dbc, src.ID)
	if err != nil {
		t.Fatalf("GetByID after floored pass: %v", err)
	}
	if !almostEqual(got.ReliabilityScore, 10) {
		t.Fatalf("floor breached: %v", got.ReliabilityScore)
	}
	if got.DecayAppliedAt == nil || !got.DecayAppliedAt.After(backdated) {
		t.Fatalf("floored pass did not advance the stamp: %v", got.DecayAppliedAt)
	}

	rows, err := st.history.ListBySource(dbc, src.ID, 10)
	if err != nil {
		t.Fatalf("history ListBySource: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("floored pass appended history: %d rows", len(rows))
	}
}
