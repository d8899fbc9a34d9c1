package ratings

import (
	"context"
	"testing"
	"time"

	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"github.com/VitalPointAI/argus-sub001/internal/data/repos/testutil"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
)

func TestRatingLimitRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewRatingLimitRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "limit-repo-analyst")
	day := time.Now().UTC().Format(types.DayFormat)

	n, err := repo.CountForDay(dbc, u.ID, day)
	if err != nil || n != 0 {
		t.Fatalf("CountForDay empty: n=%d err=%v", n, err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementDay(dbc, u.ID, day); err != nil {
			t.Fatalf("IncrementDay %d: %v", i, err)
		}
	}
	n, err = repo.CountForDay(dbc, u.ID, day)
	if err != nil {
		t.Fatalf("CountForDay: %v", err)
	}
	if n != 3 {
		t.Fatalf("CountForDay: expected 3, got %d", n)
	}

	// Other days and other analysts stay isolated.
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format(types.DayFormat)
	n, err = repo.CountForDay(dbc, u.ID, yesterday)
	if err != nil || n != 0 {
		t.Fatalf("CountForDay yesterday: n=%d err=%v", n, err)
	}
	u2 := testutil.SeedUser(t, ctx, tx, "limit-repo-analyst-2")
	n, err = repo.CountForDay(dbc, u2.ID, day)
	if err != nil || n != 0 {
		t.Fatalf("CountForDay other analyst: n=%d err=%v", n, err)
	}
}
