package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, handle string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:                uuid.New(),
		Handle:            handle,
		DisplayName:       "Analyst " + handle,
		TrustScore:        1.0,
		TotalRatingsGiven: 0,
		AccurateRatings:   0,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedUserWithTrust(tb testing.TB, ctx context.Context, tx *gorm.DB, handle string, trust float64, accurate, total int) *types.User {
	tb.Helper()
	u := &types.User{
		ID:                uuid.New(),
		Handle:            handle,
		DisplayName:       "Analyst " + handle,
		TrustScore:        trust,
		TotalRatingsGiven: total,
		AccurateRatings:   accurate,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedSource(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Source {
	tb.Helper()
	s := &types.Source{
		ID:               uuid.New(),
		Name:             name,
		URL:              "https://feeds.example.com/" + name,
		Category:         "wire",
		ReliabilityScore: 50,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed source: %v", err)
	}
	return s
}

func SeedStaleSource(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, score float64, lastArticleAt time.Time) *types.Source {
	tb.Helper()
	last := lastArticleAt.UTC()
	s := &types.Source{
		ID:               uuid.New(),
		Name:             name,
		URL:              "https://feeds.example.com/" + name,
		Category:         "wire",
		ReliabilityScore: score,
		LastArticleAt:    &last,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed stale source: %v", err)
	}
	return s
}

func SeedRating(tb testing.TB, ctx context.Context, tx *gorm.DB, sourceID, userID uuid.UUID, rating int, weight float64, createdAt time.Time) *types.SourceRating {
	tb.Helper()
	r := &types.SourceRating{
		ID:        uuid.New(),
		SourceID:  sourceID,
		UserID:    userID,
		Rating:    rating,
		Weight:    weight,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed rating: %v", err)
	}
	return r
}

func SeedCrossReference(tb testing.TB, ctx context.Context, tx *gorm.DB, sourceID uuid.UUID, wasAccurate bool) *types.CrossReferenceResult {
	tb.Helper()
	cr := &types.CrossReferenceResult{
		ID:                 uuid.New(),
		SourceID:           sourceID,
		ContentID:          uuid.New(),
		WasAccurate:        wasAccurate,
		VerificationSource: "factdesk",
		Confidence:         0.9,
	}
	if err := tx.WithContext(ctx).Create(cr).Error; err != nil {
		tb.Fatalf("seed cross reference: %v", err)
	}
	return cr
}
