package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/VitalPointAI/argus-sub001/internal/data/dberr"
	"github.com/VitalPointAI/argus-sub001/internal/data/repos"
	types "github.com/VitalPointAI/argus-sub001/internal/domain"
	"github.com/VitalPointAI/argus-sub001/internal/observability"
	"github.com/VitalPointAI/argus-sub001/internal/platform/dbctx"
	"github.com/VitalPointAI/argus-sub001/internal/platform/logger"
)

const (
	decayOutcomeDecayed = "decayed"
	decayOutcomeFloored = "floored"
	decayOutcomeSkipped = "skipped"
)

type DecayDetail struct {
	SourceID             uuid.UUID `json:"source_id"`
	Name                 string    `json:"name"`
	OldScore             float64   `json:"old_score"`
	NewScore             float64   `json:"new_score"`
	DaysSinceLastArticle int       `json:"days_since_last_article"`
}

// DecaySummary reports one pass. Processed counts sources that passed the
// locked gate re-check; Decayed counts the subset whose score actually
// dropped (a source already at the floor is processed but not decayed).
type DecaySummary struct {
	Processed int            `json:"processed"`
	Decayed   int            `json:"decayed"`
	Details   []*DecayDetail `json:"details"`
}

type DecayService interface {
	ApplyReputationDecay(ctx context.Context) (*DecaySummary, error)
}

type decayService struct {
	db       *gorm.DB
	log      *logger.Logger
	cfg      DecayConfig
	sources  repos.SourceRepo
	history  repos.ReliabilityHistoryRepo
	notifier ReputationNotifier
}

func NewDecayService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg DecayConfig,
	sources repos.SourceRepo,
	history repos.ReliabilityHistoryRepo,
	notifier ReputationNotifier,
) DecayService {
	return &decayService{
		db:       db,
		log:      baseLog.With("service", "DecayService"),
		cfg:      cfg,
		sources:  sources,
		history:  history,
		notifier: notifier,
	}
}

// ApplyReputationDecay penalizes sources that stopped publishing. Safe to
// invoke from any number of schedulers: each source commits in its own
// transaction behind a locked re-check of the weekly gate, so overlapping
// passes cannot double-penalize. Per-source failures are logged and the pass
// moves on.
func (s *decayService) ApplyReputationDecay(ctx context.Context) (*DecaySummary, error) {
	const op = "DecayService.ApplyReputationDecay"
	now := time.Now().UTC()
	articleCutoff := now.Add(-s.cfg.StaleAfter)
	decayCutoff := now.Add(-s.cfg.ReapplyAfter)

	candidates, err := s.sources.ListDecayCandidates(dbctx.Context{Ctx: ctx}, articleCutoff, decayCutoff, s.cfg.BatchLimit)
	if err != nil {
		return nil, dberr.MapError(op, err)
	}

	summary := &DecaySummary{Details: []*DecayDetail{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	parallelism := s.cfg.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	g.SetLimit(parallelism)
	for _, candidate := range candidates {
		id := candidate.ID
		g.Go(func() error {
			detail, outcome, derr := s.decayOne(gctx, id, now, articleCutoff, decayCutoff)
			if derr != nil {
				s.log.Warn("decay failed for source", "source_id", id, "error", derr)
				return nil
			}
			if m := observability.Current(); m != nil {
				m.IncDecaySource(outcome)
			}
			if outcome == decayOutcomeSkipped {
				return nil
			}
			mu.Lock()
			summary.Processed++
			if outcome == decayOutcomeDecayed {
				summary.Decayed++
				summary.Details = append(summary.Details, detail)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if m := observability.Current(); m != nil {
		m.IncDecayRun()
	}
	s.log.Info("reputation decay pass complete",
		"candidates", len(candidates),
		"processed", summary.Processed,
		"decayed", summary.Decayed)
	if s.notifier != nil && summary.Processed > 0 {
		s.notifier.DecayApplied(ctx, summary.Processed, summary.Decayed)
	}
	return summary, nil
}

func (s *decayService) decayOne(ctx context.Context, id uuid.UUID, now, articleCutoff, decayCutoff time.Time) (*DecayDetail, string, error) {
	const op = "DecayService.ApplyReputationDecay"
	var detail *DecayDetail
	outcome := decayOutcomeSkipped
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		src, err := s.sources.LockByID(dbc, id)
		if err != nil {
			return err
		}
		if src == nil {
			return nil
		}
		// Re-check the gate on the locked row. A concurrent pass that
		// already stamped this source makes this a no-op.
		if src.LastArticleAt == nil || !src.LastArticleAt.Before(articleCutoff) {
			return nil
		}
		if src.DecayAppliedAt != nil && !src.DecayAppliedAt.Before(decayCutoff) {
			return nil
		}
		days, weeks := staleness(now, *src.LastArticleAt)
		newScore := decayedScore(s.cfg, src.ReliabilityScore)
		if err := s.sources.ApplyDecay(dbc, id, newScore, now); err != nil {
			return err
		}
		detail = &DecayDetail{
			SourceID:             id,
			Name:                 src.Name,
			OldScore:             src.ReliabilityScore,
			NewScore:             newScore,
			DaysSinceLastArticle: days,
		}
		if newScore == src.ReliabilityScore {
			// Already at the floor. The stamp still advances so the gate
			// keeps its weekly cadence.
			outcome = decayOutcomeFloored
			return nil
		}
		meta, _ := json.Marshal(map[string]interface{}{
			"days_since_last_article": days,
			"weeks_stale":             weeks,
		})
		hist := &types.ReliabilityHistory{
			SourceID:     id,
			OldScore:     src.ReliabilityScore,
			NewScore:     newScore,
			ChangeReason: types.ChangeReasonDecay,
			Metadata:     datatypes.JSON(meta),
		}
		if err := s.history.Append(dbc, hist); err != nil {
			return err
		}
		outcome = decayOutcomeDecayed
		return nil
	})
	if err != nil {
		return nil, decayOutcomeSkipped, dberr.MapError(op, err)
	}
	return detail, outcome, nil
}
