// Package maintenance holds the periodic housekeeping jobs run against the
// bookstore database and the cron scheduler that drives them.
package maintenance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/safar/go-bookstore/internal/config"
	"github.com/safar/go-bookstore/internal/store"
)

const (
	JobReconcileRatings = "reconcile-ratings"
	JobPurgeTokens      = "purge-tokens"
	JobExpireGuestCarts = "expire-guest-carts"
)

// jobTimeout bounds a single run so a stuck query cannot pile up behind the
// next tick.
const jobTimeout = 5 * time.Minute

var ErrUnknownJob = errors.New("unknown maintenance job")

type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Jobs returns the housekeeping jobs with their configured schedules.
func Jobs(db *sql.DB, cfg config.MaintenanceConfig, log *zap.Logger) []Job {
	return []Job{
		{
			Name:     JobReconcileRatings,
			Schedule: cfg.ReconcileSchedule,
			Run: func(ctx context.Context) error {
				_, err := ReconcileRatings(ctx, db, cfg.ReconcileBatchLimit, log)
				return err
			},
		},
		{
			Name:     JobPurgeTokens,
			Schedule: cfg.TokenPurgeSchedule,
			Run: func(ctx context.Context) error {
				_, err := PurgeTokens(ctx, db, cfg.TokenRetention, log)
				return err
			},
		},
		{
			Name:     JobExpireGuestCarts,
			Schedule: cfg.GuestCartSchedule,
			Run: func(ctx context.Context) error {
				_, err := ExpireGuestCarts(ctx, db, log)
				return err
			},
		},
	}
}

// RunJob runs the named job once, outside any schedule.
func RunJob(ctx context.Context, jobs []Job, name string) error {
	for _, job := range jobs {
		if job.Name == name {
			return job.Run(ctx)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownJob, name)
}

// ReconcileRatings repairs drifted rating aggregates and logs every book it
// touched.
func ReconcileRatings(ctx context.Context, db *sql.DB, limit int, log *zap.Logger) ([]store.RatingDrift, error) {
	drifts, err := store.ReconcileBookRatings(ctx, db, limit)
	if err != nil {
		return nil, err
	}

	for _, d := range drifts {
		log.Warn("rating aggregate drifted",
			zap.Int64("book_id", d.BookID),
			zap.String("stored_average", d.StoredAverage.StringFixed(2)),
			zap.String("actual_average", d.ActualAverage.StringFixed(2)),
			zap.Int("stored_count", d.StoredCount),
			zap.Int("actual_count", d.ActualCount))
	}
	log.Info("ratings reconciled", zap.Int("repaired", len(drifts)))
	return drifts, nil
}

func PurgeTokens(ctx context.Context, db *sql.DB, retention time.Duration, log *zap.Logger) (store.TokenPurgeResult, error) {
	res, err := store.PurgeExpiredTokens(ctx, db, retention)
	if err != nil {
		return res, err
	}

	log.Info("expired credentials purged",
		zap.Duration("retention", retention),
		zap.Int64("sessions", res.Sessions),
		zap.Int64("refresh_tokens", res.RefreshTokens),
		zap.Int64("verification_tokens", res.VerificationTokens),
		zap.Int64("reset_tokens", res.ResetTokens))
	return res, nil
}

func ExpireGuestCarts(ctx context.Context, db *sql.DB, log *zap.Logger) (int64, error) {
	n, err := store.ExpireGuestCarts(ctx, db)
	if err != nil {
		return 0, err
	}
	log.Info("guest carts expired", zap.Int64("deleted", n))
	return n, nil
}
