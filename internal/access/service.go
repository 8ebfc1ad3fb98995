// Package access derives, at read time, whether a user currently holds the
// right to open a piece of paid content. Every content-serving path calls it
// before releasing chapters, downloads or audio.
package access

import (
	"context"
	"time"

	"github.com/ialame/maison-edition/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	// HasAccess evaluates the three grants in order: lifetime purchase,
	// per-book timed license, store-wide subscription. Any one suffices.
	// The decision is date-sensitive and must not be cached across
	// requests; ambiguity (including query errors) resolves to denial.
	HasAccess(ctx context.Context, userID, bookID uint) bool
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) HasAccess(ctx context.Context, userID, bookID uint) bool {
	if userID == 0 {
		return false
	}

	log := logger.FromCtx(ctx).With(
		zap.Uint("user_id", userID),
		zap.Uint("book_id", bookID),
	)

	// Windows are DATE-valued and inclusive on both ends. Comparing with a
	// wall-clock timestamp would lose the whole final day, so the check runs
	// on the calendar day.
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ok, err := s.repo.HasPurchase(ctx, userID, bookID)
	if err != nil {
		log.Error("purchase grant check failed, denying", zap.Error(err))
		return false
	}
	if ok {
		return true
	}

	ok, err = s.repo.HasActiveBookLicense(ctx, userID, bookID, today)
	if err != nil {
		log.Error("license grant check failed, denying", zap.Error(err))
		return false
	}
	if ok {
		return true
	}

	ok, err = s.repo.HasActiveSubscription(ctx, userID, today)
	if err != nil {
		log.Error("subscription grant check failed, denying", zap.Error(err))
		return false
	}
	return ok
}
