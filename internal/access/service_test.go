package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) HasPurchase(ctx context.Context, userID, bookID uint) (bool, error) {
	args := m.Called(ctx, userID, bookID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) HasActiveBookLicense(ctx context.Context, userID, bookID uint, day time.Time) (bool, error) {
	args := m.Called(ctx, userID, bookID, day)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) HasActiveSubscription(ctx context.Context, userID uint, day time.Time) (bool, error) {
	args := m.Called(ctx, userID, day)
	return args.Bool(0), args.Error(1)
}

// The injected clock carries a time of day on purpose: grants compare on the
// calendar day, so the repository must only ever see midnight.
var (
	fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	fixedDay = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
)

func newFixedService(repo Repository) Service {
	return &service{repo: repo, now: func() time.Time { return fixedNow }}
}

func TestHasAccess_PurchaseGrants(t *testing.T) {
	repo := new(MockRepository)
	repo.On("HasPurchase", mock.Anything, uint(7), uint(3)).Return(true, nil)

	svc := newFixedService(repo)
	assert.True(t, svc.HasAccess(context.Background(), 7, 3))

	// A lifetime purchase short-circuits the date-sensitive checks.
	repo.AssertNotCalled(t, "HasActiveBookLicense", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "HasActiveSubscription", mock.Anything, mock.Anything, mock.Anything)
}

func TestHasAccess_LicenseGrants(t *testing.T) {
	repo := new(MockRepository)
	repo.On("HasPurchase", mock.Anything, uint(7), uint(3)).Return(false, nil)
	repo.On("HasActiveBookLicense", mock.Anything, uint(7), uint(3), fixedDay).Return(true, nil)

	svc := newFixedService(repo)
	assert.True(t, svc.HasAccess(context.Background(), 7, 3))
	repo.AssertNotCalled(t, "HasActiveSubscription", mock.Anything, mock.Anything, mock.Anything)
}

func TestHasAccess_SubscriptionGrants(t *testing.T) {
	repo := new(MockRepository)
	repo.On("HasPurchase", mock.Anything, uint(7), uint(3)).Return(false, nil)
	repo.On("HasActiveBookLicense", mock.Anything, uint(7), uint(3), fixedDay).Return(false, nil)
	repo.On("HasActiveSubscription", mock.Anything, uint(7), fixedDay).Return(true, nil)

	svc := newFixedService(repo)
	assert.True(t, svc.HasAccess(context.Background(), 7, 3))
}

func TestHasAccess_NoGrants(t *testing.T) {
	repo := new(MockRepository)
	repo.On("HasPurchase", mock.Anything, uint(7), uint(3)).Return(false, nil)
	repo.On("HasActiveBookLicense", mock.Anything, uint(7), uint(3), fixedDay).Return(false, nil)
	repo.On("HasActiveSubscription", mock.Anything, uint(7), fixedDay).Return(false, nil)

	svc := newFixedService(repo)
	assert.False(t, svc.HasAccess(context.Background(), 7, 3))
}

func TestHasAccess_QueriesOnCalendarDay(t *testing.T) {
	repo := new(MockRepository)
	repo.On("HasPurchase", mock.Anything, uint(7), uint(3)).Return(false, nil)
	repo.On("HasActiveBookLicense", mock.Anything, uint(7), uint(3), mock.MatchedBy(func(day time.Time) bool {
		return day.Hour() == 0 && day.Minute() == 0 && day.Second() == 0 && day.Nanosecond() == 0
	})).Return(false, nil)
	repo.On("HasActiveSubscription", mock.Anything, uint(7), fixedDay).Return(false, nil)

	svc := newFixedService(repo)
	svc.HasAccess(context.Background(), 7, 3)

	// A window ending today must still grant on today itself: against a
	// DATE column, a timestamp past midnight would fail access_end >= day
	// for the whole final day.
	repo.AssertExpectations(t)
}

func TestHasAccess_AnonymousDenied(t *testing.T) {
	repo := new(MockRepository)
	svc := newFixedService(repo)

	assert.False(t, svc.HasAccess(context.Background(), 0, 3))
	repo.AssertNotCalled(t, "HasPurchase", mock.Anything, mock.Anything, mock.Anything)
}

func TestHasAccess_ErrorsDeny(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("PurchaseCheckFails", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("HasPurchase", mock.Anything, uint(7), uint(3)).Return(false, boom)

		svc := newFixedService(repo)
		assert.False(t, svc.HasAccess(context.Background(), 7, 3))
	})

	t.Run("SubscriptionCheckFails", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("HasPurchase", mock.Anything, uint(7), uint(3)).Return(false, nil)
		repo.On("HasActiveBookLicense", mock.Anything, uint(7), uint(3), fixedDay).Return(false, nil)
		repo.On("HasActiveSubscription", mock.Anything, uint(7), fixedDay).Return(false, boom)

		svc := newFixedService(repo)
		assert.False(t, svc.HasAccess(context.Background(), 7, 3))
	})
}
