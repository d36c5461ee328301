package controller

import (
	"context"
	"testing"
	"time"

	e "github.com/mzeldin/upkeep/internal/maintenance/errors"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/mzeldin/upkeep/internal/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newSubscriptionService(t *testing.T) (*SubscriptionService, *testEnv) {
	env := newTestEnv(t)
	svc := NewSubscriptionService(env.repo, env.dispatcher, zaptest.NewLogger(t), 14, 7, 2)
	return svc, env
}

func TestTrialStartsOnce(t *testing.T) {
	svc, env := newSubscriptionService(t)
	ctx := context.Background()

	started := date(2024, 4, 1)
	sub, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingTrialStarted, started)
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionTrial, sub.Status)
	assert.True(t, sub.IsTrial)
	assert.True(t, sub.Current)
	require.NotNil(t, sub.TrialEndDate)
	assert.True(t, sub.TrialEndDate.Equal(date(2024, 4, 15)), "14-day trial window")

	company, err := env.repo.GetCompany(ctx, env.company.ID)
	require.NoError(t, err)
	assert.True(t, company.TrialUsed)
	assert.Equal(t, models.SubscriptionTrial, company.SubscriptionStatus)
	require.NotNil(t, company.SubscriptionEnd)
	assert.True(t, company.SubscriptionEnd.Equal(date(2024, 4, 15)))

	// One trial per company, ever.
	_, err = svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingTrialStarted, date(2024, 5, 1))
	assert.ErrorIs(t, err, e.ErrInvalidStateTransition)
}

func TestTrialConvertsToActive(t *testing.T) {
	svc, env := newSubscriptionService(t)
	ctx := context.Background()

	trial, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingTrialStarted, date(2024, 4, 1))
	require.NoError(t, err)

	paid := date(2024, 4, 10)
	sub, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingPaymentSucceeded, paid)
	require.NoError(t, err)

	assert.Equal(t, trial.ID, sub.ID, "conversion keeps the same lifecycle row")
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.False(t, sub.IsTrial)
	assert.True(t, sub.StartDate.Equal(paid))
	assert.True(t, sub.EndDate.Equal(date(2024, 5, 10)), "monthly window from the payment date")

	company, err := env.repo.GetCompany(ctx, env.company.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, company.SubscriptionStatus)
}

func TestPaymentFailureAndRenewal(t *testing.T) {
	svc, env := newSubscriptionService(t)
	ctx := context.Background()

	active, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingPaymentSucceeded, date(2024, 1, 1))
	require.NoError(t, err)

	expired, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingPaymentFailed, date(2024, 1, 20))
	require.NoError(t, err)
	assert.Equal(t, active.ID, expired.ID)
	assert.Equal(t, models.SubscriptionExpired, expired.Status)

	company, err := env.repo.GetCompany(ctx, env.company.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionExpired, company.SubscriptionStatus)

	// A later successful payment reactivates the lapsed subscription.
	renewed, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingPaymentSucceeded, date(2024, 2, 5))
	require.NoError(t, err)
	assert.Equal(t, active.ID, renewed.ID)
	assert.Equal(t, models.SubscriptionActive, renewed.Status)
	assert.True(t, renewed.EndDate.Equal(date(2024, 3, 5)))
}

func TestCancelledIsTerminal(t *testing.T) {
	svc, env := newSubscriptionService(t)
	ctx := context.Background()

	first, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingPaymentSucceeded, date(2024, 1, 1))
	require.NoError(t, err)

	cancelled, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingCancelled, date(2024, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCancelled, cancelled.Status)

	// A cancelled row never changes state again.
	_, err = svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingPaymentFailed, date(2024, 1, 11))
	assert.ErrorIs(t, err, e.ErrInvalidStateTransition)
	_, err = svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingCancelled, date(2024, 1, 11))
	assert.ErrorIs(t, err, e.ErrInvalidStateTransition)

	// Paying again opens a fresh subscription; the cancelled one is
	// retired from the current slot.
	fresh, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingPaymentSucceeded, date(2024, 2, 1))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, fresh.ID)
	assert.Equal(t, models.SubscriptionActive, fresh.Status)

	current, err := env.repo.GetCurrentSubscription(ctx, env.company.ID)
	require.NoError(t, err)
	assert.Equal(t, fresh.ID, current.ID)

	old, err := env.repo.GetSubscription(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, old.Current)
	assert.Equal(t, models.SubscriptionCancelled, old.Status)
}

func TestUnknownBillingEvent(t *testing.T) {
	svc, env := newSubscriptionService(t)

	_, err := svc.ApplyBillingEvent(context.Background(), env.company.ID, models.BillingEventType("chargeback"), date(2024, 1, 1))
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestCheckExpiryTrial(t *testing.T) {
	svc, env := newSubscriptionService(t)
	ctx := context.Background()

	trial, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingTrialStarted, date(2024, 4, 1))
	require.NoError(t, err)

	// Still inside the window: nothing happens.
	sub, err := svc.CheckExpiry(ctx, trial.ID, date(2024, 4, 15))
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionTrial, sub.Status)

	sub, err = svc.CheckExpiry(ctx, trial.ID, date(2024, 4, 16))
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionExpired, sub.Status)

	company, err := env.repo.GetCompany(ctx, env.company.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionExpired, company.SubscriptionStatus)
}

func TestIsExpiringSoon(t *testing.T) {
	now := date(2024, 6, 1)
	paid := func(end time.Time) *models.Subscription {
		return &models.Subscription{Status: models.SubscriptionActive, EndDate: end}
	}

	assert.True(t, IsExpiringSoon(paid(date(2024, 6, 5)), now, 7))
	assert.True(t, IsExpiringSoon(paid(date(2024, 6, 8)), now, 7), "exactly at the threshold counts")
	assert.False(t, IsExpiringSoon(paid(date(2024, 6, 9)), now, 7))
	assert.False(t, IsExpiringSoon(paid(date(2024, 5, 30)), now, 7), "already expired is not expiring soon")

	trial := &models.Subscription{
		Status:       models.SubscriptionTrial,
		IsTrial:      true,
		EndDate:      date(2024, 7, 1),
		TrialEndDate: utils.Ptr(date(2024, 6, 2)),
	}
	assert.True(t, IsExpiringSoon(trial, now, 2), "trials measure against the trial end date")
}

func TestExpirySweepNotifiesAndDedupes(t *testing.T) {
	svc, env := newSubscriptionService(t)
	ctx := context.Background()

	sub, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingPaymentSucceeded, date(2024, 1, 1))
	require.NoError(t, err)

	// Three days before the end of the window, inside the 7-day notice.
	now := date(2024, 1, 29)
	require.NoError(t, svc.ExpirySweep(ctx, now))

	got := notificationsFor(t, env.repo, env.company.ID, env.admin.ID, models.NotifySubscriptionExpiring)
	require.Len(t, got, 1, "admin is warned")
	assert.Empty(t, notificationsFor(t, env.repo, env.company.ID, env.technician.ID, models.NotifySubscriptionExpiring))

	refreshed, err := env.repo.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, refreshed.LastNotificationSent)

	// A second sweep within 24 hours is suppressed.
	require.NoError(t, svc.ExpirySweep(ctx, now.Add(6*time.Hour)))
	got = notificationsFor(t, env.repo, env.company.ID, env.admin.ID, models.NotifySubscriptionExpiring)
	assert.Len(t, got, 1)

	// Past the suppression window it fires again.
	require.NoError(t, svc.ExpirySweep(ctx, now.Add(25*time.Hour)))
	got = notificationsFor(t, env.repo, env.company.ID, env.admin.ID, models.NotifySubscriptionExpiring)
	assert.Len(t, got, 2)
}

func TestExpirySweepExpiresLapsedWindows(t *testing.T) {
	svc, env := newSubscriptionService(t)
	ctx := context.Background()

	sub, err := svc.ApplyBillingEvent(ctx, env.company.ID, models.BillingPaymentSucceeded, date(2024, 1, 1))
	require.NoError(t, err)

	require.NoError(t, svc.ExpirySweep(ctx, date(2024, 2, 2)))

	refreshed, err := env.repo.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionExpired, refreshed.Status)

	company, err := env.repo.GetCompany(ctx, env.company.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionExpired, company.SubscriptionStatus)

	// No expiring-soon warning for a subscription that already lapsed.
	assert.Empty(t, notificationsFor(t, env.repo, env.company.ID, env.admin.ID, models.NotifySubscriptionExpiring))
}
