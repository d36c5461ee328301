package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/db"
	e "github.com/mzeldin/upkeep/internal/maintenance/errors"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/mzeldin/upkeep/internal/maintenance/notify"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IsExpiringSoon reports whether the subscription lapses within
// thresholdDays: strictly positive remaining time, at most the
// threshold. An already-expired subscription is not "expiring soon".
// Trials are measured against the trial end date.
func IsExpiringSoon(sub *models.Subscription, now time.Time, thresholdDays int) bool {
	remaining := sub.ExpiresAt().Sub(now)
	return remaining > 0 && remaining <= time.Duration(thresholdDays)*24*time.Hour
}

// planPeriodEnd computes the end of a billing window opened at from,
// with end-of-month clamping.
func planPeriodEnd(plan models.PlanType, from time.Time) time.Time {
	if plan == models.PlanAnnual {
		return addMonthsClamped(from, 12)
	}
	return addMonthsClamped(from, 1)
}

// SubscriptionService drives subscription transitions from billing
// events and the periodic expiry sweep. Every transition also rewrites
// the company's denormalized subscription mirror in the same
// transaction; the mirror is never written by anything else.
type SubscriptionService struct {
	repo       *db.Repository
	dispatcher *notify.Dispatcher
	logger     *zap.Logger
	// trialDays is the configured trial length.
	trialDays int
	// noticeDays / trialNoticeDays are the expiring-soon thresholds
	// for paid and trial subscriptions.
	noticeDays      int
	trialNoticeDays int
}

func NewSubscriptionService(repo *db.Repository, dispatcher *notify.Dispatcher, logger *zap.Logger, trialDays, noticeDays, trialNoticeDays int) *SubscriptionService {
	return &SubscriptionService{
		repo:            repo,
		dispatcher:      dispatcher,
		logger:          logger.Named("subscription_service"),
		trialDays:       trialDays,
		noticeDays:      noticeDays,
		trialNoticeDays: trialNoticeDays,
	}
}

// syncMirror projects the current subscription row onto the company.
func syncMirror(company *models.Company, sub *models.Subscription) {
	company.SubscriptionStatus = sub.Status
	company.SubscriptionPlan = sub.PlanType
	start := sub.StartDate
	end := sub.ExpiresAt()
	company.SubscriptionStart = &start
	company.SubscriptionEnd = &end
}

// ApplyBillingEvent drives the subscription state machine from a
// billing webhook. payment_succeeded activates or renews (expired may
// return to active; a cancelled lifecycle is closed and a fresh row
// opens); payment_failed and window elapse expire; cancelled is
// terminal; trial_started opens the company's one and only trial.
func (s *SubscriptionService) ApplyBillingEvent(ctx context.Context, companyID uuid.UUID, eventType models.BillingEventType, effectiveDate time.Time) (*models.Subscription, error) {
	if !eventType.Valid() {
		return nil, fmt.Errorf("%w: unknown billing event %q", e.ErrInvalidInput, eventType)
	}

	var sub *models.Subscription
	err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
		company, err := repo.GetCompany(ctx, companyID)
		if err != nil {
			return err
		}

		current, err := repo.GetCurrentSubscription(ctx, companyID)
		if err != nil && !errors.Is(err, e.ErrNotFound) {
			return err
		}

		switch eventType {
		case models.BillingTrialStarted:
			sub, err = s.startTrial(ctx, repo, company, current, effectiveDate)
		case models.BillingPaymentSucceeded:
			sub, err = s.activate(ctx, repo, company, current, effectiveDate)
		case models.BillingPaymentFailed:
			sub, err = s.expireOnFailure(ctx, repo, current)
		case models.BillingCancelled:
			sub, err = s.cancel(ctx, repo, current)
		}
		if err != nil {
			return err
		}

		syncMirror(company, sub)
		return repo.SaveCompany(ctx, company)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) startTrial(ctx context.Context, repo *db.Repository, company *models.Company, current *models.Subscription, effectiveDate time.Time) (*models.Subscription, error) {
	if company.TrialUsed {
		return nil, fmt.Errorf("%w: trial already used", e.ErrInvalidStateTransition)
	}
	if current != nil {
		current.Current = false
		if err := repo.SaveSubscription(ctx, current); err != nil {
			return nil, err
		}
	}

	trialEnd := effectiveDate.AddDate(0, 0, s.trialDays)
	sub := &models.Subscription{
		ID:           uuid.New(),
		CompanyID:    company.ID,
		Status:       models.SubscriptionTrial,
		PlanType:     models.PlanMonthly,
		IsTrial:      true,
		Current:      true,
		StartDate:    effectiveDate,
		EndDate:      trialEnd,
		TrialEndDate: &trialEnd,
	}
	if err := repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	company.TrialUsed = true
	return sub, nil
}

func (s *SubscriptionService) activate(ctx context.Context, repo *db.Repository, company *models.Company, current *models.Subscription, effectiveDate time.Time) (*models.Subscription, error) {
	// A cancelled lifecycle is closed for good; payment on a company
	// with no usable row opens a fresh subscription.
	if current == nil || current.Status == models.SubscriptionCancelled {
		if current != nil {
			current.Current = false
			if err := repo.SaveSubscription(ctx, current); err != nil {
				return nil, err
			}
		}
		sub := &models.Subscription{
			ID:        uuid.New(),
			CompanyID: company.ID,
			Status:    models.SubscriptionActive,
			PlanType:  models.PlanMonthly,
			Current:   true,
			StartDate: effectiveDate,
			EndDate:   planPeriodEnd(models.PlanMonthly, effectiveDate),
		}
		if err := repo.CreateSubscription(ctx, sub); err != nil {
			return nil, err
		}
		return sub, nil
	}

	if !current.Status.CanTransitionTo(models.SubscriptionActive) {
		return nil, fmt.Errorf("%w: subscription is %s", e.ErrInvalidStateTransition, current.Status)
	}

	current.Status = models.SubscriptionActive
	current.IsTrial = false
	current.StartDate = effectiveDate
	current.EndDate = planPeriodEnd(current.PlanType, effectiveDate)
	if err := repo.SaveSubscription(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *SubscriptionService) expireOnFailure(ctx context.Context, repo *db.Repository, current *models.Subscription) (*models.Subscription, error) {
	if current == nil {
		return nil, e.ErrNotFound
	}
	if !current.Status.CanTransitionTo(models.SubscriptionExpired) {
		return nil, fmt.Errorf("%w: subscription is %s", e.ErrInvalidStateTransition, current.Status)
	}
	current.Status = models.SubscriptionExpired
	if err := repo.SaveSubscription(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (s *SubscriptionService) cancel(ctx context.Context, repo *db.Repository, current *models.Subscription) (*models.Subscription, error) {
	if current == nil {
		return nil, e.ErrNotFound
	}
	if !current.Status.CanTransitionTo(models.SubscriptionCancelled) {
		return nil, fmt.Errorf("%w: subscription is %s", e.ErrInvalidStateTransition, current.Status)
	}
	current.Status = models.SubscriptionCancelled
	if err := repo.SaveSubscription(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

// CheckExpiry expires a subscription whose window has elapsed: a trial
// past its trial end date, or a paid active subscription past its end
// date. The company mirror follows. No-op otherwise.
func (s *SubscriptionService) CheckExpiry(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (*models.Subscription, error) {
	var sub *models.Subscription
	err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
		var err error
		sub, err = repo.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return err
		}

		expired := false
		if sub.IsTrial && sub.Status == models.SubscriptionTrial && sub.TrialEndDate != nil && now.After(*sub.TrialEndDate) {
			expired = true
		}
		if !sub.IsTrial && sub.Status == models.SubscriptionActive && now.After(sub.EndDate) {
			expired = true
		}
		if !expired {
			return nil
		}

		sub.Status = models.SubscriptionExpired
		if err := repo.SaveSubscription(ctx, sub); err != nil {
			return err
		}

		company, err := repo.GetCompany(ctx, sub.CompanyID)
		if err != nil {
			return err
		}
		syncMirror(company, sub)
		return repo.SaveCompany(ctx, company)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ExpirySweep runs the periodic pass over every current subscription:
// expire lapsed windows, then notify company admins about windows
// closing within the configured thresholds. Emission is suppressed
// within 24 hours of the previous notification for the subscription.
func (s *SubscriptionService) ExpirySweep(ctx context.Context, now time.Time) error {
	subs, err := s.repo.ListCurrentSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}

	for i := range subs {
		sub := subs[i]
		if _, err := s.CheckExpiry(ctx, sub.ID, now); err != nil {
			s.logger.Error("expiry check failed",
				zap.Error(err),
				zap.String("subscription_id", sub.ID.String()),
			)
			continue
		}

		err := s.repo.WithTransaction(ctx, func(repo *db.Repository) error {
			// The listed row is a pre-transaction snapshot. Re-read it
			// here so a billing event committed since the list (a
			// renewal, a cancellation) is honored, not overwritten.
			fresh, err := repo.GetSubscription(ctx, sub.ID)
			if err != nil {
				return err
			}

			threshold := s.noticeDays
			if fresh.IsTrial {
				threshold = s.trialNoticeDays
			}
			if !IsExpiringSoon(fresh, now, threshold) {
				return nil
			}
			if fresh.LastNotificationSent != nil && now.Sub(*fresh.LastNotificationSent) < 24*time.Hour {
				return nil
			}

			if err := s.dispatcher.Dispatch(ctx, repo, notify.Event{
				Type:        notify.EventSubscriptionExpiring,
				CompanyID:   fresh.CompanyID,
				Title:       "Subscription expiring",
				Message:     fmt.Sprintf("Your subscription expires on %s", fresh.ExpiresAt().Format("2006-01-02")),
				RelatedType: "subscription",
				RelatedID:   fresh.ID,
			}); err != nil {
				return err
			}
			return repo.SetSubscriptionNotified(ctx, fresh.ID, now)
		})
		if err != nil {
			s.logger.Error("failed to emit expiring notification",
				zap.Error(err),
				zap.String("subscription_id", sub.ID.String()),
			)
		}
	}
	return nil
}
