package notify

import (
	"context"
	"testing"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/db"
	"github.com/mzeldin/upkeep/internal/maintenance/events"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRouteDirectRecipients(t *testing.T) {
	companyID := uuid.New()
	requester := uuid.New()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	event := Event{
		Type:        EventRequestApproved,
		CompanyID:   companyID,
		Title:       "Request approved",
		Message:     "Your request was approved",
		RelatedType: "maintenance_request",
		RelatedID:   uuid.New(),
		RequesterID: &requester,
	}

	got := Route(event, nil, now)
	require.Len(t, got, 1)
	n := got[0]
	assert.Equal(t, requester, n.UserID)
	assert.Equal(t, companyID, n.CompanyID)
	assert.Equal(t, models.NotifyRequestApproved, n.Category)
	assert.Equal(t, "Request approved", n.Title)
	assert.False(t, n.IsRead)
	assert.Equal(t, "maintenance_request", n.RelatedType)
	require.NotNil(t, n.RelatedID)
	assert.Equal(t, event.RelatedID, *n.RelatedID)
	assert.True(t, n.CreatedAt.Equal(now))
}

// TestRouteDeduplicates: a user who is both the assignee and a
// role-group member gets one record, not two.
func TestRouteDeduplicates(t *testing.T) {
	companyID := uuid.New()
	supervisor := models.User{ID: uuid.New(), Role: models.RoleSupervisor}

	event := Event{
		Type:        EventWorkOrderStatusChanged,
		CompanyID:   companyID,
		RelatedID:   uuid.New(),
		AssigneeIDs: []uuid.UUID{supervisor.ID, supervisor.ID},
		RequesterID: &supervisor.ID,
	}

	got := Route(event, []models.User{supervisor}, time.Now())
	assert.Len(t, got, 1)
}

func TestRouteStatusChangeReachesRequesterAndAssignees(t *testing.T) {
	assignee := uuid.New()
	secondary := uuid.New()
	requester := uuid.New()

	event := Event{
		Type:        EventWorkOrderStatusChanged,
		CompanyID:   uuid.New(),
		RelatedID:   uuid.New(),
		AssigneeIDs: []uuid.UUID{assignee, secondary},
		RequesterID: &requester,
	}

	got := Route(event, nil, time.Now())
	require.Len(t, got, 3)
	recipients := map[uuid.UUID]bool{}
	for _, n := range got {
		recipients[n.UserID] = true
		assert.Equal(t, models.NotifyTaskUpdate, n.Category)
	}
	assert.True(t, recipients[assignee])
	assert.True(t, recipients[secondary])
	assert.True(t, recipients[requester])
}

func TestRouteUnknownType(t *testing.T) {
	got := Route(Event{Type: EventType("unknown"), CompanyID: uuid.New()}, nil, time.Now())
	assert.Empty(t, got)
}

func TestRouteRoleGroupOnly(t *testing.T) {
	admin := models.User{ID: uuid.New(), Role: models.RoleAdmin}
	supervisor := models.User{ID: uuid.New(), Role: models.RoleSupervisor}

	event := Event{
		Type:      EventPartLowStock,
		CompanyID: uuid.New(),
		RelatedID: uuid.New(),
	}

	got := Route(event, []models.User{admin, supervisor}, time.Now())
	require.Len(t, got, 2)
	for _, n := range got {
		assert.Equal(t, models.NotifyPartLowStock, n.Category)
	}
}

// capturingProducer records produced events in order.
type capturingProducer struct {
	produced []events.Event
}

func (c *capturingProducer) Produce(event events.Event) {
	c.produced = append(c.produced, event)
}

func newDispatcherTestRepo(t *testing.T) *db.Repository {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")
	repo, err := db.NewRepositoryWithDB(gdb)
	require.NoError(t, err, "failed to migrate test database")
	return repo
}

func TestDispatchPersistsAndProduces(t *testing.T) {
	repo := newDispatcherTestRepo(t)
	producer := &capturingProducer{}
	dispatcher := NewDispatcher(producer, zaptest.NewLogger(t))
	ctx := context.Background()

	company := &models.Company{
		ID:                 uuid.New(),
		Name:               "Acme",
		SubscriptionStatus: models.SubscriptionActive,
	}
	require.NoError(t, repo.CreateCompany(ctx, company))

	adminID := uuid.New()
	require.NoError(t, repo.CreateUser(ctx, &models.User{
		ID:        adminID,
		CompanyID: &company.ID,
		Name:      "Admin",
		Email:     "admin@example.com",
		Role:      models.RoleAdmin,
	}))

	event := Event{
		Type:        EventSubscriptionExpiring,
		CompanyID:   company.ID,
		Title:       "Subscription expiring",
		Message:     "Expires soon",
		RelatedType: "subscription",
		RelatedID:   uuid.New(),
	}
	require.NoError(t, dispatcher.Dispatch(ctx, repo, event))

	stored, err := repo.ListNotifications(ctx, company.ID, adminID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, models.NotifySubscriptionExpiring, stored[0].Category)

	require.Len(t, producer.produced, 1)
	assert.Equal(t, string(EventSubscriptionExpiring), producer.produced[0].Type)
	assert.Equal(t, company.ID.String(), producer.produced[0].CompanyID)
	assert.Equal(t, event.RelatedID.String(), producer.produced[0].RelatedID)
}

func TestDispatchWithoutProducer(t *testing.T) {
	repo := newDispatcherTestRepo(t)
	dispatcher := NewDispatcher(nil, zaptest.NewLogger(t))
	ctx := context.Background()

	company := &models.Company{
		ID:                 uuid.New(),
		Name:               "Acme",
		SubscriptionStatus: models.SubscriptionActive,
	}
	require.NoError(t, repo.CreateCompany(ctx, company))

	requester := uuid.New()
	err := dispatcher.Dispatch(ctx, repo, Event{
		Type:        EventRequestRejected,
		CompanyID:   company.ID,
		Title:       "Request rejected",
		RelatedID:   uuid.New(),
		RequesterID: &requester,
	})
	require.NoError(t, err, "no downstream producer is a valid configuration")

	stored, err := repo.ListNotifications(ctx, company.ID, requester)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}
