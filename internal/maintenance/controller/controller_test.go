package controller

import (
	"context"
	"testing"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/db"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/mzeldin/upkeep/internal/maintenance/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestRepo opens an in-memory SQLite store with the full schema.
func newTestRepo(t *testing.T) *db.Repository {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "failed to open test database")

	repo, err := db.NewRepositoryWithDB(gdb)
	require.NoError(t, err, "failed to migrate test database")
	return repo
}

// newTestDispatcher persists notifications but has no downstream
// producer.
func newTestDispatcher(t *testing.T) *notify.Dispatcher {
	t.Helper()
	return notify.NewDispatcher(nil, zaptest.NewLogger(t))
}

func seedCompany(t *testing.T, repo *db.Repository, name string) *models.Company {
	t.Helper()
	company := &models.Company{
		ID:                 uuid.New(),
		Name:               name,
		SubscriptionStatus: models.SubscriptionActive,
	}
	require.NoError(t, repo.CreateCompany(context.Background(), company))
	return company
}

func seedUser(t *testing.T, repo *db.Repository, companyID uuid.UUID, role models.Role) *models.User {
	t.Helper()
	id := uuid.New()
	cid := companyID
	user := &models.User{
		ID:        id,
		CompanyID: &cid,
		Name:      string(role) + " user",
		Email:     id.String() + "@example.com",
		Role:      role,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func seedEquipment(t *testing.T, repo *db.Repository, companyID uuid.UUID) *models.Equipment {
	t.Helper()
	equipment := &models.Equipment{
		ID:        uuid.New(),
		CompanyID: companyID,
		Name:      "Conveyor",
		Status:    models.EquipmentRunning,
	}
	require.NoError(t, repo.CreateEquipment(context.Background(), equipment))
	return equipment
}

func seedPart(t *testing.T, repo *db.Repository, companyID uuid.UUID, quantity, minQuantity int) *models.StorePart {
	t.Helper()
	part := &models.StorePart{
		ID:          uuid.New(),
		CompanyID:   companyID,
		Name:        "Bearing",
		PartNumber:  "BRG-101",
		Quantity:    quantity,
		MinQuantity: minQuantity,
	}
	require.NoError(t, repo.CreateStorePart(context.Background(), part))
	return part
}

func seedSchedule(t *testing.T, repo *db.Repository, companyID, equipmentID uuid.UUID, frequency models.Frequency, customDays int, due time.Time) *models.PreventiveMaintenance {
	t.Helper()
	schedule := &models.PreventiveMaintenance{
		ID:                  uuid.New(),
		CompanyID:           companyID,
		EquipmentID:         equipmentID,
		Title:               "Routine check",
		Priority:            models.PriorityMedium,
		Frequency:           frequency,
		CustomFrequencyDays: customDays,
		NextDueDate:         due,
		Status:              models.ScheduleActive,
	}
	require.NoError(t, repo.CreateSchedule(context.Background(), schedule))
	return schedule
}

// testEnv bundles the store, dispatcher and a seeded tenant with one
// user per relevant role.
type testEnv struct {
	repo       *db.Repository
	dispatcher *notify.Dispatcher
	company    *models.Company
	admin      *models.User
	supervisor *models.User
	technician *models.User
	requester  *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := newTestRepo(t)
	company := seedCompany(t, repo, "Acme Industrial")
	return &testEnv{
		repo:       repo,
		dispatcher: newTestDispatcher(t),
		company:    company,
		admin:      seedUser(t, repo, company.ID, models.RoleAdmin),
		supervisor: seedUser(t, repo, company.ID, models.RoleSupervisor),
		technician: seedUser(t, repo, company.ID, models.RoleTechnician),
		requester:  seedUser(t, repo, company.ID, models.RoleRequester),
	}
}

// notificationsFor lists a user's notifications of one category.
func notificationsFor(t *testing.T, repo *db.Repository, companyID, userID uuid.UUID, category models.NotificationCategory) []models.Notification {
	t.Helper()
	all, err := repo.ListNotifications(context.Background(), companyID, userID)
	require.NoError(t, err)
	var filtered []models.Notification
	for _, n := range all {
		if n.Category == category {
			filtered = append(filtered, n)
		}
	}
	return filtered
}
