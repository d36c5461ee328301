package auth

import (
	"testing"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	actor := Actor{
		UserID:    uuid.New(),
		CompanyID: uuid.New(),
		Role:      models.RoleSupervisor,
	}

	token, err := GenerateToken(actor, testSecret, time.Hour)
	require.NoError(t, err)

	parsed, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, actor.UserID, parsed.UserID)
	assert.Equal(t, actor.CompanyID, parsed.CompanyID)
	assert.Equal(t, actor.Role, parsed.Role)
}

func TestParseTokenRejectsBadSecret(t *testing.T) {
	actor := Actor{UserID: uuid.New(), CompanyID: uuid.New(), Role: models.RoleAdmin}
	token, err := GenerateToken(actor, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(token, "wrong-secret")
	assert.Error(t, err)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	actor := Actor{UserID: uuid.New(), CompanyID: uuid.New(), Role: models.RoleAdmin}
	token, err := GenerateToken(actor, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", testSecret)
	assert.Error(t, err)
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		role   models.Role
		action Action
		want   bool
	}{
		{models.RoleRequester, ActionCreateRequest, true},
		{models.RoleViewer, ActionCreateRequest, false},
		{models.RoleSupervisor, ActionApproveRequest, true},
		{models.RoleTechnician, ActionApproveRequest, false},
		{models.RoleTechnician, ActionTransitionWorkOrder, true},
		{models.RoleRequester, ActionTransitionWorkOrder, false},
		{models.RoleTechnician, ActionAttachPart, true},
		{models.RoleAdmin, ActionApplyBillingEvent, true},
		{models.RoleSupervisor, ActionApplyBillingEvent, false},
		{models.RoleViewer, ActionReadNotifications, true},
		{models.RoleSuperAdmin, ActionApplyBillingEvent, true},
		// Unknown actions fail closed to admin.
		{models.RoleSupervisor, Action("bogus"), false},
		{models.RoleAdmin, Action("bogus"), true},
	}
	for _, tt := range tests {
		actor := &Actor{Role: tt.role}
		assert.Equal(t, tt.want, Allowed(actor, tt.action), "%s on %s", tt.role, tt.action)
	}
}
