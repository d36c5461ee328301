package controller

import (
	"context"
	"testing"

	e "github.com/mzeldin/upkeep/internal/maintenance/errors"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newRequestService(t *testing.T) (*RequestService, *testEnv) {
	env := newTestEnv(t)
	svc := NewRequestService(env.repo, env.dispatcher, zaptest.NewLogger(t))
	return svc, env
}

func TestApproveRequest(t *testing.T) {
	svc, env := newRequestService(t)
	ctx := context.Background()

	request, err := svc.Create(ctx, env.company.ID, CreateRequestInput{
		RequesterID: env.requester.ID,
		Title:       "Press is leaking oil",
		Priority:    models.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, request.Status)

	approved, err := svc.Approve(ctx, env.company.ID, request.ID, env.supervisor.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, approved.Status)
	require.NotNil(t, approved.ApprovalDate)
	require.NotNil(t, approved.ApproverID)
	assert.Equal(t, env.supervisor.ID, *approved.ApproverID)

	got := notificationsFor(t, env.repo, env.company.ID, env.requester.ID, models.NotifyRequestApproved)
	require.Len(t, got, 1)
	assert.False(t, got[0].IsRead)

	// A second approval is a status precondition violation.
	_, err = svc.Approve(ctx, env.company.ID, request.ID, env.supervisor.ID)
	assert.ErrorIs(t, err, e.ErrInvalidStateTransition)
}

func TestRejectRequest(t *testing.T) {
	svc, env := newRequestService(t)
	ctx := context.Background()

	request, err := svc.Create(ctx, env.company.ID, CreateRequestInput{
		RequesterID: env.requester.ID,
		Title:       "Broken gauge",
	})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, env.company.ID, request.ID, env.supervisor.ID, "")
	assert.ErrorIs(t, err, e.ErrInvalidInput, "rejection reason is mandatory")

	rejected, err := svc.Reject(ctx, env.company.ID, request.ID, env.supervisor.ID, "duplicate of an open request")
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, rejected.Status)
	assert.Equal(t, "duplicate of an open request", rejected.RejectionReason)

	got := notificationsFor(t, env.repo, env.company.ID, env.requester.ID, models.NotifyRequestRejected)
	assert.Len(t, got, 1)

	// rejected is terminal: no conversion, no re-approval.
	_, err = svc.Convert(ctx, env.company.ID, request.ID, env.technician.ID)
	assert.ErrorIs(t, err, e.ErrInvalidStateTransition)
	_, err = svc.Approve(ctx, env.company.ID, request.ID, env.supervisor.ID)
	assert.ErrorIs(t, err, e.ErrInvalidStateTransition)
}

func TestConvertRequest(t *testing.T) {
	svc, env := newRequestService(t)
	ctx := context.Background()

	equipment := seedEquipment(t, env.repo, env.company.ID)
	eqID := equipment.ID
	request, err := svc.Create(ctx, env.company.ID, CreateRequestInput{
		RequesterID: env.requester.ID,
		EquipmentID: &eqID,
		Title:       "Conveyor belt frayed",
		Description: "Belt on line 2 shows wear",
		Priority:    models.PriorityCritical,
	})
	require.NoError(t, err)

	// Conversion requires approval first.
	_, err = svc.Convert(ctx, env.company.ID, request.ID, env.technician.ID)
	assert.ErrorIs(t, err, e.ErrInvalidStateTransition)

	_, err = svc.Approve(ctx, env.company.ID, request.ID, env.supervisor.ID)
	require.NoError(t, err)

	order, err := svc.Convert(ctx, env.company.ID, request.ID, env.technician.ID)
	require.NoError(t, err)

	assert.Equal(t, "WO-00001", order.Number)
	assert.Equal(t, models.WorkOrderOpen, order.Status)
	assert.Equal(t, request.Title, order.Title)
	assert.Equal(t, request.Description, order.Description)
	assert.Equal(t, request.Priority, order.Priority)
	require.NotNil(t, order.EquipmentID)
	assert.Equal(t, equipment.ID, *order.EquipmentID)
	require.NotNil(t, order.MaintenanceRequestID)
	assert.Equal(t, request.ID, *order.MaintenanceRequestID)
	assert.Nil(t, order.PreventiveMaintenanceID, "a work order has at most one origin")

	converted, err := env.repo.GetRequest(ctx, env.company.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestConverted, converted.Status)

	got := notificationsFor(t, env.repo, env.company.ID, env.technician.ID, models.NotifyNewTask)
	assert.Len(t, got, 1)

	// Exactly one work order per request.
	_, err = svc.Convert(ctx, env.company.ID, request.ID, env.technician.ID)
	assert.ErrorIs(t, err, e.ErrInvalidStateTransition)
}

// TestConvertRollsBackOnBadAssignee checks atomicity: when work order
// creation cannot proceed, the request status flip is not visible.
func TestConvertRollsBackOnBadAssignee(t *testing.T) {
	svc, env := newRequestService(t)
	ctx := context.Background()

	request, err := svc.Create(ctx, env.company.ID, CreateRequestInput{
		RequesterID: env.requester.ID,
		Title:       "Pump vibration",
	})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, env.company.ID, request.ID, env.supervisor.ID)
	require.NoError(t, err)

	outsider := seedCompany(t, env.repo, "Outsider")
	stranger := seedUser(t, env.repo, outsider.ID, models.RoleTechnician)

	_, err = svc.Convert(ctx, env.company.ID, request.ID, stranger.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)

	unchanged, err := env.repo.GetRequest(ctx, env.company.ID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, unchanged.Status, "failed conversion leaves the request approved")

	orders, err := env.repo.ListWorkOrders(ctx, env.company.ID, "")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestRequestTenantIsolation(t *testing.T) {
	svc, env := newRequestService(t)
	ctx := context.Background()

	request, err := svc.Create(ctx, env.company.ID, CreateRequestInput{
		RequesterID: env.requester.ID,
		Title:       "Lights flickering",
	})
	require.NoError(t, err)

	other := seedCompany(t, env.repo, "Other")
	_, err = svc.Approve(ctx, other.ID, request.ID, env.supervisor.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
}
