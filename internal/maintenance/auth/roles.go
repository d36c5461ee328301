package auth

import (
	"github.com/mzeldin/upkeep/internal/maintenance/models"
)

// Action names a gated core operation.
type Action string

const (
	ActionCreateRequest       Action = "request.create"
	ActionApproveRequest      Action = "request.approve"
	ActionRejectRequest       Action = "request.reject"
	ActionConvertRequest      Action = "request.convert"
	ActionCreateWorkOrder     Action = "work_order.create"
	ActionTransitionWorkOrder Action = "work_order.transition"
	ActionAttachPart          Action = "work_order.attach_part"
	ActionDeleteWorkOrder     Action = "work_order.delete"
	ActionCreateSchedule      Action = "schedule.create"
	ActionCompleteSchedule    Action = "schedule.complete"
	ActionApplyBillingEvent   Action = "subscription.billing_event"
	ActionReadNotifications   Action = "notification.read"
)

// requiredRoles is the minimum role per operation. Higher roles
// subsume lower ones (models.Role.AtLeast).
var requiredRoles = map[Action]models.Role{
	ActionCreateRequest:       models.RoleRequester,
	ActionApproveRequest:      models.RoleSupervisor,
	ActionRejectRequest:       models.RoleSupervisor,
	ActionConvertRequest:      models.RoleSupervisor,
	ActionCreateWorkOrder:     models.RoleSupervisor,
	ActionTransitionWorkOrder: models.RoleTechnician,
	ActionAttachPart:          models.RoleTechnician,
	ActionDeleteWorkOrder:     models.RoleSupervisor,
	ActionCreateSchedule:      models.RoleSupervisor,
	ActionCompleteSchedule:    models.RoleSupervisor,
	ActionApplyBillingEvent:   models.RoleAdmin,
	ActionReadNotifications:   models.RoleViewer,
}

// RequiredRole returns the minimum role for the action. Unknown
// actions require admin.
func RequiredRole(action Action) models.Role {
	if role, ok := requiredRoles[action]; ok {
		return role
	}
	return models.RoleAdmin
}

// Allowed reports whether the actor's role clears the action's gate.
func Allowed(actor *Actor, action Action) bool {
	return actor.Role.AtLeast(RequiredRole(action))
}
