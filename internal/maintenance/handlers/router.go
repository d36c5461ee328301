package handlers

import (
	"github.com/mzeldin/upkeep/internal/maintenance/auth"
	"github.com/gin-gonic/gin"
)

// NewRouter wires the HTTP routes. Every route sits behind the JWT
// middleware and its role gate.
func NewRouter(h *Handler, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/v1")
	v1.Use(auth.Middleware(jwtSecret))

	v1.POST("/requests", auth.Require(auth.ActionCreateRequest), h.CreateRequest)
	v1.POST("/requests/:id/approve", auth.Require(auth.ActionApproveRequest), h.ApproveRequest)
	v1.POST("/requests/:id/reject", auth.Require(auth.ActionRejectRequest), h.RejectRequest)
	v1.POST("/requests/:id/convert", auth.Require(auth.ActionConvertRequest), h.ConvertRequest)

	v1.POST("/work-orders", auth.Require(auth.ActionCreateWorkOrder), h.CreateWorkOrder)
	v1.POST("/work-orders/:id/transition", auth.Require(auth.ActionTransitionWorkOrder), h.TransitionWorkOrder)
	v1.POST("/work-orders/:id/parts", auth.Require(auth.ActionAttachPart), h.AttachPart)
	v1.DELETE("/work-orders/:id", auth.Require(auth.ActionDeleteWorkOrder), h.DeleteWorkOrder)

	v1.POST("/schedules", auth.Require(auth.ActionCreateSchedule), h.CreateSchedule)
	v1.POST("/schedules/:id/complete", auth.Require(auth.ActionCompleteSchedule), h.CompleteSchedule)

	v1.POST("/billing/events", auth.Require(auth.ActionApplyBillingEvent), h.ApplyBillingEvent)

	v1.GET("/notifications", auth.Require(auth.ActionReadNotifications), h.ListNotifications)
	v1.POST("/notifications/:id/read", auth.Require(auth.ActionReadNotifications), h.MarkNotificationRead)

	return r
}
