package api

import "github.com/labstack/echo/v4"

// Resource and permission names consulted against the policy engine.
const (
	ResourceWorkties  = "workties"
	ResourceWorkflows = "workflows"
	ResourcePayments  = "payments"

	PermView   = "view"
	PermUpdate = "update"
)

// Register mounts every handler on the (already authenticated) API group.
func (s *Server) Register(g *echo.Group) {
	g.GET("/workties", s.ListWorkties, s.requirePermission(ResourceWorkties, PermView))
	g.GET("/workties/:id", s.GetWorkty, s.requirePermission(ResourceWorkties, PermView))

	g.POST("/purchases", s.CreatePurchase, s.requirePermission(ResourcePayments, PermUpdate))
	g.GET("/payments", s.ListPayments, s.requirePermission(ResourcePayments, PermView))
	g.PUT("/payments/:id/message", s.UpdatePaymentMessage, s.requirePermission(ResourcePayments, PermUpdate))

	g.POST("/workflows", s.CreateWorkflow, s.requirePermission(ResourceWorkflows, PermUpdate))
	g.GET("/workflows", s.ListWorkflows, s.requirePermission(ResourceWorkflows, PermView))
	g.GET("/workflows/:id", s.GetWorkflow, s.requirePermission(ResourceWorkflows, PermView))
	g.POST("/workflows/:id/run", s.RunWorkflow, s.requirePermission(ResourceWorkflows, PermUpdate))
	g.POST("/workflows/:id/pause", s.PauseWorkflow, s.requirePermission(ResourceWorkflows, PermUpdate))
	g.POST("/workflows/:id/stop", s.StopWorkflow, s.requirePermission(ResourceWorkflows, PermUpdate))

	g.POST("/workflows/:id/instances", s.InsertInstance, s.requirePermission(ResourceWorkflows, PermUpdate))
	g.GET("/workflows/:id/instances", s.ListWorkflowInstances, s.requirePermission(ResourceWorkflows, PermView))
	g.GET("/workflows/:id/instances/:instanceId", s.GetInstance, s.requirePermission(ResourceWorkflows, PermView))
	g.PATCH("/workflows/:id/instances/:instanceId", s.UpdateInstance, s.requirePermission(ResourceWorkflows, PermUpdate))
	g.DELETE("/workflows/:id/instances/:instanceId", s.DeleteInstance, s.requirePermission(ResourceWorkflows, PermUpdate))

	g.GET("/instances", s.ListInstances, s.requirePermission(ResourceWorkflows, PermView))
}
