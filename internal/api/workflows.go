package api

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"worktyhub/backend/internal/services"
	"worktyhub/backend/pkg/models"
)

// WorkflowRequest is the body of a workflow create call.
type WorkflowRequest struct {
	Name string `json:"name"`
}

// CreateWorkflow creates an empty pipeline for the caller's account.
// (POST /api/v1/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	var req WorkflowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	wf, err := s.Registry.CreateWorkflow(c.Request().Context(), s.caller(c), req.Name)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusCreated, wf)
}

// ListWorkflows returns the caller's workflows.
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	opts := parseListOptions(c)
	workflows, err := s.Registry.ListWorkflows(c.Request().Context(), s.caller(c), opts)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, project(workflows, opts.Fields))
}

// GetWorkflow returns one workflow.
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	opts := parseListOptions(c)
	wf, err := s.Registry.GetWorkflow(c.Request().Context(), s.caller(c), c.Param("id"), opts.Embeds)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, project(wf, opts.Fields))
}

// RunWorkflow forwards the workflow to the execution engine.
// (POST /api/v1/workflows/:id/run)
func (s *Server) RunWorkflow(c echo.Context) error {
	return s.controlWorkflow(c, s.Registry.Run)
}

// PauseWorkflow asks the execution engine to pause the workflow.
// (POST /api/v1/workflows/:id/pause)
func (s *Server) PauseWorkflow(c echo.Context) error {
	return s.controlWorkflow(c, s.Registry.Pause)
}

// StopWorkflow asks the execution engine to stop the workflow.
// (POST /api/v1/workflows/:id/stop)
func (s *Server) StopWorkflow(c echo.Context) error {
	return s.controlWorkflow(c, s.Registry.Stop)
}

func (s *Server) controlWorkflow(c echo.Context, control func(context.Context, services.Caller, string) (*models.Workflow, error)) error {
	wf, err := control(c.Request().Context(), s.caller(c), c.Param("id"))
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, wf)
}
