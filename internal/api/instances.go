package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"worktyhub/backend/pkg/models"
)

// InsertInstanceRequest is the body of an instance insert call. The position
// itself rides in the query parameters.
type InsertInstanceRequest struct {
	WorktyID string `json:"workty_id"`
}

// InsertInstance places an owned workty into the workflow's ordered list at
// the position described by position_type/position_index/position_id.
// (POST /api/v1/workflows/:id/instances)
func (s *Server) InsertInstance(c echo.Context) error {
	var req InsertInstanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	spec, err := parsePositionSpec(c)
	if err != nil {
		return s.problem(c, err)
	}
	opts := parseListOptions(c)

	inst, err := s.Composer.Insert(c.Request().Context(), s.caller(c),
		c.Param("id"), req.WorktyID, spec, opts.Embeds)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusCreated, project(inst, opts.Fields))
}

// ListWorkflowInstances lists the instances inside one workflow.
// (GET /api/v1/workflows/:id/instances)
func (s *Server) ListWorkflowInstances(c echo.Context) error {
	opts := parseListOptions(c)
	instances, err := s.Registry.ListInstances(c.Request().Context(), s.caller(c), c.Param("id"), opts)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, project(instances, opts.Fields))
}

// ListInstances lists instances across every workflow of the caller.
// (GET /api/v1/instances)
func (s *Server) ListInstances(c echo.Context) error {
	opts := parseListOptions(c)
	instances, err := s.Registry.ListInstances(c.Request().Context(), s.caller(c), "", opts)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, project(instances, opts.Fields))
}

// GetInstance returns one instance of a workflow.
// (GET /api/v1/workflows/:id/instances/:instanceId)
func (s *Server) GetInstance(c echo.Context) error {
	opts := parseListOptions(c)
	inst, err := s.Registry.GetInstance(c.Request().Context(), s.caller(c),
		c.Param("id"), c.Param("instanceId"), opts.Embeds)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, project(inst, opts.Fields))
}

// UpdateInstance applies a typed patch to an instance.
// (PATCH /api/v1/workflows/:id/instances/:instanceId)
func (s *Server) UpdateInstance(c echo.Context) error {
	var patch models.InstancePatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	inst, err := s.Composer.Update(c.Request().Context(), s.caller(c),
		c.Param("id"), c.Param("instanceId"), patch)
	if err != nil {
		return s.problem(c, err)
	}
	return c.JSON(http.StatusOK, inst)
}

// DeleteInstance removes an instance from its workflow and deletes it.
// (DELETE /api/v1/workflows/:id/instances/:instanceId)
func (s *Server) DeleteInstance(c echo.Context) error {
	if err := s.Composer.Delete(c.Request().Context(), s.caller(c),
		c.Param("id"), c.Param("instanceId")); err != nil {
		return s.problem(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
