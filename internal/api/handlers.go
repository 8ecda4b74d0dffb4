// Package api contains the HTTP handlers for the workty marketplace.
package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/internal/auth"
	"worktyhub/backend/internal/policy"
	"worktyhub/backend/internal/services"
)

// Server holds the dependencies for the API handlers.
type Server struct {
	Purchases *services.PurchaseService
	Composer  *services.Composer
	Registry  *services.Registry
	Policy    *policy.Engine
	Log       services.Logger
}

// NewServer creates a new Server.
func NewServer(purchases *services.PurchaseService, composer *services.Composer, registry *services.Registry, engine *policy.Engine, log services.Logger) *Server {
	return &Server{
		Purchases: purchases,
		Composer:  composer,
		Registry:  registry,
		Policy:    engine,
		Log:       log,
	}
}

// HealthStatus represents the health check response.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// HandleHealth returns basic health status (always returns 200 OK).
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "workty-market",
		Version:   "1.0.0",
	})
}

// ProblemDetails is an RFC 7807 Problem Details response extended with the
// stable error code and field-level validation messages.
type ProblemDetails struct {
	Type   string              `json:"type"`
	Title  string              `json:"title"`
	Status int                 `json:"status"`
	Detail string              `json:"detail,omitempty"`
	Code   int                 `json:"code"`
	Errors []apperr.FieldError `json:"errors,omitempty"`
}

// statusForKind maps error kinds to HTTP status codes.
func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.EntityNotFound:
		return http.StatusNotFound
	case apperr.ValidationMissingParameter,
		apperr.PositionIndexInvalid, apperr.PositionIdInvalid, apperr.PositionTypeInvalid:
		return http.StatusBadRequest
	case apperr.NotEnoughFunds:
		return http.StatusPaymentRequired
	case apperr.NotOwnWorktyUsed:
		return http.StatusConflict
	case apperr.OperationForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// problem writes the typed error as a ProblemDetails payload. The caller's
// account id is stripped from anything echoed back.
func (s *Server) problem(c echo.Context, err error) error {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	kind := apperr.KindOf(err)
	pd := ProblemDetails{
		Type:   "about:blank",
		Title:  kind.String(),
		Status: statusForKind(kind),
		Detail: scrubAccountID(c, err.Error()),
		Code:   kind.Code(),
	}
	var typed *apperr.Error
	if errors.As(err, &typed) {
		pd.Errors = scrubFields(typed.Fields)
	}
	if pd.Status == http.StatusInternalServerError {
		s.Log.Error("request failed", "path", c.Path(), "error", err)
		// do not leak storage internals to the client
		pd.Detail = kind.String()
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(pd.Status, pd)
}

// scrubAccountID removes the caller's account identifier from text that is
// about to be echoed back.
func scrubAccountID(c echo.Context, text string) string {
	if id, ok := c.Get(auth.AccountIDKey).(string); ok && id != "" {
		text = strings.ReplaceAll(text, id, "[account]")
	}
	return text
}

// scrubFields drops account identifier fields from a validation error list.
func scrubFields(fields []apperr.FieldError) []apperr.FieldError {
	out := fields[:0:0]
	for _, f := range fields {
		if strings.Contains(f.Field, "account") {
			continue
		}
		out = append(out, f)
	}
	return out
}

// caller builds the service-level caller for the authenticated request.
func (s *Server) caller(c echo.Context) services.Caller {
	id, _ := c.Get(auth.AccountIDKey).(string)
	return services.Caller{
		AccountID: id,
		Admin:     s.Policy.Snapshot().HasAdminRole(id),
	}
}

// requirePermission is middleware consulting the policy snapshot before a
// handler runs.
func (s *Server) requirePermission(resource, permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, _ := c.Get(auth.AccountIDKey).(string)
			if !s.Policy.Snapshot().IsAllowed(id, resource, permission) {
				return s.problem(c, apperr.Newf(apperr.OperationForbidden,
					"%s on %s denied", permission, resource))
			}
			return next(c)
		}
	}
}
