package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/internal/auth"
)

// NoOpLogger for testing
type NoOpLogger struct{}

func (l *NoOpLogger) Debug(msg string, args ...any) {}
func (l *NoOpLogger) Info(msg string, args ...any)  {}
func (l *NoOpLogger) Warn(msg string, args ...any)  {}
func (l *NoOpLogger) Error(msg string, args ...any) {}

func newTestContext(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetails {
	t.Helper()
	var pd ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
	return pd
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.EntityNotFound, http.StatusNotFound},
		{apperr.ValidationMissingParameter, http.StatusBadRequest},
		{apperr.PositionIndexInvalid, http.StatusBadRequest},
		{apperr.PositionIdInvalid, http.StatusBadRequest},
		{apperr.PositionTypeInvalid, http.StatusBadRequest},
		{apperr.NotEnoughFunds, http.StatusPaymentRequired},
		{apperr.NotOwnWorktyUsed, http.StatusConflict},
		{apperr.OperationForbidden, http.StatusForbidden},
		{apperr.GenericUnexpected, http.StatusInternalServerError},
		{apperr.EntityNotSaved, http.StatusInternalServerError},
		{apperr.EntityNotUpdated, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, statusForKind(tc.kind), tc.kind.String())
	}
}

func TestProblem(t *testing.T) {
	s := &Server{Log: &NoOpLogger{}}

	t.Run("typed error becomes problem details", func(t *testing.T) {
		c, rec := newTestContext(t, "/api/v1/purchases")

		err := s.problem(c, apperr.Newf(apperr.NotEnoughFunds, "balance %d is below price %d", 100, 450))
		require.NoError(t, err)

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))

		pd := decodeProblem(t, rec)
		assert.Equal(t, "not_enough_funds", pd.Title)
		assert.Equal(t, 1009, pd.Code)
		assert.Equal(t, http.StatusPaymentRequired, pd.Status)
		assert.Contains(t, pd.Detail, "below price 450")
	})

	t.Run("caller account id is scrubbed from the detail", func(t *testing.T) {
		c, rec := newTestContext(t, "/api/v1/workflows")
		c.Set(auth.AccountIDKey, "acc-secret-1")

		err := s.problem(c, apperr.New(apperr.EntityNotFound, "workflow of acc-secret-1 not found"))
		require.NoError(t, err)

		pd := decodeProblem(t, rec)
		assert.NotContains(t, pd.Detail, "acc-secret-1")
		assert.Contains(t, pd.Detail, "[account]")
	})

	t.Run("validation fields ride along, minus account fields", func(t *testing.T) {
		c, rec := newTestContext(t, "/api/v1/purchases")

		err := s.problem(c, apperr.MissingParameters("account_id", "workty_id"))
		require.NoError(t, err)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		pd := decodeProblem(t, rec)
		require.Len(t, pd.Errors, 1)
		assert.Equal(t, "workty_id", pd.Errors[0].Field)
	})

	t.Run("internal errors hide storage detail", func(t *testing.T) {
		c, rec := newTestContext(t, "/api/v1/workflows")

		cause := fmt.Errorf("pq: relation workflows does not exist")
		err := s.problem(c, apperr.Wrap(apperr.GenericUnexpected, "list failed", cause))
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		pd := decodeProblem(t, rec)
		assert.Equal(t, "generic_unexpected", pd.Detail)
		assert.NotContains(t, pd.Detail, "relation")
	})

	t.Run("echo http errors pass through untouched", func(t *testing.T) {
		c, _ := newTestContext(t, "/api/v1/workflows")

		httpErr := echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		assert.Equal(t, httpErr, s.problem(c, httpErr))
	})
}

func TestParsePositionSpec(t *testing.T) {
	t.Run("all parameters", func(t *testing.T) {
		c, _ := newTestContext(t, "/?position_type=first&position_index=2&position_id=inst-1")

		spec, err := parsePositionSpec(c)
		require.NoError(t, err)
		assert.Equal(t, "first", string(spec.Type))
		require.NotNil(t, spec.Index)
		assert.Equal(t, 2, *spec.Index)
		assert.Equal(t, "inst-1", spec.ID)
	})

	t.Run("absent index stays nil", func(t *testing.T) {
		c, _ := newTestContext(t, "/?position_type=last")

		spec, err := parsePositionSpec(c)
		require.NoError(t, err)
		assert.Nil(t, spec.Index)
	})

	t.Run("non-integer index", func(t *testing.T) {
		c, _ := newTestContext(t, "/?position_index=abc")

		_, err := parsePositionSpec(c)
		assert.Equal(t, apperr.PositionIndexInvalid, apperr.KindOf(err))
	})
}

func TestParseListOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, _ := newTestContext(t, "/")

		opts := parseListOptions(c)
		assert.Equal(t, 1, opts.Page)
		assert.Equal(t, 10, opts.PerPage)
		assert.False(t, opts.Desc)
		assert.Empty(t, opts.Fields)
	})

	t.Run("descending sort prefix", func(t *testing.T) {
		c, _ := newTestContext(t, "/?page=3&per_page=25&sort=-created&fields=id,name&embed=properties,workty")

		opts := parseListOptions(c)
		assert.Equal(t, 3, opts.Page)
		assert.Equal(t, 25, opts.PerPage)
		assert.Equal(t, "created", opts.Sort)
		assert.True(t, opts.Desc)
		assert.Equal(t, []string{"id", "name"}, opts.Fields)
		assert.Equal(t, []string{"properties", "workty"}, opts.Embeds)
		assert.True(t, opts.HasEmbed("workty"))
		assert.False(t, opts.HasEmbed("workflow"))
	})
}

func TestProject(t *testing.T) {
	type doc struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Price int64  `json:"price"`
	}

	t.Run("keeps requested fields plus id", func(t *testing.T) {
		out := project(doc{ID: "w-1", Name: "CSV Normalizer", Price: 500}, []string{"name"})

		m, ok := out.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "w-1", m["id"])
		assert.Equal(t, "CSV Normalizer", m["name"])
		assert.NotContains(t, m, "price")
	})

	t.Run("projects each element of a list", func(t *testing.T) {
		out := project([]doc{{ID: "w-1", Price: 500}, {ID: "w-2", Price: 300}}, []string{"price"})

		list, ok := out.([]map[string]any)
		require.True(t, ok)
		require.Len(t, list, 2)
		assert.Equal(t, "w-2", list[1]["id"])
		assert.NotContains(t, list[0], "name")
	})

	t.Run("no field list passes through", func(t *testing.T) {
		d := doc{ID: "w-1"}
		assert.Equal(t, d, project(d, nil))
	})
}
