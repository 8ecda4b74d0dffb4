package api

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/pkg/models"
)

// parsePositionSpec reads the position_type/position_index/position_id query
// parameters. Precedence between them is resolved later by the composer.
func parsePositionSpec(c echo.Context) (models.PositionSpec, error) {
	spec := models.PositionSpec{
		Type: models.PositionType(c.QueryParam("position_type")),
		ID:   c.QueryParam("position_id"),
	}
	if v := c.QueryParam("position_index"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return spec, apperr.New(apperr.PositionIndexInvalid, "position_index must be an integer")
		}
		spec.Index = &n
	}
	return spec, nil
}

// parseListOptions reads pagination, sort, projection, and embed parameters.
// A sort key prefixed with "-" sorts descending.
func parseListOptions(c echo.Context) models.ListOptions {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))

	sort := c.QueryParam("sort")
	desc := false
	if strings.HasPrefix(sort, "-") {
		desc = true
		sort = sort[1:]
	}

	return models.ListOptions{
		Page:    page,
		PerPage: perPage,
		Sort:    sort,
		Desc:    desc,
		Fields:  splitCSV(c.QueryParam("fields")),
		Embeds:  splitCSV(c.QueryParam("embed")),
	}.Normalize()
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// project reduces a document (or list of documents) to the requested json
// fields. With no field list the value passes through untouched.
func project(v any, fields []string) any {
	if len(fields) == 0 {
		return v
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}

	keep := make(map[string]struct{}, len(fields)+1)
	keep["id"] = struct{}{} // ids always survive projection
	for _, f := range fields {
		keep[f] = struct{}{}
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		for i := range list {
			list[i] = filterKeys(list[i], keep)
		}
		return list
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err == nil {
		return filterKeys(doc, keep)
	}
	return v
}

func filterKeys(doc map[string]any, keep map[string]struct{}) map[string]any {
	for k := range doc {
		if _, ok := keep[k]; !ok {
			delete(doc, k)
		}
	}
	return doc
}
