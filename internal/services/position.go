package services

import (
	"worktyhub/backend/internal/apperr"
	"worktyhub/backend/pkg/models"
)

// ResolveInsertIndex turns a position spec into a concrete index in the
// current ordered id list. Hints are evaluated type, then index, then id; an
// explicit index wins over an id, and both win over the symbolic type.
//
// With no hints at all a non-empty list resolves to len-1, one short of a
// true append. That near-append default is long-standing observable behavior
// and is kept as is.
func ResolveInsertIndex(spec models.PositionSpec, current []string) (int, error) {
	idx := 0
	if len(current) > 0 {
		idx = len(current) - 1
	}

	if spec.Type != "" {
		switch spec.Type {
		case models.PositionFirst:
			idx = 0
		case models.PositionLast:
			idx = len(current)
		default:
			return 0, apperr.Newf(apperr.PositionTypeInvalid, "unknown position type %q", spec.Type)
		}
	}

	if spec.Index != nil {
		n := *spec.Index
		if n < 0 || n > len(current) {
			return 0, apperr.Newf(apperr.PositionIndexInvalid, "position index %d out of range [0,%d]", n, len(current))
		}
		return n, nil
	}

	if spec.ID != "" {
		for i, id := range current {
			if id == spec.ID {
				return i, nil
			}
		}
		return 0, apperr.Newf(apperr.PositionIdInvalid, "position id %q not in workflow", spec.ID)
	}

	return idx, nil
}

// spliceAt returns a copy of ids with id inserted at idx. Callers validate
// idx via ResolveInsertIndex first.
func spliceAt(ids []string, id string, idx int) []string {
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:idx]...)
	out = append(out, id)
	out = append(out, ids[idx:]...)
	return out
}

// removeFirst returns a copy of ids with the first occurrence of id removed,
// and whether a removal happened.
func removeFirst(ids []string, id string) ([]string, bool) {
	for i, v := range ids {
		if v == id {
			out := make([]string, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			out = append(out, ids[i+1:]...)
			return out, true
		}
	}
	return ids, false
}
