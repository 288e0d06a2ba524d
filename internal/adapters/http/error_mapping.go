package httpadapter

import (
	"errors"
	"net/http"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

// mapErrorToHTTPStatus checks ResolveError first because a failed resolution
// also unwraps to the last candidate error, whatever its kind.
func mapErrorToHTTPStatus(err error) int {
	var resolveErr *domain.ResolveError
	switch {
	case errors.As(err, &resolveErr):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrNoResults):
		return http.StatusOK
	case domain.IsKind(err, domain.ErrEmptyQuery),
		domain.IsKind(err, domain.ErrEmptyKeywordList),
		domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrSchemaInvalid):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrUnknownDomain),
		domain.IsKind(err, domain.ErrSessionNotFound),
		domain.IsKind(err, domain.ErrRecordNotFound),
		domain.IsKind(err, domain.ErrMissingFilename):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrResourceUnresolvable):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	case domain.IsKind(err, domain.ErrSourceUnavailable),
		domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error      string   `json:"error"`
	Kind       string   `json:"kind"`
	Candidates []string `json:"candidates,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	status := mapErrorToHTTPStatus(err)
	resp := errorResponse{Error: err.Error(), Kind: domain.Outcome(err)}
	var resolveErr *domain.ResolveError
	if errors.As(err, &resolveErr) {
		resp.Candidates = resolveErr.Candidates
	}
	if status == http.StatusInternalServerError {
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}
