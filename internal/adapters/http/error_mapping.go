package httpadapter

import (
	"net/http"

	"github.com/crimsonops/policygen/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrOrganizationNotFound),
		domain.IsKind(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrUnauthorized),
		domain.IsKind(err, domain.ErrPublishFailed):
		// The registry rejected us, not the caller.
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
