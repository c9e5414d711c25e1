package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/LOSS98/tunis-gp/internal/api/middleware"
	"github.com/LOSS98/tunis-gp/internal/common"
	"github.com/LOSS98/tunis-gp/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into dst, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithServiceError(w, fmt.Errorf("invalid request payload: %v: %w", err, common.ErrBadRequest))
		return false
	}
	return true
}

// principal returns the caller, or nil on routes with optional authentication.
func principal(r *http.Request) *model.Principal {
	p, _ := middleware.GetPrincipalFromContext(r.Context())
	return p
}
