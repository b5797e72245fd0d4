package controllers

import (
	"net/http"
	"strings"

	"github.com/xkartlabs/xkart-backend/api/responses"
	"github.com/xkartlabs/xkart-backend/api/validators"
	"github.com/xkartlabs/xkart-backend/internal/engine"
	pkgerrors "github.com/xkartlabs/xkart-backend/pkg/errors"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

type adminAddRequest struct {
	Principal string `json:"principal" validate:"required"`
}

// AdminAdd grants engine admin rights to a principal.
func AdminAdd(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adminAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		grantee := engine.Principal(strings.TrimSpace(payload.Principal))
		if grantee == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "principal required"))
			return
		}

		if err := eng.AddAdmin(caller, grantee); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"principal": string(grantee)})
	}
}

// AdminList returns the sorted admin set.
func AdminList(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		admins, err := eng.Admins(caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"admins": admins})
	}
}
