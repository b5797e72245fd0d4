package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/xkartlabs/xkart-backend/api/responses"
	"github.com/xkartlabs/xkart-backend/api/validators"
	pkgAuth "github.com/xkartlabs/xkart-backend/pkg/auth"
	"github.com/xkartlabs/xkart-backend/pkg/config"
	"github.com/xkartlabs/xkart-backend/pkg/enums"
	pkgerrors "github.com/xkartlabs/xkart-backend/pkg/errors"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

type devTokenRequest struct {
	Principal string `json:"principal" validate:"required"`
	Role      string `json:"role" validate:"required"`
}

// DevTokenMint issues access tokens for local development and staging.
// The identity collaborator owns token issuance in production; the route
// is only mounted outside prod.
func DevTokenMint(cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload devTokenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseActorRole(strings.TrimSpace(payload.Role))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid actor role"))
			return
		}

		token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
			Principal: strings.TrimSpace(payload.Principal),
			Role:      role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(cfg.JWT.AccessTokenTTL().Seconds()),
		})
	}
}
