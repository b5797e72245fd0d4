package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xkartlabs/xkart-backend/api/middleware"
	"github.com/xkartlabs/xkart-backend/api/responses"
	"github.com/xkartlabs/xkart-backend/api/validators"
	"github.com/xkartlabs/xkart-backend/internal/engine"
	"github.com/xkartlabs/xkart-backend/pkg/enums"
	pkgerrors "github.com/xkartlabs/xkart-backend/pkg/errors"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
	"github.com/xkartlabs/xkart-backend/pkg/pagination"
)

type campaignCreateRequest struct {
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description"`
	TargetAmount    uint64 `json:"target_amount" validate:"required"`
	AssetType       string `json:"asset_type" validate:"required"`
	DurationSeconds uint64 `json:"duration_seconds" validate:"required"`
}

func (r campaignCreateRequest) toInput() (engine.CreateCampaignInput, error) {
	assetType, err := enums.ParseAssetType(strings.TrimSpace(r.AssetType))
	if err != nil {
		return engine.CreateCampaignInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid asset type")
	}
	return engine.CreateCampaignInput{
		Name:         strings.TrimSpace(r.Name),
		Description:  strings.TrimSpace(r.Description),
		TargetAmount: r.TargetAmount,
		AssetType:    assetType,
		Duration:     time.Duration(r.DurationSeconds) * time.Second,
	}, nil
}

// CampaignCreate opens a crowdfunding campaign owned by the caller.
func CampaignCreate(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.PrincipalFromContext(r.Context())
		if caller == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		var payload campaignCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := eng.CreateCampaign(engine.Principal(caller), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaign, err := eng.GetCampaign(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, campaign)
	}
}

type investRequest struct {
	Amount uint64 `json:"amount" validate:"required"`
}

// CampaignInvest pledges tokens from the caller into a campaign.
func CampaignInvest(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.PrincipalFromContext(r.Context())
		if caller == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		id, err := parseIDParam(r, "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload investRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := eng.Invest(engine.Principal(caller), id, payload.Amount); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaign, err := eng.GetCampaign(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, campaign)
	}
}

// CampaignDetail returns one campaign, terminal ones included.
func CampaignDetail(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaign, err := eng.GetCampaign(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, campaign)
	}
}

// CampaignList pages through active campaigns ordered by id.
func CampaignList(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		afterID, limit, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaigns := eng.ListActiveCampaigns(afterID, limit)
		responses.WriteSuccess(w, listPage(campaigns, limit, func(c *engine.Campaign) uint64 { return c.ID }))
	}
}

func parseIDParam(r *http.Request, name string) (uint64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid id").WithDetails(map[string]any{"param": name})
	}
	return id, nil
}

func listParams(r *http.Request) (afterID uint64, limit int, err error) {
	limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	afterID, err = pagination.ParseCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		return 0, 0, err
	}
	return afterID, pagination.NormalizeLimit(limit), nil
}

type listEnvelope[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// listPage wraps a page of results with the cursor of the last item when
// the page is full, so callers know another fetch may yield more.
func listPage[T any](items []T, limit int, id func(T) uint64) listEnvelope[T] {
	page := listEnvelope[T]{Items: items}
	if len(items) == limit && limit > 0 {
		page.NextCursor = pagination.EncodeCursor(id(items[len(items)-1]))
	}
	return page
}
