package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/xkartlabs/xkart-backend/api/middleware"
	"github.com/xkartlabs/xkart-backend/api/responses"
	"github.com/xkartlabs/xkart-backend/api/validators"
	"github.com/xkartlabs/xkart-backend/internal/engine"
	pkgerrors "github.com/xkartlabs/xkart-backend/pkg/errors"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

type accountRequest struct {
	Owner      string `json:"owner" validate:"required"`
	Subaccount string `json:"subaccount"`
}

func (a accountRequest) toAccount() engine.Account {
	return engine.Account{
		Owner:      engine.Principal(strings.TrimSpace(a.Owner)),
		Subaccount: strings.TrimSpace(a.Subaccount),
	}
}

type transferRequest struct {
	FromSubaccount string          `json:"from_subaccount"`
	To             accountRequest  `json:"to" validate:"required"`
	Amount         uint64          `json:"amount" validate:"required"`
	Fee            *uint64         `json:"fee"`
	Memo           string          `json:"memo"`
	CreatedAtTime  *time.Time      `json:"created_at_time"`
}

// LedgerTransfer moves tokens from the authenticated caller to another
// account.
func LedgerTransfer(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.PrincipalFromContext(r.Context())
		if caller == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		var payload transferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txIndex, err := eng.Transfer(engine.Principal(caller), engine.TransferArgs{
			FromSubaccount: strings.TrimSpace(payload.FromSubaccount),
			To:             payload.To.toAccount(),
			Amount:         payload.Amount,
			Fee:            payload.Fee,
			Memo:           []byte(payload.Memo),
			CreatedAtTime:  payload.CreatedAtTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"tx_index": txIndex})
	}
}

// LedgerBalance reads any account balance. Balances are public state.
func LedgerBalance(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.URL.Query().Get("owner"))
		if owner == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "owner query parameter required"))
			return
		}
		subaccount := strings.TrimSpace(r.URL.Query().Get("subaccount"))

		account := engine.Account{Owner: engine.Principal(owner), Subaccount: subaccount}
		responses.WriteSuccess(w, map[string]any{
			"owner":      owner,
			"subaccount": subaccount,
			"balance":    eng.BalanceOf(account),
		})
	}
}

// LedgerSupply reports the current total supply and transaction index.
func LedgerSupply(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{
			"total_supply": eng.TotalSupply(),
			"tx_index":     eng.TxIndex(),
		})
	}
}

// LedgerFee reports the configured transfer fee so clients can pass it
// explicitly.
func LedgerFee(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"transfer_fee": eng.TransferFee()})
	}
}

type mintRequest struct {
	To     accountRequest `json:"to" validate:"required"`
	Amount uint64         `json:"amount" validate:"required"`
}

// LedgerMint credits newly created tokens. Admin surface.
func LedgerMint(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := middleware.PrincipalFromContext(r.Context())
		if caller == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing"))
			return
		}

		var payload mintRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to := payload.To.toAccount()
		if err := eng.Mint(engine.Principal(caller), to, payload.Amount); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"to":      payload.To.Owner,
			"amount":  payload.Amount,
			"balance": eng.BalanceOf(to),
		})
	}
}
