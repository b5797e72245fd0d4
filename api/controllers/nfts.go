package controllers

import (
	"net/http"
	"strings"

	"github.com/xkartlabs/xkart-backend/api/responses"
	"github.com/xkartlabs/xkart-backend/api/validators"
	"github.com/xkartlabs/xkart-backend/internal/engine"
	"github.com/xkartlabs/xkart-backend/pkg/enums"
	pkgerrors "github.com/xkartlabs/xkart-backend/pkg/errors"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

type nftAttributeRequest struct {
	TraitType string `json:"trait_type" validate:"required"`
	Value     string `json:"value" validate:"required"`
}

type nftMintRequest struct {
	Name        string                `json:"name" validate:"required"`
	Description string                `json:"description"`
	ImageURL    string                `json:"image_url"`
	Type        string                `json:"type" validate:"required"`
	Rarity      string                `json:"rarity" validate:"required"`
	Attributes  []nftAttributeRequest `json:"attributes" validate:"dive"`
}

func (r nftMintRequest) toInput() (engine.MintNFTInput, error) {
	assetType, err := enums.ParseAssetType(strings.TrimSpace(r.Type))
	if err != nil {
		return engine.MintNFTInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid asset type")
	}
	rarity, err := enums.ParseRarity(strings.TrimSpace(r.Rarity))
	if err != nil {
		return engine.MintNFTInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid rarity")
	}

	attributes := make([]engine.Attribute, 0, len(r.Attributes))
	for _, attr := range r.Attributes {
		attributes = append(attributes, engine.Attribute{
			TraitType: strings.TrimSpace(attr.TraitType),
			Value:     strings.TrimSpace(attr.Value),
		})
	}

	return engine.MintNFTInput{
		Name:        strings.TrimSpace(r.Name),
		Description: strings.TrimSpace(r.Description),
		ImageURL:    strings.TrimSpace(r.ImageURL),
		Type:        assetType,
		Rarity:      rarity,
		Attributes:  attributes,
	}, nil
}

// NFTMint registers a new asset owned by the caller.
func NFTMint(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload nftMintRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := eng.MintNFT(caller, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		nft, err := eng.GetNFT(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, nft)
	}
}

type nftTransferRequest struct {
	To string `json:"to" validate:"required"`
}

// NFTTransfer hands an asset to another principal, clearing any listing.
func NFTTransfer(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parseIDParam(r, "nftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload nftTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		to := engine.Principal(strings.TrimSpace(payload.To))
		if err := eng.TransferNFT(caller, id, to); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		nft, err := eng.GetNFT(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nft)
	}
}

type nftListRequest struct {
	Price uint64 `json:"price" validate:"required"`
}

// NFTList puts an owned asset up for sale.
func NFTList(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parseIDParam(r, "nftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload nftListRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := eng.ListNFT(caller, id, payload.Price); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		nft, err := eng.GetNFT(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nft)
	}
}

// NFTDelist withdraws an active listing.
func NFTDelist(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return nftMutation(eng, logg, func(caller engine.Principal, id uint64) error {
		return eng.DelistNFT(caller, id)
	})
}

// NFTBuy purchases a listed asset at its asking price.
func NFTBuy(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return nftMutation(eng, logg, func(caller engine.Principal, id uint64) error {
		return eng.BuyNFT(caller, id)
	})
}

// NFTDetail returns one asset with its full history.
func NFTDetail(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseIDParam(r, "nftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		nft, err := eng.GetNFT(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nft)
	}
}

// NFTsByOwner returns every asset a principal owns, served by the owner
// index.
func NFTsByOwner(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.URL.Query().Get("owner"))
		if owner == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "owner query parameter required"))
			return
		}

		nfts := eng.ListOwnerNFTs(engine.Principal(owner))
		responses.WriteSuccess(w, map[string]any{"items": nfts})
	}
}

// NFTListings pages through assets currently for sale.
func NFTListings(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		afterID, limit, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		nfts := eng.ListListedNFTs(afterID, limit)
		responses.WriteSuccess(w, listPage(nfts, limit, func(n *engine.NFT) uint64 { return n.ID }))
	}
}

func nftMutation(eng *engine.Engine, logg *logger.Logger, op func(engine.Principal, uint64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parseIDParam(r, "nftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := op(caller, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		nft, err := eng.GetNFT(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nft)
	}
}
