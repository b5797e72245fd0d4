package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xkartlabs/xkart-backend/pkg/enums"
)

// MintNFTInput carries the metadata of a new game asset.
type MintNFTInput struct {
	Name        string
	Description string
	ImageURL    string
	Type        enums.AssetType
	Rarity      enums.Rarity
	Attributes  []Attribute
}

// MintNFT registers a new asset owned by the caller. Minting is admin
// only unless the open-minting policy flag is set.
func (e *Engine) MintNFT(caller Principal, input MintNFTInput) (id uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("mint_nft", start, err) }(e.now())

	if caller == "" {
		return 0, errUnauthorized("caller required")
	}
	if !e.policy.OpenNFTMinting && !e.isAdmin(caller) {
		return 0, errUnauthorized("nft minting requires admin")
	}
	if strings.TrimSpace(input.Name) == "" {
		return 0, errValidation("name required")
	}
	if !input.Type.IsValid() {
		return 0, errValidation("unknown asset type")
	}
	if !input.Rarity.IsValid() {
		return 0, errValidation("unknown rarity")
	}

	now := e.now()
	e.st.NFTSeq++
	nft := &NFT{
		ID:          e.st.NFTSeq,
		Owner:       caller,
		Type:        input.Type,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Attributes:  append([]Attribute(nil), input.Attributes...),
		Rarity:      input.Rarity,
		CreatedAt:   now,
	}
	e.st.NFTs[nft.ID] = nft
	e.st.indexNFTOwner(nft.ID, caller)

	e.appendEvent(enums.AggregateNFT, nftEventID(nft.ID), enums.EventNFTMinted, now, map[string]any{
		"nft_id": nft.ID,
		"owner":  caller,
		"type":   nft.Type,
		"rarity": nft.Rarity,
	})
	return nft.ID, nil
}

// TransferNFT reassigns ownership. An active listing is cleared
// implicitly: a transferred NFT must never remain purchasable under its
// old owner's listing.
func (e *Engine) TransferNFT(caller Principal, id uint64, to Principal) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("transfer_nft", start, err) }(e.now())

	if to == "" {
		return errValidation("recipient required")
	}
	nft, ok := e.st.NFTs[id]
	if !ok {
		return errNotFound("nft", id)
	}
	if nft.Owner != caller {
		return errUnauthorized("only the owner can transfer")
	}
	if to == caller {
		return errValidation("cannot transfer to self")
	}

	now := e.now()
	e.st.unindexNFTOwner(id, caller)
	e.st.indexNFTOwner(id, to)
	delete(e.st.listedNFTs, id)
	nft.Owner = to
	nft.ListedPrice = nil
	nft.History = append(nft.History, NFTTransaction{
		Timestamp: now,
		From:      caller,
		To:        to,
	})

	e.appendEvent(enums.AggregateNFT, nftEventID(id), enums.EventNFTTransferred, now, map[string]any{
		"nft_id": id,
		"from":   caller,
		"to":     to,
	})
	return nil
}

// ListNFT puts an owned NFT up for sale at price.
func (e *Engine) ListNFT(caller Principal, id, price uint64) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("list_nft", start, err) }(e.now())

	if price == 0 {
		return errValidation("price must be positive")
	}
	nft, ok := e.st.NFTs[id]
	if !ok {
		return errNotFound("nft", id)
	}
	if nft.Owner != caller {
		return errUnauthorized("only the owner can list")
	}

	nft.ListedPrice = &price
	e.st.listedNFTs[id] = struct{}{}

	e.appendEvent(enums.AggregateNFT, nftEventID(id), enums.EventNFTListed, e.now(), map[string]any{
		"nft_id": id,
		"owner":  caller,
		"price":  price,
	})
	return nil
}

// DelistNFT withdraws an active listing.
func (e *Engine) DelistNFT(caller Principal, id uint64) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("delist_nft", start, err) }(e.now())

	nft, ok := e.st.NFTs[id]
	if !ok {
		return errNotFound("nft", id)
	}
	if nft.Owner != caller {
		return errUnauthorized("only the owner can delist")
	}
	if nft.ListedPrice == nil {
		return errStateConflict(fmt.Sprintf("nft %d is not listed", id))
	}

	nft.ListedPrice = nil
	delete(e.st.listedNFTs, id)

	e.appendEvent(enums.AggregateNFT, nftEventID(id), enums.EventNFTDelisted, e.now(), map[string]any{
		"nft_id": id,
		"owner":  caller,
	})
	return nil
}

// BuyNFT purchases a listed NFT at its listed price: payment, ownership
// flip, listing clear and history append happen as one step.
func (e *Engine) BuyNFT(caller Principal, id uint64) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("buy_nft", start, err) }(e.now())

	if caller == "" {
		return errUnauthorized("caller required")
	}
	nft, ok := e.st.NFTs[id]
	if !ok {
		return errNotFound("nft", id)
	}
	if nft.ListedPrice == nil {
		return errStateConflict(fmt.Sprintf("nft %d is not listed", id))
	}
	if nft.Owner == caller {
		return errValidation("cannot buy your own listing")
	}

	price := *nft.ListedPrice
	seller := nft.Owner
	if moveErr := e.debitThenCredit(Account{Owner: caller}, Account{Owner: seller}, price); moveErr != nil {
		return moveErr
	}

	now := e.now()
	e.st.unindexNFTOwner(id, seller)
	e.st.indexNFTOwner(id, caller)
	delete(e.st.listedNFTs, id)
	nft.Owner = caller
	nft.ListedPrice = nil
	nft.History = append(nft.History, NFTTransaction{
		Timestamp: now,
		From:      seller,
		To:        caller,
		Price:     &price,
	})

	e.appendEvent(enums.AggregateNFT, nftEventID(id), enums.EventNFTSold, now, map[string]any{
		"nft_id": id,
		"seller": seller,
		"buyer":  caller,
		"price":  price,
	})
	return nil
}

// GetNFT returns a copy of the NFT with its full history.
func (e *Engine) GetNFT(id uint64) (*NFT, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	nft, ok := e.st.NFTs[id]
	if !ok {
		return nil, errNotFound("nft", id)
	}
	return cloneNFT(nft), nil
}

// ListOwnerNFTs returns the owner's NFTs by ascending id, served from the
// owner index rather than a registry scan.
func (e *Engine) ListOwnerNFTs(owner Principal) []*NFT {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]uint64, 0, len(e.st.nftsByOwner[owner]))
	for id := range e.st.nftsByOwner[owner] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*NFT, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneNFT(e.st.NFTs[id]))
	}
	return out
}

// ListListedNFTs pages through listed NFTs by ascending id, served from
// the listing index.
func (e *Engine) ListListedNFTs(afterID uint64, limit int) []*NFT {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]uint64, 0, len(e.st.listedNFTs))
	for id := range e.st.listedNFTs {
		if id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]*NFT, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneNFT(e.st.NFTs[id]))
	}
	return out
}

func nftEventID(id uint64) string {
	return fmt.Sprintf("%d", id)
}
