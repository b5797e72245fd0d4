package payloads

import (
	"time"

	"github.com/xkartlabs/xkart-backend/pkg/enums"
)

// TokensMintedEvent records supply entering circulation.
type TokensMintedEvent struct {
	To      string `json:"to"`
	Amount  uint64 `json:"amount"`
	TxIndex uint64 `json:"tx_index"`
}

// TokensTransferredEvent records one applied ledger transfer.
type TokensTransferredEvent struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Amount  uint64 `json:"amount"`
	Fee     uint64 `json:"fee"`
	TxIndex uint64 `json:"tx_index"`
}

// CampaignCreatedEvent signals a new crowdfunding campaign.
type CampaignCreatedEvent struct {
	CampaignID uint64          `json:"campaign_id"`
	Creator    string          `json:"creator"`
	AssetType  enums.AssetType `json:"asset_type"`
	Target     uint64          `json:"target"`
	EndTime    time.Time       `json:"end_time"`
}

// CampaignPledgedEvent is emitted for every accepted investment.
type CampaignPledgedEvent struct {
	CampaignID uint64 `json:"campaign_id"`
	Investor   string `json:"investor"`
	Amount     uint64 `json:"amount"`
	Current    uint64 `json:"current"`
}

// CampaignCompletedEvent signals escrow released to the creator.
type CampaignCompletedEvent struct {
	CampaignID uint64 `json:"campaign_id"`
	Raised     uint64 `json:"raised"`
	Creator    string `json:"creator"`
}

// CampaignFailedEvent signals a campaign closed short of target, with
// every pledge refunded.
type CampaignFailedEvent struct {
	CampaignID uint64 `json:"campaign_id"`
	Raised     uint64 `json:"raised"`
	Refunded   int    `json:"refunded"`
}

// RaceCreatedEvent signals a new race opened for entries.
type RaceCreatedEvent struct {
	RaceID   uint64 `json:"race_id"`
	ArenaID  uint64 `json:"arena_id"`
	EntryFee uint64 `json:"entry_fee"`
}

// RaceJoinedEvent records a paid entry.
type RaceJoinedEvent struct {
	RaceID   uint64 `json:"race_id"`
	Player   string `json:"player"`
	KartID   uint64 `json:"kart_id"`
	DriverID uint64 `json:"driver_id"`
	Pool     uint64 `json:"pool"`
}

// BetPlacedEvent records a stake on a predicted winner.
type BetPlacedEvent struct {
	RaceID     uint64 `json:"race_id"`
	Bettor     string `json:"bettor"`
	Amount     uint64 `json:"amount"`
	Prediction string `json:"prediction"`
}

// RaceStartedEvent freezes the roster.
type RaceStartedEvent struct {
	RaceID       uint64 `json:"race_id"`
	Participants int    `json:"participants"`
}

// RaceCompletedEvent carries the settled winner.
type RaceCompletedEvent struct {
	RaceID uint64 `json:"race_id"`
	Winner string `json:"winner"`
}

// RaceRewardsDistributedEvent records the prize pool draining out.
type RaceRewardsDistributedEvent struct {
	RaceID  uint64 `json:"race_id"`
	Winner  string `json:"winner"`
	Entries uint64 `json:"entries"`
	BetPool uint64 `json:"bet_pool"`
	Payouts int    `json:"payouts"`
}

// NFTMintedEvent signals a new asset entering the registry.
type NFTMintedEvent struct {
	NFTID  uint64          `json:"nft_id"`
	Owner  string          `json:"owner"`
	Type   enums.AssetType `json:"type"`
	Rarity enums.Rarity    `json:"rarity"`
}

// NFTTransferredEvent records an ownership change outside the market.
type NFTTransferredEvent struct {
	NFTID uint64 `json:"nft_id"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// NFTListedEvent puts an asset on the market.
type NFTListedEvent struct {
	NFTID uint64 `json:"nft_id"`
	Owner string `json:"owner"`
	Price uint64 `json:"price"`
}

// NFTDelistedEvent withdraws a listing.
type NFTDelistedEvent struct {
	NFTID uint64 `json:"nft_id"`
	Owner string `json:"owner"`
}

// NFTSoldEvent records a completed market sale.
type NFTSoldEvent struct {
	NFTID  uint64 `json:"nft_id"`
	Seller string `json:"seller"`
	Buyer  string `json:"buyer"`
	Price  uint64 `json:"price"`
}
