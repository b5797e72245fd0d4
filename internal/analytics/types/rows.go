package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// RaceEventRow mirrors the race_events BigQuery schema. One row per race
// lifecycle or betting event.
type RaceEventRow struct {
	EventID      string             `bigquery:"event_id"`
	EventType    string             `bigquery:"event_type"`
	OccurredAt   time.Time          `bigquery:"occurred_at"`
	RaceID       int64              `bigquery:"race_id"`
	ArenaID      *int64             `bigquery:"arena_id"`
	Player       *string            `bigquery:"player"`
	Winner       *string            `bigquery:"winner"`
	EntryFee     *int64             `bigquery:"entry_fee"`
	StakeAmount  *int64             `bigquery:"stake_amount"`
	Prediction   *string            `bigquery:"prediction"`
	PrizePool    *int64             `bigquery:"prize_pool"`
	Participants *int64             `bigquery:"participants"`
	Payouts      *int64             `bigquery:"payouts"`
	Payload      cbigquery.NullJSON `bigquery:"payload"`
}

// MarketplaceEventRow mirrors the marketplace_events BigQuery schema.
// Covers NFT market activity and campaign funding flows.
type MarketplaceEventRow struct {
	EventID    string             `bigquery:"event_id"`
	EventType  string             `bigquery:"event_type"`
	OccurredAt time.Time          `bigquery:"occurred_at"`
	NFTID      *int64             `bigquery:"nft_id"`
	AssetType  *string            `bigquery:"asset_type"`
	Rarity     *string            `bigquery:"rarity"`
	Owner      *string            `bigquery:"owner"`
	Seller     *string            `bigquery:"seller"`
	Buyer      *string            `bigquery:"buyer"`
	PriceTKT   *int64             `bigquery:"price_tkt"`
	CampaignID *int64             `bigquery:"campaign_id"`
	Investor   *string            `bigquery:"investor"`
	AmountTKT  *int64             `bigquery:"amount_tkt"`
	RaisedTKT  *int64             `bigquery:"raised_tkt"`
	Payload    cbigquery.NullJSON `bigquery:"payload"`
}
