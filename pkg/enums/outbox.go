package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column on outbox rows.
type OutboxAggregateType string

const (
	AggregateLedger   OutboxAggregateType = "ledger"
	AggregateCampaign OutboxAggregateType = "campaign"
	AggregateRace     OutboxAggregateType = "race"
	AggregateNFT      OutboxAggregateType = "nft"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateLedger,
	AggregateCampaign,
	AggregateRace,
	AggregateNFT,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column on outbox rows.
type OutboxEventType string

const (
	EventTokensMinted           OutboxEventType = "tokens_minted"
	EventTokensTransferred      OutboxEventType = "tokens_transferred"
	EventCampaignCreated        OutboxEventType = "campaign_created"
	EventCampaignPledged        OutboxEventType = "campaign_pledged"
	EventCampaignCompleted      OutboxEventType = "campaign_completed"
	EventCampaignFailed         OutboxEventType = "campaign_failed"
	EventRaceCreated            OutboxEventType = "race_created"
	EventRaceJoined             OutboxEventType = "race_joined"
	EventRaceStarted            OutboxEventType = "race_started"
	EventRaceCompleted          OutboxEventType = "race_completed"
	EventRaceRewardsDistributed OutboxEventType = "race_rewards_distributed"
	EventBetPlaced              OutboxEventType = "bet_placed"
	EventNFTMinted              OutboxEventType = "nft_minted"
	EventNFTTransferred         OutboxEventType = "nft_transferred"
	EventNFTListed              OutboxEventType = "nft_listed"
	EventNFTDelisted            OutboxEventType = "nft_delisted"
	EventNFTSold                OutboxEventType = "nft_sold"
)

var validOutboxEventTypes = []OutboxEventType{
	EventTokensMinted,
	EventTokensTransferred,
	EventCampaignCreated,
	EventCampaignPledged,
	EventCampaignCompleted,
	EventCampaignFailed,
	EventRaceCreated,
	EventRaceJoined,
	EventRaceStarted,
	EventRaceCompleted,
	EventRaceRewardsDistributed,
	EventBetPlaced,
	EventNFTMinted,
	EventNFTTransferred,
	EventNFTListed,
	EventNFTDelisted,
	EventNFTSold,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
