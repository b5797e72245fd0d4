package enums

import "fmt"

// AnalyticsEventType is the canonical event_type for analytics routing.
type AnalyticsEventType string

const (
	AnalyticsEventRaceCreated            AnalyticsEventType = "race_created"
	AnalyticsEventRaceJoined             AnalyticsEventType = "race_joined"
	AnalyticsEventRaceStarted            AnalyticsEventType = "race_started"
	AnalyticsEventRaceCompleted          AnalyticsEventType = "race_completed"
	AnalyticsEventRaceRewardsDistributed AnalyticsEventType = "race_rewards_distributed"
	AnalyticsEventBetPlaced              AnalyticsEventType = "bet_placed"
	AnalyticsEventNFTMinted              AnalyticsEventType = "nft_minted"
	AnalyticsEventNFTListed              AnalyticsEventType = "nft_listed"
	AnalyticsEventNFTSold                AnalyticsEventType = "nft_sold"
	AnalyticsEventCampaignPledged        AnalyticsEventType = "campaign_pledged"
	AnalyticsEventCampaignCompleted      AnalyticsEventType = "campaign_completed"
	AnalyticsEventCampaignFailed         AnalyticsEventType = "campaign_failed"
)

var validAnalyticsEventTypes = []AnalyticsEventType{
	AnalyticsEventRaceCreated,
	AnalyticsEventRaceJoined,
	AnalyticsEventRaceStarted,
	AnalyticsEventRaceCompleted,
	AnalyticsEventRaceRewardsDistributed,
	AnalyticsEventBetPlaced,
	AnalyticsEventNFTMinted,
	AnalyticsEventNFTListed,
	AnalyticsEventNFTSold,
	AnalyticsEventCampaignPledged,
	AnalyticsEventCampaignCompleted,
	AnalyticsEventCampaignFailed,
}

// IsValid reports whether the value matches the canonical analytics event_type enum.
func (a AnalyticsEventType) IsValid() bool {
	for _, candidate := range validAnalyticsEventTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAnalyticsEventType converts the raw string to AnalyticsEventType.
func ParseAnalyticsEventType(value string) (AnalyticsEventType, error) {
	for _, candidate := range validAnalyticsEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid analytics event type %q", value)
}
