package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xkartlabs/xkart-backend/pkg/enums"
)

// CreateCampaignInput carries the caller-validated campaign fields.
type CreateCampaignInput struct {
	Name         string
	Description  string
	TargetAmount uint64
	AssetType    enums.AssetType
	Duration     time.Duration
}

// CreateCampaign opens a crowdfunding campaign ending Duration from now.
func (e *Engine) CreateCampaign(caller Principal, input CreateCampaignInput) (id uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("create_campaign", start, err) }(e.now())

	if caller == "" {
		return 0, errUnauthorized("caller required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return 0, errValidation("name required")
	}
	if input.TargetAmount == 0 {
		return 0, errValidation("target amount must be positive")
	}
	if input.Duration <= 0 {
		return 0, errValidation("duration must be positive")
	}
	if !input.AssetType.IsValid() {
		return 0, errValidation("unknown asset type")
	}

	now := e.now()
	e.st.CampaignSeq++
	campaign := &Campaign{
		ID:           e.st.CampaignSeq,
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Creator:      caller,
		AssetType:    input.AssetType,
		TargetAmount: input.TargetAmount,
		Status:       enums.CampaignStatusActive,
		CreatedAt:    now,
		EndTime:      now.Add(input.Duration),
	}
	e.st.Campaigns[campaign.ID] = campaign

	e.appendEvent(enums.AggregateCampaign, campaignEventID(campaign.ID), enums.EventCampaignCreated, now, map[string]any{
		"campaign_id": campaign.ID,
		"creator":     caller,
		"asset_type":  campaign.AssetType,
		"target":      campaign.TargetAmount,
		"end_time":    campaign.EndTime,
	})
	return campaign.ID, nil
}

// Invest pledges amount into an active campaign. Funds move into the
// campaign escrow in the same step as the pledge is recorded. A campaign
// whose deadline has passed is closed lazily here before the pledge is
// rejected, so correctness never depends on the sweep scheduler being
// alive. Reaching the target completes the campaign within the same call.
func (e *Engine) Invest(caller Principal, campaignID, amount uint64) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("invest", start, err) }(e.now())

	if caller == "" {
		return errUnauthorized("caller required")
	}
	if amount == 0 {
		return errValidation("amount must be positive")
	}
	campaign, ok := e.st.Campaigns[campaignID]
	if !ok {
		return errNotFound("campaign", campaignID)
	}

	now := e.now()
	if campaign.Status == enums.CampaignStatusActive && !now.Before(campaign.EndTime) {
		if closeErr := e.closeCampaignLocked(campaign, now); closeErr != nil {
			return closeErr
		}
	}
	if campaign.Status != enums.CampaignStatusActive {
		return errStateConflict(fmt.Sprintf("campaign %d is %s", campaignID, campaign.Status))
	}

	investor := Account{Owner: caller}
	if moveErr := e.debitThenCredit(investor, e.campaignEscrow(campaign.ID), amount); moveErr != nil {
		return moveErr
	}

	// One pledge entry per investor; repeats accumulate in place so the
	// refund order stays the first-pledge order.
	found := false
	for i := range campaign.Pledges {
		if campaign.Pledges[i].Investor == caller {
			campaign.Pledges[i].Amount += amount
			found = true
			break
		}
	}
	if !found {
		campaign.Pledges = append(campaign.Pledges, Pledge{Investor: caller, Amount: amount})
	}
	campaign.CurrentAmount += amount

	e.appendEvent(enums.AggregateCampaign, campaignEventID(campaign.ID), enums.EventCampaignPledged, now, map[string]any{
		"campaign_id": campaign.ID,
		"investor":    caller,
		"amount":      amount,
		"current":     campaign.CurrentAmount,
	})

	if campaign.CurrentAmount >= campaign.TargetAmount {
		if closeErr := e.closeCampaignLocked(campaign, now); closeErr != nil {
			return closeErr
		}
	}
	return nil
}

// SweepDueCampaigns closes every active campaign whose deadline has
// passed: release to the creator when the target was met, full refund
// otherwise. Invoked by the scheduler; returns the ids closed.
func (e *Engine) SweepDueCampaigns() (closed []uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("sweep_campaigns", start, err) }(e.now())

	now := e.now()
	due := make([]uint64, 0)
	for id, campaign := range e.st.Campaigns {
		if campaign.Status == enums.CampaignStatusActive && !now.Before(campaign.EndTime) {
			due = append(due, id)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })

	for _, id := range due {
		if closeErr := e.closeCampaignLocked(e.st.Campaigns[id], now); closeErr != nil {
			err = closeErr
			return closed, err
		}
		closed = append(closed, id)
	}
	return closed, nil
}

// closeCampaignLocked finalizes an active campaign. Target met: escrow
// releases to the creator and the campaign completes. Target missed:
// every pledge refunds from escrow in pledge order and the campaign
// fails. The escrow holds exactly CurrentAmount by construction, so a
// movement failure here is an accounting defect, not a business error.
func (e *Engine) closeCampaignLocked(campaign *Campaign, now time.Time) error {
	escrow := e.campaignEscrow(campaign.ID)
	if held := e.st.Balances[escrow]; held != campaign.CurrentAmount {
		return errInvariant("campaign %d escrow holds %d, pledged %d", campaign.ID, held, campaign.CurrentAmount)
	}

	if campaign.CurrentAmount >= campaign.TargetAmount {
		if err := e.debitThenCredit(escrow, Account{Owner: campaign.Creator}, campaign.CurrentAmount); err != nil {
			return errInvariant("campaign %d release failed: %v", campaign.ID, err)
		}
		campaign.Status = enums.CampaignStatusCompleted
		e.appendEvent(enums.AggregateCampaign, campaignEventID(campaign.ID), enums.EventCampaignCompleted, now, map[string]any{
			"campaign_id": campaign.ID,
			"raised":      campaign.CurrentAmount,
			"creator":     campaign.Creator,
		})
		return nil
	}

	for _, pledge := range campaign.Pledges {
		if err := e.debitThenCredit(escrow, Account{Owner: pledge.Investor}, pledge.Amount); err != nil {
			return errInvariant("campaign %d refund to %s failed: %v", campaign.ID, pledge.Investor, err)
		}
	}
	campaign.Status = enums.CampaignStatusFailed
	e.appendEvent(enums.AggregateCampaign, campaignEventID(campaign.ID), enums.EventCampaignFailed, now, map[string]any{
		"campaign_id": campaign.ID,
		"raised":      campaign.CurrentAmount,
		"refunded":    len(campaign.Pledges),
	})
	return nil
}

// GetCampaign returns a copy of the campaign.
func (e *Engine) GetCampaign(id uint64) (*Campaign, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	campaign, ok := e.st.Campaigns[id]
	if !ok {
		return nil, errNotFound("campaign", id)
	}
	return cloneCampaign(campaign), nil
}

// ListActiveCampaigns pages through active campaigns by ascending id.
func (e *Engine) ListActiveCampaigns(afterID uint64, limit int) []*Campaign {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]uint64, 0)
	for id, campaign := range e.st.Campaigns {
		if campaign.Status == enums.CampaignStatusActive && id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]*Campaign, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneCampaign(e.st.Campaigns[id]))
	}
	return out
}

func campaignEventID(id uint64) string {
	return fmt.Sprintf("%d", id)
}
