package engine

import (
	"fmt"
	"time"

	"github.com/xkartlabs/xkart-backend/pkg/enums"
)

// Pledge is one investor's accumulated stake in a campaign. One entry per
// investor; repeat investments add to the existing entry and keep the
// first-pledge order, which fixes the refund order.
type Pledge struct {
	Investor Principal `json:"investor"`
	Amount   uint64    `json:"amount"`
}

// Campaign is a crowdfunding run for one asset class. Terminal campaigns
// are retained for audit.
type Campaign struct {
	ID            uint64               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	Creator       Principal            `json:"creator"`
	AssetType     enums.AssetType      `json:"asset_type"`
	TargetAmount  uint64               `json:"target_amount"`
	CurrentAmount uint64               `json:"current_amount"`
	Status        enums.CampaignStatus `json:"status"`
	Pledges       []Pledge             `json:"pledges"`
	CreatedAt     time.Time            `json:"created_at"`
	EndTime       time.Time            `json:"end_time"`
}

// RaceParticipant is a player entered into a race with their chosen
// assets. LapTimes is append-only while the race runs.
type RaceParticipant struct {
	Player   Principal `json:"player"`
	KartID   uint64    `json:"kart_id"`
	DriverID uint64    `json:"driver_id"`
	Position int       `json:"position"`
	LapTimes []uint64  `json:"lap_times"`
}

// Bet is a stake on a predicted winner, placed while the race is still
// upcoming and immutable afterwards.
type Bet struct {
	Bettor     Principal `json:"bettor"`
	Amount     uint64    `json:"amount"`
	Prediction Principal `json:"prediction"`
	PlacedAt   time.Time `json:"placed_at"`
}

// Race is the full lifecycle record of one race, including its bet book
// and pool accounting.
type Race struct {
	ID           uint64            `json:"id"`
	Name         string            `json:"name"`
	ArenaID      uint64            `json:"arena_id"`
	Status       enums.RaceStatus  `json:"status"`
	EntryFee     uint64            `json:"entry_fee"`
	PrizePool    uint64            `json:"prize_pool"`
	Participants []RaceParticipant `json:"participants"`
	Bets         []Bet             `json:"bets"`
	Winner       *Principal        `json:"winner,omitempty"`
	Distributed  bool              `json:"distributed"`
	CreatedAt    time.Time         `json:"created_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	EndedAt      *time.Time        `json:"ended_at,omitempty"`
}

// Attribute is one ordered metadata pair on an NFT.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// NFTTransaction is one entry in an NFT's append-only history. Price is
// nil for plain transfers and set for marketplace sales.
type NFTTransaction struct {
	Timestamp time.Time `json:"timestamp"`
	From      Principal `json:"from"`
	To        Principal `json:"to"`
	Price     *uint64   `json:"price,omitempty"`
}

// NFT is a registered game asset. ListedPrice present means for sale.
type NFT struct {
	ID          uint64           `json:"id"`
	Owner       Principal        `json:"owner"`
	Type        enums.AssetType  `json:"type"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	ImageURL    string           `json:"image_url"`
	Attributes  []Attribute      `json:"attributes"`
	Rarity      enums.Rarity     `json:"rarity"`
	ListedPrice *uint64          `json:"listed_price,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	History     []NFTTransaction `json:"history"`
}

// dedupKey identifies a transfer for replay protection inside the
// acceptance window.
type dedupKey struct {
	From      Account
	To        Account
	Amount    uint64
	Fee       uint64
	Memo      string
	CreatedAt int64
}

type dedupEntry struct {
	TxIndex   uint64
	CreatedAt time.Time
}

// state is the single aggregate every operation mutates. Maps keyed by id
// or account are the primary stores; the owner and listing indexes are
// secondary and rebuilt on restore.
type state struct {
	Balances map[Account]uint64
	Supply   uint64
	TxIndex  uint64

	Campaigns   map[uint64]*Campaign
	CampaignSeq uint64

	Races   map[uint64]*Race
	RaceSeq uint64

	NFTs   map[uint64]*NFT
	NFTSeq uint64

	Admins map[Principal]struct{}

	recentTransfers map[dedupKey]dedupEntry
	nftsByOwner     map[Principal]map[uint64]struct{}
	listedNFTs      map[uint64]struct{}
}

func newState() *state {
	return &state{
		Balances:        map[Account]uint64{},
		Campaigns:       map[uint64]*Campaign{},
		Races:           map[uint64]*Race{},
		NFTs:            map[uint64]*NFT{},
		Admins:          map[Principal]struct{}{},
		recentTransfers: map[dedupKey]dedupEntry{},
		nftsByOwner:     map[Principal]map[uint64]struct{}{},
		listedNFTs:      map[uint64]struct{}{},
	}
}

func (s *state) indexNFTOwner(id uint64, owner Principal) {
	set, ok := s.nftsByOwner[owner]
	if !ok {
		set = map[uint64]struct{}{}
		s.nftsByOwner[owner] = set
	}
	set[id] = struct{}{}
}

func (s *state) unindexNFTOwner(id uint64, owner Principal) {
	set, ok := s.nftsByOwner[owner]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(s.nftsByOwner, owner)
	}
}

func campaignSubaccount(id uint64) string {
	return fmt.Sprintf("campaign:%d", id)
}

func raceSubaccount(id uint64) string {
	return fmt.Sprintf("race:%d", id)
}

func clonePrincipal(p *Principal) *Principal {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUint64(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// cloneCampaign returns a copy safe to hand out of the mutex.
func cloneCampaign(c *Campaign) *Campaign {
	cp := *c
	cp.Pledges = append([]Pledge(nil), c.Pledges...)
	return &cp
}

func cloneRace(r *Race) *Race {
	cp := *r
	cp.Participants = make([]RaceParticipant, len(r.Participants))
	for i, p := range r.Participants {
		cp.Participants[i] = p
		cp.Participants[i].LapTimes = append([]uint64(nil), p.LapTimes...)
	}
	cp.Bets = append([]Bet(nil), r.Bets...)
	cp.Winner = clonePrincipal(r.Winner)
	cp.StartedAt = cloneTime(r.StartedAt)
	cp.EndedAt = cloneTime(r.EndedAt)
	return &cp
}

func cloneNFT(n *NFT) *NFT {
	cp := *n
	cp.Attributes = append([]Attribute(nil), n.Attributes...)
	cp.History = make([]NFTTransaction, len(n.History))
	for i, tx := range n.History {
		cp.History[i] = tx
		cp.History[i].Price = cloneUint64(tx.Price)
	}
	cp.ListedPrice = cloneUint64(n.ListedPrice)
	return &cp
}
