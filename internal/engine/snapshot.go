package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// SnapshotVersion tags the snapshot encoding. Restore rejects versions it
// does not know how to decode.
const SnapshotVersion = 1

type balanceEntry struct {
	Account Account `json:"account"`
	Amount  uint64  `json:"amount"`
}

type dedupRecord struct {
	From      Account   `json:"from"`
	To        Account   `json:"to"`
	Amount    uint64    `json:"amount"`
	Fee       uint64    `json:"fee"`
	Memo      string    `json:"memo"`
	CreatedAt int64     `json:"created_at"`
	TxIndex   uint64    `json:"tx_index"`
	Time      time.Time `json:"time"`
}

// snapshotDoc is the portable form of the full engine state. Collections
// are sorted so identical states encode to identical bytes.
type snapshotDoc struct {
	Version     int            `json:"version"`
	TakenAt     time.Time      `json:"taken_at"`
	Balances    []balanceEntry `json:"balances"`
	Supply      uint64         `json:"supply"`
	TxIndex     uint64         `json:"tx_index"`
	Dedup       []dedupRecord  `json:"dedup"`
	Campaigns   []*Campaign    `json:"campaigns"`
	CampaignSeq uint64         `json:"campaign_seq"`
	Races       []*Race        `json:"races"`
	RaceSeq     uint64         `json:"race_seq"`
	NFTs        []*NFT         `json:"nfts"`
	NFTSeq      uint64         `json:"nft_seq"`
	Admins      []Principal    `json:"admins"`
}

// Snapshot serializes the full engine state: balances, dedup index,
// campaigns, races, NFTs and the admin set. The bytes are sufficient to
// reconstruct identical behavior after a restart.
func (e *Engine) Snapshot() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc := snapshotDoc{
		Version:     SnapshotVersion,
		TakenAt:     e.now(),
		Supply:      e.st.Supply,
		TxIndex:     e.st.TxIndex,
		CampaignSeq: e.st.CampaignSeq,
		RaceSeq:     e.st.RaceSeq,
		NFTSeq:      e.st.NFTSeq,
	}

	doc.Balances = make([]balanceEntry, 0, len(e.st.Balances))
	for account, amount := range e.st.Balances {
		doc.Balances = append(doc.Balances, balanceEntry{Account: account, Amount: amount})
	}
	sort.Slice(doc.Balances, func(i, j int) bool {
		a, b := doc.Balances[i].Account, doc.Balances[j].Account
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		return a.Subaccount < b.Subaccount
	})

	doc.Dedup = make([]dedupRecord, 0, len(e.st.recentTransfers))
	for key, entry := range e.st.recentTransfers {
		doc.Dedup = append(doc.Dedup, dedupRecord{
			From:      key.From,
			To:        key.To,
			Amount:    key.Amount,
			Fee:       key.Fee,
			Memo:      key.Memo,
			CreatedAt: key.CreatedAt,
			TxIndex:   entry.TxIndex,
			Time:      entry.CreatedAt,
		})
	}
	sort.Slice(doc.Dedup, func(i, j int) bool { return doc.Dedup[i].TxIndex < doc.Dedup[j].TxIndex })

	doc.Campaigns = make([]*Campaign, 0, len(e.st.Campaigns))
	for _, campaign := range e.st.Campaigns {
		doc.Campaigns = append(doc.Campaigns, cloneCampaign(campaign))
	}
	sort.Slice(doc.Campaigns, func(i, j int) bool { return doc.Campaigns[i].ID < doc.Campaigns[j].ID })

	doc.Races = make([]*Race, 0, len(e.st.Races))
	for _, race := range e.st.Races {
		doc.Races = append(doc.Races, cloneRace(race))
	}
	sort.Slice(doc.Races, func(i, j int) bool { return doc.Races[i].ID < doc.Races[j].ID })

	doc.NFTs = make([]*NFT, 0, len(e.st.NFTs))
	for _, nft := range e.st.NFTs {
		doc.NFTs = append(doc.NFTs, cloneNFT(nft))
	}
	sort.Slice(doc.NFTs, func(i, j int) bool { return doc.NFTs[i].ID < doc.NFTs[j].ID })

	doc.Admins = make([]Principal, 0, len(e.st.Admins))
	for p := range e.st.Admins {
		doc.Admins = append(doc.Admins, p)
	}
	sort.Slice(doc.Admins, func(i, j int) bool { return doc.Admins[i] < doc.Admins[j] })

	return json.Marshal(doc)
}

// Restore replaces the engine state with a decoded snapshot, rebuilding
// the owner and listing indexes. The event buffer is cleared: events from
// the previous run were journaled before the snapshot was taken.
func (e *Engine) Restore(data []byte) error {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}
	if doc.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", doc.Version)
	}

	st := newState()
	st.Supply = doc.Supply
	st.TxIndex = doc.TxIndex
	st.CampaignSeq = doc.CampaignSeq
	st.RaceSeq = doc.RaceSeq
	st.NFTSeq = doc.NFTSeq

	var sum uint64
	for _, entry := range doc.Balances {
		st.Balances[entry.Account] = entry.Amount
		sum += entry.Amount
	}
	if sum != doc.Supply {
		return fmt.Errorf("snapshot balances sum to %d, supply says %d", sum, doc.Supply)
	}

	for _, rec := range doc.Dedup {
		key := dedupKey{
			From:      rec.From,
			To:        rec.To,
			Amount:    rec.Amount,
			Fee:       rec.Fee,
			Memo:      rec.Memo,
			CreatedAt: rec.CreatedAt,
		}
		st.recentTransfers[key] = dedupEntry{TxIndex: rec.TxIndex, CreatedAt: rec.Time}
	}

	for _, campaign := range doc.Campaigns {
		st.Campaigns[campaign.ID] = campaign
	}
	for _, race := range doc.Races {
		st.Races[race.ID] = race
	}
	for _, nft := range doc.NFTs {
		st.NFTs[nft.ID] = nft
		st.indexNFTOwner(nft.ID, nft.Owner)
		if nft.ListedPrice != nil {
			st.listedNFTs[nft.ID] = struct{}{}
		}
	}
	for _, p := range doc.Admins {
		st.Admins[p] = struct{}{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.st = st
	e.events = nil
	if e.observer != nil {
		e.observer.TotalSupply(st.Supply)
	}
	return nil
}
