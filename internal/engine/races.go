package engine

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"
	"time"

	"github.com/xkartlabs/xkart-backend/pkg/enums"
)

// CreateRaceInput carries the race creation fields. ArenaID must reference
// a registered Arena NFT.
type CreateRaceInput struct {
	Name     string
	ArenaID  uint64
	EntryFee uint64
}

// ProgressUpdate is a telemetry batch from the trusted race operator.
// Positions overwrite; lap times append.
type ProgressUpdate struct {
	Positions map[Principal]int
	LapTimes  map[Principal][]uint64
}

// CreateRace schedules a race. Admin only: race lifecycle is the trusted
// operator surface.
func (e *Engine) CreateRace(caller Principal, input CreateRaceInput) (id uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("create_race", start, err) }(e.now())

	if !e.isAdmin(caller) {
		return 0, errUnauthorized("race creation requires admin")
	}
	if strings.TrimSpace(input.Name) == "" {
		return 0, errValidation("name required")
	}
	arena, ok := e.st.NFTs[input.ArenaID]
	if !ok {
		return 0, errNotFound("arena", input.ArenaID)
	}
	if arena.Type != enums.AssetTypeArena {
		return 0, errValidation(fmt.Sprintf("nft %d is a %s, not an arena", input.ArenaID, arena.Type))
	}

	now := e.now()
	e.st.RaceSeq++
	race := &Race{
		ID:        e.st.RaceSeq,
		Name:      strings.TrimSpace(input.Name),
		ArenaID:   input.ArenaID,
		Status:    enums.RaceStatusUpcoming,
		EntryFee:  input.EntryFee,
		CreatedAt: now,
	}
	e.st.Races[race.ID] = race

	e.appendEvent(enums.AggregateRace, raceEventID(race.ID), enums.EventRaceCreated, now, map[string]any{
		"race_id":   race.ID,
		"arena_id":  race.ArenaID,
		"entry_fee": race.EntryFee,
	})
	return race.ID, nil
}

// JoinRace enters the caller into an upcoming race with their chosen kart
// and driver. The entry fee moves into the race pool in the same step the
// participant is recorded.
func (e *Engine) JoinRace(caller Principal, raceID, kartID, driverID uint64) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("join_race", start, err) }(e.now())

	if caller == "" {
		return errUnauthorized("caller required")
	}
	race, ok := e.st.Races[raceID]
	if !ok {
		return errNotFound("race", raceID)
	}
	if race.Status != enums.RaceStatusUpcoming {
		return errStateConflict(fmt.Sprintf("race %d is %s", raceID, race.Status))
	}
	for _, p := range race.Participants {
		if p.Player == caller {
			return errStateConflict(fmt.Sprintf("already joined race %d", raceID))
		}
	}
	if checkErr := e.requireOwnedAsset(caller, kartID, enums.AssetTypeKart); checkErr != nil {
		return checkErr
	}
	if checkErr := e.requireOwnedAsset(caller, driverID, enums.AssetTypeDriver); checkErr != nil {
		return checkErr
	}

	if moveErr := e.debitThenCredit(Account{Owner: caller}, e.racePool(race.ID), race.EntryFee); moveErr != nil {
		return moveErr
	}
	race.PrizePool += race.EntryFee
	race.Participants = append(race.Participants, RaceParticipant{
		Player:   caller,
		KartID:   kartID,
		DriverID: driverID,
	})

	e.appendEvent(enums.AggregateRace, raceEventID(race.ID), enums.EventRaceJoined, e.now(), map[string]any{
		"race_id":   race.ID,
		"player":    caller,
		"kart_id":   kartID,
		"driver_id": driverID,
		"pool":      race.PrizePool,
	})
	return nil
}

// PlaceBet stakes amount on a predicted winner of an upcoming race. The
// stake moves into the race pool with the bet record.
func (e *Engine) PlaceBet(caller Principal, raceID, amount uint64, prediction Principal) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("place_bet", start, err) }(e.now())

	if caller == "" {
		return errUnauthorized("caller required")
	}
	if amount == 0 {
		return errValidation("amount must be positive")
	}
	race, ok := e.st.Races[raceID]
	if !ok {
		return errNotFound("race", raceID)
	}
	if race.Status != enums.RaceStatusUpcoming {
		return errStateConflict(fmt.Sprintf("race %d is %s", raceID, race.Status))
	}
	participant := false
	for _, p := range race.Participants {
		if p.Player == prediction {
			participant = true
			break
		}
	}
	if !participant {
		return errValidation(fmt.Sprintf("prediction %s is not a participant of race %d", prediction, raceID))
	}

	if moveErr := e.debitThenCredit(Account{Owner: caller}, e.racePool(race.ID), amount); moveErr != nil {
		return moveErr
	}
	race.PrizePool += amount
	race.Bets = append(race.Bets, Bet{
		Bettor:     caller,
		Amount:     amount,
		Prediction: prediction,
		PlacedAt:   e.now(),
	})

	e.appendEvent(enums.AggregateRace, raceEventID(race.ID), enums.EventBetPlaced, e.now(), map[string]any{
		"race_id":    race.ID,
		"bettor":     caller,
		"amount":     amount,
		"prediction": prediction,
	})
	return nil
}

// StartRace moves an upcoming race in progress. Admin only; the roster is
// frozen from here on.
func (e *Engine) StartRace(caller Principal, raceID uint64) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("start_race", start, err) }(e.now())

	if !e.isAdmin(caller) {
		return errUnauthorized("race start requires admin")
	}
	race, ok := e.st.Races[raceID]
	if !ok {
		return errNotFound("race", raceID)
	}
	if race.Status != enums.RaceStatusUpcoming {
		return errStateConflict(fmt.Sprintf("race %d is %s", raceID, race.Status))
	}
	if len(race.Participants) == 0 {
		return errStateConflict(fmt.Sprintf("race %d has no participants", raceID))
	}

	now := e.now()
	race.Status = enums.RaceStatusInProgress
	race.StartedAt = &now

	e.appendEvent(enums.AggregateRace, raceEventID(race.ID), enums.EventRaceStarted, now, map[string]any{
		"race_id":      race.ID,
		"participants": len(race.Participants),
	})
	return nil
}

// UpdateRaceProgress applies an operator telemetry batch to a running
// race. The batch is validated in full before anything applies: one
// unknown player rejects the whole update.
func (e *Engine) UpdateRaceProgress(caller Principal, raceID uint64, update ProgressUpdate) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("update_race_progress", start, err) }(e.now())

	if !e.isAdmin(caller) {
		return errUnauthorized("race progress requires admin")
	}
	race, ok := e.st.Races[raceID]
	if !ok {
		return errNotFound("race", raceID)
	}
	if race.Status != enums.RaceStatusInProgress {
		return errStateConflict(fmt.Sprintf("race %d is %s", raceID, race.Status))
	}

	byPlayer := make(map[Principal]*RaceParticipant, len(race.Participants))
	for i := range race.Participants {
		byPlayer[race.Participants[i].Player] = &race.Participants[i]
	}
	for player := range update.Positions {
		if _, ok := byPlayer[player]; !ok {
			return errNotFound("participant", player)
		}
	}
	for player := range update.LapTimes {
		if _, ok := byPlayer[player]; !ok {
			return errNotFound("participant", player)
		}
	}

	for player, position := range update.Positions {
		byPlayer[player].Position = position
	}
	for player, laps := range update.LapTimes {
		byPlayer[player].LapTimes = append(byPlayer[player].LapTimes, laps...)
	}
	return nil
}

// EndRace completes a running race. A nil winner is computed from
// telemetry: lowest lap-time sum wins, participants without laps rank
// last, ties break by join order. An explicit winner must be a
// participant.
func (e *Engine) EndRace(caller Principal, raceID uint64, winner *Principal) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("end_race", start, err) }(e.now())

	if !e.isAdmin(caller) {
		return errUnauthorized("race end requires admin")
	}
	race, ok := e.st.Races[raceID]
	if !ok {
		return errNotFound("race", raceID)
	}
	if race.Status != enums.RaceStatusInProgress {
		return errStateConflict(fmt.Sprintf("race %d is %s", raceID, race.Status))
	}

	var declared Principal
	if winner != nil {
		found := false
		for _, p := range race.Participants {
			if p.Player == *winner {
				found = true
				break
			}
		}
		if !found {
			return errValidation(fmt.Sprintf("winner %s is not a participant of race %d", *winner, raceID))
		}
		declared = *winner
	} else {
		declared = computeWinner(race.Participants)
	}

	now := e.now()
	race.Status = enums.RaceStatusCompleted
	race.Winner = &declared
	race.EndedAt = &now

	e.appendEvent(enums.AggregateRace, raceEventID(race.ID), enums.EventRaceCompleted, now, map[string]any{
		"race_id": race.ID,
		"winner":  declared,
	})
	return nil
}

// computeWinner ranks by ascending lap-time sum. Participants with no
// recorded laps sort after everyone with laps; the join order breaks
// ties, so a race ended before any telemetry pays the first entrant.
func computeWinner(participants []RaceParticipant) Principal {
	best := 0
	bestSum, bestHasLaps := lapSum(participants[0])
	for i := 1; i < len(participants); i++ {
		sum, hasLaps := lapSum(participants[i])
		if hasLaps && (!bestHasLaps || sum < bestSum) {
			best, bestSum, bestHasLaps = i, sum, true
		}
	}
	return participants[best].Player
}

func lapSum(p RaceParticipant) (uint64, bool) {
	var sum uint64
	for _, lap := range p.LapTimes {
		sum += lap
	}
	return sum, len(p.LapTimes) > 0
}

// DistributeRaceRewards settles a completed race exactly once. The entry
// fee portion pays the winner outright; the bet portion splits pro rata
// over bettors who predicted the winner with integer arithmetic, the
// division remainder going to the earliest correct bettor. With no correct
// bettor the bet portion pays the winner too. The race pool drains to
// exactly zero.
func (e *Engine) DistributeRaceRewards(caller Principal, raceID uint64) (err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func(start time.Time) { e.observe("distribute_race_rewards", start, err) }(e.now())

	if !e.isAdmin(caller) {
		return errUnauthorized("reward distribution requires admin")
	}
	race, ok := e.st.Races[raceID]
	if !ok {
		return errNotFound("race", raceID)
	}
	if race.Status != enums.RaceStatusCompleted {
		return errStateConflict(fmt.Sprintf("race %d is %s", raceID, race.Status))
	}
	if race.Distributed {
		return errAlreadyFinalized(fmt.Sprintf("race %d rewards already distributed", raceID))
	}
	if race.Winner == nil {
		return errInvariant("race %d completed without a winner", raceID)
	}

	pool := e.racePool(race.ID)
	entryPool := race.EntryFee * uint64(len(race.Participants))
	var betPool uint64
	for _, bet := range race.Bets {
		betPool += bet.Amount
	}
	if entryPool+betPool != race.PrizePool {
		return errInvariant("race %d pool %d does not match entries %d + bets %d", raceID, race.PrizePool, entryPool, betPool)
	}
	if held := e.st.Balances[pool]; held != race.PrizePool {
		return errInvariant("race %d pool account holds %d, expected %d", raceID, held, race.PrizePool)
	}

	winner := *race.Winner
	payouts := computePayouts(winner, entryPool, betPool, race.Bets)

	for _, payout := range payouts {
		if moveErr := e.debitThenCredit(pool, Account{Owner: payout.to}, payout.amount); moveErr != nil {
			return errInvariant("race %d payout to %s failed: %v", raceID, payout.to, moveErr)
		}
	}
	if remaining := e.st.Balances[pool]; remaining != 0 {
		return errInvariant("race %d pool retains %d after distribution", raceID, remaining)
	}

	race.PrizePool = 0
	race.Distributed = true

	e.appendEvent(enums.AggregateRace, raceEventID(race.ID), enums.EventRaceRewardsDistributed, e.now(), map[string]any{
		"race_id":  race.ID,
		"winner":   winner,
		"entries":  entryPool,
		"bet_pool": betPool,
		"payouts":  len(payouts),
	})
	return nil
}

type payout struct {
	to     Principal
	amount uint64
}

// computePayouts merges the winner's entry-pool share with the pro-rata
// bet shares. Integer division; the remainder is assigned to the first
// correct bettor in placement order so no value strands in the pool.
func computePayouts(winner Principal, entryPool, betPool uint64, bets []Bet) []payout {
	shares := map[Principal]uint64{}
	order := []Principal{winner}
	shares[winner] = entryPool

	var stakesOnWinner uint64
	for _, bet := range bets {
		if bet.Prediction == winner {
			stakesOnWinner += bet.Amount
		}
	}

	if betPool > 0 {
		if stakesOnWinner == 0 {
			shares[winner] += betPool
		} else {
			var paid uint64
			var first Principal
			for _, bet := range bets {
				if bet.Prediction != winner {
					continue
				}
				if first == "" {
					first = bet.Bettor
				}
				// bet.Amount*betPool can exceed 64 bits for large pools;
				// mulDiv keeps the product in 128 bits.
				share := mulDiv(bet.Amount, betPool, stakesOnWinner)
				if _, ok := shares[bet.Bettor]; !ok {
					order = append(order, bet.Bettor)
				}
				shares[bet.Bettor] += share
				paid += share
			}
			if paid < betPool {
				shares[first] += betPool - paid
			}
		}
	}

	payouts := make([]payout, 0, len(order))
	for _, to := range order {
		if shares[to] > 0 {
			payouts = append(payouts, payout{to: to, amount: shares[to]})
		}
	}
	return payouts
}

// mulDiv computes a*b/c using a 128-bit intermediate product. Callers
// guarantee a <= c and c > 0, so the quotient fits in 64 bits.
func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, c)
	return q
}

// GetRace returns a copy of the race.
func (e *Engine) GetRace(id uint64) (*Race, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	race, ok := e.st.Races[id]
	if !ok {
		return nil, errNotFound("race", id)
	}
	return cloneRace(race), nil
}

// ListUpcomingRaces pages through upcoming races by ascending id.
func (e *Engine) ListUpcomingRaces(afterID uint64, limit int) []*Race {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]uint64, 0)
	for id, race := range e.st.Races {
		if race.Status == enums.RaceStatusUpcoming && id > afterID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	out := make([]*Race, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneRace(e.st.Races[id]))
	}
	return out
}

// requireOwnedAsset checks the caller owns an NFT of the expected type.
func (e *Engine) requireOwnedAsset(caller Principal, id uint64, assetType enums.AssetType) error {
	nft, ok := e.st.NFTs[id]
	if !ok {
		return errNotFound(string(assetType), id)
	}
	if nft.Type != assetType {
		return errValidation(fmt.Sprintf("nft %d is a %s, not a %s", id, nft.Type, assetType))
	}
	if nft.Owner != caller {
		return errUnauthorized(fmt.Sprintf("%s %d is not owned by caller", assetType, id))
	}
	return nil
}

func raceEventID(id uint64) string {
	return fmt.Sprintf("%d", id)
}
