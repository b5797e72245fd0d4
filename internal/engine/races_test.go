package engine

import (
	"testing"

	"github.com/xkartlabs/xkart-backend/pkg/enums"
	pkgerrors "github.com/xkartlabs/xkart-backend/pkg/errors"
)

// mintAsset registers an NFT for owner via an admin mint plus transfer.
func mintAsset(t *testing.T, e *Engine, owner Principal, assetType enums.AssetType) uint64 {
	t.Helper()
	id, err := e.MintNFT(deployer, MintNFTInput{
		Name:   string(assetType) + " asset",
		Type:   assetType,
		Rarity: enums.RarityCommon,
	})
	if err != nil {
		t.Fatalf("mint %s: %v", assetType, err)
	}
	if owner != deployer {
		if err := e.TransferNFT(deployer, id, owner); err != nil {
			t.Fatalf("transfer %s to %s: %v", assetType, owner, err)
		}
	}
	return id
}

// raceFixture seeds an arena, two funded players with karts and drivers,
// and an upcoming race with entry fee 10.
type raceFixture struct {
	raceID         uint64
	kart1, driver1 uint64
	kart2, driver2 uint64
}

func setupRace(t *testing.T, e *Engine) raceFixture {
	t.Helper()
	arena := mintAsset(t, e, deployer, enums.AssetTypeArena)
	fx := raceFixture{
		kart1:   mintAsset(t, e, "player1", enums.AssetTypeKart),
		driver1: mintAsset(t, e, "player1", enums.AssetTypeDriver),
		kart2:   mintAsset(t, e, "player2", enums.AssetTypeKart),
		driver2: mintAsset(t, e, "player2", enums.AssetTypeDriver),
	}
	mustMint(t, e, "player1", 100)
	mustMint(t, e, "player2", 100)

	raceID, err := e.CreateRace(deployer, CreateRaceInput{Name: "grand prix", ArenaID: arena, EntryFee: 10})
	if err != nil {
		t.Fatalf("create race: %v", err)
	}
	fx.raceID = raceID
	return fx
}

func joinBoth(t *testing.T, e *Engine, fx raceFixture) {
	t.Helper()
	if err := e.JoinRace("player1", fx.raceID, fx.kart1, fx.driver1); err != nil {
		t.Fatalf("player1 join: %v", err)
	}
	if err := e.JoinRace("player2", fx.raceID, fx.kart2, fx.driver2); err != nil {
		t.Fatalf("player2 join: %v", err)
	}
}

func TestCreateRaceRequiresAdmin(t *testing.T) {
	e, _ := newTestEngine(t)
	arena := mintAsset(t, e, deployer, enums.AssetTypeArena)
	_, err := e.CreateRace("player1", CreateRaceInput{Name: "x", ArenaID: arena})
	assertCode(t, err, pkgerrors.CodeUnauthorized)
}

func TestCreateRaceRequiresArenaNFT(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.CreateRace(deployer, CreateRaceInput{Name: "x", ArenaID: 99})
	assertCode(t, err, pkgerrors.CodeNotFound)

	kart := mintAsset(t, e, deployer, enums.AssetTypeKart)
	_, err = e.CreateRace(deployer, CreateRaceInput{Name: "x", ArenaID: kart})
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestJoinRaceCollectsEntryFee(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)

	race, err := e.GetRace(fx.raceID)
	if err != nil {
		t.Fatalf("get race: %v", err)
	}
	if race.PrizePool != 20 {
		t.Fatalf("pool = %d, want 20", race.PrizePool)
	}
	if len(race.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(race.Participants))
	}
	if got := e.BalanceOf(Account{Owner: "player1"}); got != 90 {
		t.Fatalf("player1 = %d, want 90", got)
	}
	if got := e.BalanceOf(Account{Owner: platform, Subaccount: "race:1"}); got != 20 {
		t.Fatalf("pool account = %d, want 20", got)
	}
	assertConservation(t, e)
}

func TestJoinRaceTwiceFails(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	if err := e.JoinRace("player1", fx.raceID, fx.kart1, fx.driver1); err != nil {
		t.Fatalf("join: %v", err)
	}
	err := e.JoinRace("player1", fx.raceID, fx.kart1, fx.driver1)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestJoinRaceRequiresOwnedAssets(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)

	// player1 trying to enter with player2's kart.
	err := e.JoinRace("player1", fx.raceID, fx.kart2, fx.driver1)
	assertCode(t, err, pkgerrors.CodeUnauthorized)

	// A driver slot filled with a kart NFT.
	err = e.JoinRace("player1", fx.raceID, fx.kart1, fx.kart1)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestJoinRaceAfterStartIsStateConflict(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	if err := e.JoinRace("player1", fx.raceID, fx.kart1, fx.driver1); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}
	err := e.JoinRace("player2", fx.raceID, fx.kart2, fx.driver2)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestStartRaceRequiresParticipants(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	err := e.StartRace(deployer, fx.raceID)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestPlaceBetValidatesPrediction(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)
	mustMint(t, e, "bettor", 100)

	err := e.PlaceBet("bettor", fx.raceID, 50, "nobody")
	assertCode(t, err, pkgerrors.CodeValidation)
	if got := e.BalanceOf(Account{Owner: "bettor"}); got != 100 {
		t.Fatalf("bettor debited on rejected bet: %d", got)
	}
}

func TestPlaceBetOnlyWhileUpcoming(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)
	mustMint(t, e, "bettor", 100)
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}

	err := e.PlaceBet("bettor", fx.raceID, 50, "player1")
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestUpdateRaceProgressAllOrNothing(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}

	err := e.UpdateRaceProgress(deployer, fx.raceID, ProgressUpdate{
		Positions: map[Principal]int{"player1": 1, "ghost": 2},
		LapTimes:  map[Principal][]uint64{"player1": {30000}},
	})
	assertCode(t, err, pkgerrors.CodeNotFound)

	// Nothing from the rejected batch applied.
	race, _ := e.GetRace(fx.raceID)
	for _, p := range race.Participants {
		if p.Position != 0 || len(p.LapTimes) != 0 {
			t.Fatalf("partial update applied to %s: %+v", p.Player, p)
		}
	}
}

func TestUpdateRaceProgressAppendsLaps(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}

	for _, batch := range []ProgressUpdate{
		{Positions: map[Principal]int{"player1": 1, "player2": 2}, LapTimes: map[Principal][]uint64{"player1": {30000}, "player2": {31000}}},
		{Positions: map[Principal]int{"player1": 2, "player2": 1}, LapTimes: map[Principal][]uint64{"player1": {32000}, "player2": {29000}}},
	} {
		if err := e.UpdateRaceProgress(deployer, fx.raceID, batch); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	race, _ := e.GetRace(fx.raceID)
	p1 := race.Participants[0]
	if p1.Position != 2 {
		t.Fatalf("position overwrite failed: %d", p1.Position)
	}
	if len(p1.LapTimes) != 2 || p1.LapTimes[0] != 30000 || p1.LapTimes[1] != 32000 {
		t.Fatalf("lap append failed: %v", p1.LapTimes)
	}
}

func TestEndRaceComputesWinnerFromLapTimes(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.UpdateRaceProgress(deployer, fx.raceID, ProgressUpdate{
		LapTimes: map[Principal][]uint64{"player1": {30000, 31000}, "player2": {29000, 30000}},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if err := e.EndRace(deployer, fx.raceID, nil); err != nil {
		t.Fatalf("end: %v", err)
	}
	race, _ := e.GetRace(fx.raceID)
	if race.Winner == nil || *race.Winner != "player2" {
		t.Fatalf("winner = %v, want player2", race.Winner)
	}
	if race.Status != enums.RaceStatusCompleted {
		t.Fatalf("status = %s", race.Status)
	}
}

func TestEndRaceNoLapsFallsBackToJoinOrder(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}
	// player2 has laps, player1 none: laps beat no laps.
	if err := e.UpdateRaceProgress(deployer, fx.raceID, ProgressUpdate{
		LapTimes: map[Principal][]uint64{"player2": {45000}},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := e.EndRace(deployer, fx.raceID, nil); err != nil {
		t.Fatalf("end: %v", err)
	}
	race, _ := e.GetRace(fx.raceID)
	if *race.Winner != "player2" {
		t.Fatalf("winner = %s, want player2", *race.Winner)
	}
}

func TestEndRaceExplicitWinnerOverride(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}

	outsider := Principal("nobody")
	if err := e.EndRace(deployer, fx.raceID, &outsider); err == nil {
		t.Fatal("expected rejection of non-participant winner")
	}

	winner := Principal("player1")
	if err := e.EndRace(deployer, fx.raceID, &winner); err != nil {
		t.Fatalf("end: %v", err)
	}
	race, _ := e.GetRace(fx.raceID)
	if *race.Winner != "player1" {
		t.Fatalf("winner = %s", *race.Winner)
	}
}

// The §8 settlement scenario: entry fees 10+10, one bettor stakes 50 on
// player1. Under the all-entry-fees-to-winner rule player1 receives the
// whole 20 entry pool, the sole correct bettor receives the full 50 bet
// pool, and the pool account drains to zero.
func TestDistributeRewardsScenario(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)
	mustMint(t, e, "bettor", 100)
	if err := e.PlaceBet("bettor", fx.raceID, 50, "player1"); err != nil {
		t.Fatalf("bet: %v", err)
	}
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}
	winner := Principal("player1")
	if err := e.EndRace(deployer, fx.raceID, &winner); err != nil {
		t.Fatalf("end: %v", err)
	}

	if err := e.DistributeRaceRewards(deployer, fx.raceID); err != nil {
		t.Fatalf("distribute: %v", err)
	}

	// player1: 100 - 10 entry + 20 entry pool = 110.
	if got := e.BalanceOf(Account{Owner: "player1"}); got != 110 {
		t.Fatalf("player1 = %d, want 110", got)
	}
	// bettor: 100 - 50 stake + 50 bet pool = 100.
	if got := e.BalanceOf(Account{Owner: "bettor"}); got != 100 {
		t.Fatalf("bettor = %d, want 100", got)
	}
	if got := e.BalanceOf(Account{Owner: "player2"}); got != 90 {
		t.Fatalf("player2 = %d, want 90", got)
	}
	if got := e.BalanceOf(Account{Owner: platform, Subaccount: "race:1"}); got != 0 {
		t.Fatalf("pool account = %d, want 0", got)
	}
	race, _ := e.GetRace(fx.raceID)
	if race.PrizePool != 0 || !race.Distributed {
		t.Fatalf("race not settled: pool=%d distributed=%v", race.PrizePool, race.Distributed)
	}
	assertConservation(t, e)
}

func TestDistributeRewardsTwiceIsAlreadyFinalized(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := e.EndRace(deployer, fx.raceID, nil); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := e.DistributeRaceRewards(deployer, fx.raceID); err != nil {
		t.Fatalf("first distribute: %v", err)
	}

	before := balancesSnapshot(e)
	err := e.DistributeRaceRewards(deployer, fx.raceID)
	assertCode(t, err, pkgerrors.CodeAlreadyFinalized)
	assertBalancesEqual(t, before, balancesSnapshot(e))
}

func TestDistributeRewardsBeforeCompletionFails(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)

	err := e.DistributeRaceRewards(deployer, fx.raceID)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

// Pro-rata split with integer remainder: stakes 10 and 20 on the winner
// over a 40 bet pool (one losing 10 stake included). Shares are 13 and
// 26; the remainder 1 goes to the earliest correct bettor.
func TestDistributeRewardsProRataRemainder(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)
	mustMint(t, e, "early", 100)
	mustMint(t, e, "late", 100)
	mustMint(t, e, "wrong", 100)

	if err := e.PlaceBet("early", fx.raceID, 10, "player1"); err != nil {
		t.Fatalf("early bet: %v", err)
	}
	if err := e.PlaceBet("wrong", fx.raceID, 10, "player2"); err != nil {
		t.Fatalf("wrong bet: %v", err)
	}
	if err := e.PlaceBet("late", fx.raceID, 20, "player1"); err != nil {
		t.Fatalf("late bet: %v", err)
	}
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}
	winner := Principal("player1")
	if err := e.EndRace(deployer, fx.raceID, &winner); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := e.DistributeRaceRewards(deployer, fx.raceID); err != nil {
		t.Fatalf("distribute: %v", err)
	}

	// bet pool 40, stakes on winner 30: early 10/30*40=13+1 remainder,
	// late 20/30*40=26.
	if got := e.BalanceOf(Account{Owner: "early"}); got != 104 {
		t.Fatalf("early = %d, want 104", got)
	}
	if got := e.BalanceOf(Account{Owner: "late"}); got != 106 {
		t.Fatalf("late = %d, want 106", got)
	}
	if got := e.BalanceOf(Account{Owner: "wrong"}); got != 90 {
		t.Fatalf("wrong = %d, want 90", got)
	}
	if got := e.BalanceOf(Account{Owner: platform, Subaccount: "race:1"}); got != 0 {
		t.Fatalf("pool = %d, want 0", got)
	}
	assertConservation(t, e)
}

// Stakes and pools past 2^32 must still split exactly: the 64-bit
// product of stake and pool wraps, so the shares come from the 128-bit
// path.
func TestComputePayoutsLargePoolsExact(t *testing.T) {
	stake := uint64(1) << 33
	betPool := 2*stake + 1 // odd, so one unit of remainder exists
	bets := []Bet{
		{Bettor: "bob", Prediction: "alice", Amount: stake},
		{Bettor: "carol", Prediction: "alice", Amount: stake},
	}

	payouts := computePayouts("alice", 0, betPool, bets)

	shares := map[Principal]uint64{}
	var total uint64
	for _, p := range payouts {
		shares[p.to] = p.amount
		total += p.amount
	}
	if total != betPool {
		t.Fatalf("paid %d, want full pool %d", total, betPool)
	}
	// equal stakes: equal shares, remainder to the earliest bettor
	if shares["bob"] != stake+1 {
		t.Fatalf("bob = %d, want %d", shares["bob"], stake+1)
	}
	if shares["carol"] != stake {
		t.Fatalf("carol = %d, want %d", shares["carol"], stake)
	}
}

func TestMulDivWideProduct(t *testing.T) {
	a := uint64(1) << 33
	b := uint64(1)<<34 + 1
	c := uint64(1) << 34
	if got := mulDiv(a, b, c); got != 1<<33 {
		t.Fatalf("mulDiv(%d, %d, %d) = %d, want %d", a, b, c, got, uint64(1)<<33)
	}
	if got := mulDiv(3, 10, 4); got != 7 {
		t.Fatalf("mulDiv(3, 10, 4) = %d, want 7", got)
	}
}

// With no correct bettor the bet pool is awarded to the winner.
func TestDistributeRewardsNoCorrectBettor(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	joinBoth(t, e, fx)
	mustMint(t, e, "bettor", 100)
	if err := e.PlaceBet("bettor", fx.raceID, 50, "player2"); err != nil {
		t.Fatalf("bet: %v", err)
	}
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}
	winner := Principal("player1")
	if err := e.EndRace(deployer, fx.raceID, &winner); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := e.DistributeRaceRewards(deployer, fx.raceID); err != nil {
		t.Fatalf("distribute: %v", err)
	}

	// player1: 100 - 10 + 20 entries + 50 forfeited bets = 160.
	if got := e.BalanceOf(Account{Owner: "player1"}); got != 160 {
		t.Fatalf("player1 = %d, want 160", got)
	}
	if got := e.BalanceOf(Account{Owner: "bettor"}); got != 50 {
		t.Fatalf("bettor = %d, want 50", got)
	}
	assertConservation(t, e)
}

func TestListUpcomingRacesExcludesStarted(t *testing.T) {
	e, _ := newTestEngine(t)
	fx := setupRace(t, e)
	arena := mintAsset(t, e, deployer, enums.AssetTypeArena)
	second, err := e.CreateRace(deployer, CreateRaceInput{Name: "second", ArenaID: arena, EntryFee: 5})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	if err := e.JoinRace("player1", fx.raceID, fx.kart1, fx.driver1); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := e.StartRace(deployer, fx.raceID); err != nil {
		t.Fatalf("start: %v", err)
	}

	upcoming := e.ListUpcomingRaces(0, 0)
	if len(upcoming) != 1 || upcoming[0].ID != second {
		t.Fatalf("unexpected upcoming set %+v", upcoming)
	}
}
