package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xkartlabs/xkart-backend/internal/engine"
	"github.com/xkartlabs/xkart-backend/pkg/enums"
	pkgerrors "github.com/xkartlabs/xkart-backend/pkg/errors"
)

// seedRace registers an arena and creates an upcoming race with entry fee
// 50, returning the race id.
func seedRace(t *testing.T, eng *engine.Engine) uint64 {
	t.Helper()
	arenaID, err := eng.MintNFT("deployer", engine.MintNFTInput{
		Name:   "Neon Bowl",
		Type:   enums.AssetTypeArena,
		Rarity: enums.RarityRare,
	})
	if err != nil {
		t.Fatalf("seed arena: %v", err)
	}
	raceID, err := eng.CreateRace("deployer", engine.CreateRaceInput{
		Name:     "Night Sprint",
		ArenaID:  arenaID,
		EntryFee: 50,
	})
	if err != nil {
		t.Fatalf("seed race: %v", err)
	}
	return raceID
}

// seedRacer funds a player and mints them a kart and a driver, returning
// the asset ids.
func seedRacer(t *testing.T, eng *engine.Engine, player engine.Principal) (kartID, driverID uint64) {
	t.Helper()
	if err := eng.Mint("deployer", engine.Account{Owner: player}, 1000); err != nil {
		t.Fatalf("fund %s: %v", player, err)
	}
	kartID, err := eng.MintNFT(player, engine.MintNFTInput{
		Name:   "Speedster",
		Type:   enums.AssetTypeKart,
		Rarity: enums.RarityCommon,
	})
	if err != nil {
		t.Fatalf("mint kart for %s: %v", player, err)
	}
	driverID, err = eng.MintNFT(player, engine.MintNFTInput{
		Name:   "Ace",
		Type:   enums.AssetTypeDriver,
		Rarity: enums.RarityCommon,
	})
	if err != nil {
		t.Fatalf("mint driver for %s: %v", player, err)
	}
	return kartID, driverID
}

func TestRaceCreate(t *testing.T) {
	eng := newTestEngine(t)
	logg := testLogger()
	arenaID, err := eng.MintNFT("deployer", engine.MintNFTInput{
		Name:   "Neon Bowl",
		Type:   enums.AssetTypeArena,
		Rarity: enums.RarityRare,
	})
	if err != nil {
		t.Fatalf("seed arena: %v", err)
	}

	req := jsonRequest(t, http.MethodPost, "/api/admin/v1/races", map[string]any{
		"name":      "Night Sprint",
		"arena_id":  arenaID,
		"entry_fee": 50,
	})
	req = asPrincipal(req, "deployer")
	resp := httptest.NewRecorder()
	RaceCreate(eng, logg)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var race engine.Race
	decodeData(t, resp, &race)
	if race.Status != enums.RaceStatusUpcoming {
		t.Fatalf("expected upcoming status, got %s", race.Status)
	}
	if race.EntryFee != 50 {
		t.Fatalf("expected entry fee 50, got %d", race.EntryFee)
	}
}

func TestRaceJoin(t *testing.T) {
	eng := newTestEngine(t)
	logg := testLogger()
	raceID := seedRace(t, eng)
	kartID, driverID := seedRacer(t, eng, "alice")

	req := jsonRequest(t, http.MethodPost, "/api/v1/races/1/join", map[string]any{
		"kart_id":   kartID,
		"driver_id": driverID,
	})
	req = asPrincipal(req, "alice")
	req = withURLParam(req, "raceId", fmt.Sprint(raceID))
	resp := httptest.NewRecorder()
	RaceJoin(eng, logg)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var race engine.Race
	decodeData(t, resp, &race)
	if len(race.Participants) != 1 || race.Participants[0].Player != "alice" {
		t.Fatalf("expected alice as sole participant, got %+v", race.Participants)
	}
	if race.PrizePool != 50 {
		t.Fatalf("expected prize pool 50, got %d", race.PrizePool)
	}
	if got := eng.BalanceOf(engine.Account{Owner: "alice"}); got != 950 {
		t.Fatalf("expected alice balance 950, got %d", got)
	}
}

func TestRaceJoinRequiresOwnedKart(t *testing.T) {
	eng := newTestEngine(t)
	logg := testLogger()
	raceID := seedRace(t, eng)
	kartID, driverID := seedRacer(t, eng, "alice")
	if err := eng.Mint("deployer", engine.Account{Owner: "bob"}, 1000); err != nil {
		t.Fatalf("fund bob: %v", err)
	}

	req := jsonRequest(t, http.MethodPost, "/api/v1/races/1/join", map[string]any{
		"kart_id":   kartID,
		"driver_id": driverID,
	})
	req = asPrincipal(req, "bob")
	req = withURLParam(req, "raceId", fmt.Sprint(raceID))
	resp := httptest.NewRecorder()
	RaceJoin(eng, logg)(resp, req)

	if resp.Code == http.StatusOK {
		t.Fatalf("expected failure joining with alice's kart: %s", resp.Body.String())
	}
}

func TestRacePlaceBet(t *testing.T) {
	eng := newTestEngine(t)
	logg := testLogger()
	raceID := seedRace(t, eng)
	kartID, driverID := seedRacer(t, eng, "alice")
	if err := eng.JoinRace("alice", raceID, kartID, driverID); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	if err := eng.Mint("deployer", engine.Account{Owner: "bob"}, 500); err != nil {
		t.Fatalf("fund bob: %v", err)
	}

	req := jsonRequest(t, http.MethodPost, "/api/v1/races/1/bets", map[string]any{
		"amount":     100,
		"prediction": "alice",
	})
	req = asPrincipal(req, "bob")
	req = withURLParam(req, "raceId", fmt.Sprint(raceID))
	resp := httptest.NewRecorder()
	RacePlaceBet(eng, logg)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var race engine.Race
	decodeData(t, resp, &race)
	if len(race.Bets) != 1 || race.Bets[0].Bettor != "bob" {
		t.Fatalf("expected bob's bet on the book, got %+v", race.Bets)
	}
	if race.PrizePool != 150 {
		t.Fatalf("expected prize pool 150, got %d", race.PrizePool)
	}
}

func TestRacePlaceBetRejectsNonParticipantPrediction(t *testing.T) {
	eng := newTestEngine(t)
	logg := testLogger()
	raceID := seedRace(t, eng)
	if err := eng.Mint("deployer", engine.Account{Owner: "bob"}, 500); err != nil {
		t.Fatalf("fund bob: %v", err)
	}

	req := jsonRequest(t, http.MethodPost, "/api/v1/races/1/bets", map[string]any{
		"amount":     100,
		"prediction": "ghost",
	})
	req = asPrincipal(req, "bob")
	req = withURLParam(req, "raceId", fmt.Sprint(raceID))
	resp := httptest.NewRecorder()
	RacePlaceBet(eng, logg)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code, got %s", code)
	}
}

func TestRaceLifecycleThroughHandlers(t *testing.T) {
	eng := newTestEngine(t)
	logg := testLogger()
	raceID := seedRace(t, eng)
	aliceKart, aliceDriver := seedRacer(t, eng, "alice")
	bobKart, bobDriver := seedRacer(t, eng, "bob")
	if err := eng.JoinRace("alice", raceID, aliceKart, aliceDriver); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	if err := eng.JoinRace("bob", raceID, bobKart, bobDriver); err != nil {
		t.Fatalf("bob join: %v", err)
	}

	start := jsonRequest(t, http.MethodPost, "/api/admin/v1/races/1/start", nil)
	start = asPrincipal(start, "deployer")
	start = withURLParam(start, "raceId", fmt.Sprint(raceID))
	resp := httptest.NewRecorder()
	RaceStart(eng, logg)(resp, start)
	if resp.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	progress := jsonRequest(t, http.MethodPost, "/api/admin/v1/races/1/progress", map[string]any{
		"positions": map[string]int{"alice": 1, "bob": 2},
		"lap_times": map[string][]uint64{"alice": {61230}, "bob": {62970}},
	})
	progress = asPrincipal(progress, "deployer")
	progress = withURLParam(progress, "raceId", fmt.Sprint(raceID))
	resp = httptest.NewRecorder()
	RaceProgress(eng, logg)(resp, progress)
	if resp.Code != http.StatusOK {
		t.Fatalf("progress: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	end := jsonRequest(t, http.MethodPost, "/api/admin/v1/races/1/end", map[string]any{"winner": "alice"})
	end = asPrincipal(end, "deployer")
	end = withURLParam(end, "raceId", fmt.Sprint(raceID))
	resp = httptest.NewRecorder()
	RaceEnd(eng, logg)(resp, end)
	if resp.Code != http.StatusOK {
		t.Fatalf("end: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var race engine.Race
	decodeData(t, resp, &race)
	if race.Status != enums.RaceStatusCompleted {
		t.Fatalf("expected completed status, got %s", race.Status)
	}
	if race.Winner == nil || *race.Winner != "alice" {
		t.Fatalf("expected winner alice, got %v", race.Winner)
	}

	before := eng.BalanceOf(engine.Account{Owner: "alice"})
	rewards := jsonRequest(t, http.MethodPost, "/api/admin/v1/races/1/rewards", nil)
	rewards = asPrincipal(rewards, "deployer")
	rewards = withURLParam(rewards, "raceId", fmt.Sprint(raceID))
	resp = httptest.NewRecorder()
	RaceDistributeRewards(eng, logg)(resp, rewards)
	if resp.Code != http.StatusOK {
		t.Fatalf("rewards: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	decodeData(t, resp, &race)
	if !race.Distributed {
		t.Fatal("expected race marked distributed")
	}
	if after := eng.BalanceOf(engine.Account{Owner: "alice"}); after <= before {
		t.Fatalf("expected winner payout, balance went %d -> %d", before, after)
	}
}

func TestRaceStartRejectsNonAdmin(t *testing.T) {
	eng := newTestEngine(t)
	logg := testLogger()
	raceID := seedRace(t, eng)

	req := jsonRequest(t, http.MethodPost, "/api/admin/v1/races/1/start", nil)
	req = asPrincipal(req, "mallory")
	req = withURLParam(req, "raceId", fmt.Sprint(raceID))
	resp := httptest.NewRecorder()
	RaceStart(eng, logg)(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestRaceListPagesUpcoming(t *testing.T) {
	eng := newTestEngine(t)
	logg := testLogger()
	seedRace(t, eng)
	seedRace(t, eng)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/races?limit=1", nil)
	resp := httptest.NewRecorder()
	RaceList(eng, logg)(resp, req)

	var page listEnvelope[engine.Race]
	decodeData(t, resp, &page)
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 race, got %d", len(page.Items))
	}
	if page.NextCursor == "" {
		t.Fatal("expected a next cursor on a full page")
	}
}
