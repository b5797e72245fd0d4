package controllers

import (
	"net/http"
	"strings"

	"github.com/xkartlabs/xkart-backend/api/middleware"
	"github.com/xkartlabs/xkart-backend/api/responses"
	"github.com/xkartlabs/xkart-backend/api/validators"
	"github.com/xkartlabs/xkart-backend/internal/engine"
	pkgerrors "github.com/xkartlabs/xkart-backend/pkg/errors"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
)

type raceCreateRequest struct {
	Name     string `json:"name" validate:"required"`
	ArenaID  uint64 `json:"arena_id" validate:"required"`
	EntryFee uint64 `json:"entry_fee"`
}

// RaceCreate schedules a race. Admin surface: race lifecycle belongs to
// the trusted operator.
func RaceCreate(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload raceCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := eng.CreateRace(caller, engine.CreateRaceInput{
			Name:     strings.TrimSpace(payload.Name),
			ArenaID:  payload.ArenaID,
			EntryFee: payload.EntryFee,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		race, err := eng.GetRace(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, race)
	}
}

type raceJoinRequest struct {
	KartID   uint64 `json:"kart_id" validate:"required"`
	DriverID uint64 `json:"driver_id" validate:"required"`
}

// RaceJoin enters the caller into an upcoming race with their kart and
// driver assets.
func RaceJoin(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raceID, err := parseIDParam(r, "raceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload raceJoinRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := eng.JoinRace(caller, raceID, payload.KartID, payload.DriverID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		race, err := eng.GetRace(raceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, race)
	}
}

type betRequest struct {
	Amount     uint64 `json:"amount" validate:"required"`
	Prediction string `json:"prediction" validate:"required"`
}

// RacePlaceBet stakes tokens on a predicted winner before the race
// starts.
func RacePlaceBet(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raceID, err := parseIDParam(r, "raceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload betRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		prediction := engine.Principal(strings.TrimSpace(payload.Prediction))
		if err := eng.PlaceBet(caller, raceID, payload.Amount, prediction); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		race, err := eng.GetRace(raceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, race)
	}
}

// RaceStart moves an upcoming race into progress. Admin surface.
func RaceStart(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return raceTransition(eng, logg, func(caller engine.Principal, raceID uint64) error {
		return eng.StartRace(caller, raceID)
	})
}

type raceProgressRequest struct {
	Positions map[string]int      `json:"positions"`
	LapTimes  map[string][]uint64 `json:"lap_times"`
}

// RaceProgress applies a telemetry batch from the race operator.
func RaceProgress(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raceID, err := parseIDParam(r, "raceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload raceProgressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		update := engine.ProgressUpdate{
			Positions: make(map[engine.Principal]int, len(payload.Positions)),
			LapTimes:  make(map[engine.Principal][]uint64, len(payload.LapTimes)),
		}
		for player, position := range payload.Positions {
			update.Positions[engine.Principal(player)] = position
		}
		for player, laps := range payload.LapTimes {
			update.LapTimes[engine.Principal(player)] = laps
		}

		if err := eng.UpdateRaceProgress(caller, raceID, update); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		race, err := eng.GetRace(raceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, race)
	}
}

type raceEndRequest struct {
	Winner *string `json:"winner"`
}

// RaceEnd completes a running race. A nil winner lets the engine rank
// participants by lap times.
func RaceEnd(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raceID, err := parseIDParam(r, "raceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload raceEndRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var winner *engine.Principal
		if payload.Winner != nil {
			p := engine.Principal(strings.TrimSpace(*payload.Winner))
			winner = &p
		}

		if err := eng.EndRace(caller, raceID, winner); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		race, err := eng.GetRace(raceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, race)
	}
}

// RaceDistributeRewards pays out the pool of a completed race exactly
// once.
func RaceDistributeRewards(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return raceTransition(eng, logg, func(caller engine.Principal, raceID uint64) error {
		return eng.DistributeRaceRewards(caller, raceID)
	})
}

// RaceDetail returns one race with its participants and bet book.
func RaceDetail(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raceID, err := parseIDParam(r, "raceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		race, err := eng.GetRace(raceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, race)
	}
}

// RaceList pages through upcoming races ordered by id.
func RaceList(eng *engine.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		afterID, limit, err := listParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		races := eng.ListUpcomingRaces(afterID, limit)
		responses.WriteSuccess(w, listPage(races, limit, func(race *engine.Race) uint64 { return race.ID }))
	}
}

// raceTransition factors the shared shape of body-less race lifecycle
// calls.
func raceTransition(eng *engine.Engine, logg *logger.Logger, op func(engine.Principal, uint64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerPrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raceID, err := parseIDParam(r, "raceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := op(caller, raceID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		race, err := eng.GetRace(raceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, race)
	}
}

func callerPrincipal(r *http.Request) (engine.Principal, error) {
	caller := middleware.PrincipalFromContext(r.Context())
	if caller == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "principal context missing")
	}
	return engine.Principal(caller), nil
}
