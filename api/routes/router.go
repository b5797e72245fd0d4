package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xkartlabs/xkart-backend/api/controllers"
	"github.com/xkartlabs/xkart-backend/api/middleware"
	"github.com/xkartlabs/xkart-backend/internal/engine"
	"github.com/xkartlabs/xkart-backend/pkg/config"
	"github.com/xkartlabs/xkart-backend/pkg/db"
	"github.com/xkartlabs/xkart-backend/pkg/enums"
	"github.com/xkartlabs/xkart-backend/pkg/logger"
	"github.com/xkartlabs/xkart-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	eng *engine.Engine,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.CORS(),
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	if !cfg.App.IsProd() {
		r.Post("/api/dev/v1/token", controllers.DevTokenMint(cfg, logg))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(cfg.RateLimit, redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/ledger", func(r chi.Router) {
			r.Get("/balance", controllers.LedgerBalance(eng, logg))
			r.Get("/supply", controllers.LedgerSupply(eng))
			r.Get("/fee", controllers.LedgerFee(eng))
			r.Post("/transfer", controllers.LedgerTransfer(eng, logg))
		})

		r.Route("/v1/campaigns", func(r chi.Router) {
			r.Post("/", controllers.CampaignCreate(eng, logg))
			r.Get("/", controllers.CampaignList(eng, logg))
			r.Get("/{campaignId}", controllers.CampaignDetail(eng, logg))
			r.Post("/{campaignId}/invest", controllers.CampaignInvest(eng, logg))
		})

		r.Route("/v1/races", func(r chi.Router) {
			r.Get("/", controllers.RaceList(eng, logg))
			r.Get("/{raceId}", controllers.RaceDetail(eng, logg))
			r.Post("/{raceId}/join", controllers.RaceJoin(eng, logg))
			r.Post("/{raceId}/bets", controllers.RacePlaceBet(eng, logg))
		})

		r.Route("/v1/nfts", func(r chi.Router) {
			r.Post("/", controllers.NFTMint(eng, logg))
			r.Get("/", controllers.NFTsByOwner(eng, logg))
			r.Get("/listed", controllers.NFTListings(eng, logg))
			r.Get("/{nftId}", controllers.NFTDetail(eng, logg))
			r.Post("/{nftId}/transfer", controllers.NFTTransfer(eng, logg))
			r.Post("/{nftId}/list", controllers.NFTList(eng, logg))
			r.Post("/{nftId}/delist", controllers.NFTDelist(eng, logg))
			r.Post("/{nftId}/buy", controllers.NFTBuy(eng, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.ActorRoleAdmin, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.RateLimit(cfg.RateLimit, redisClient, logg))

		r.Get("/ping", controllers.AdminPing())

		r.Post("/v1/ledger/mint", controllers.LedgerMint(eng, logg))

		r.Route("/v1/races", func(r chi.Router) {
			r.Post("/", controllers.RaceCreate(eng, logg))
			r.Post("/{raceId}/start", controllers.RaceStart(eng, logg))
			r.Post("/{raceId}/progress", controllers.RaceProgress(eng, logg))
			r.Post("/{raceId}/end", controllers.RaceEnd(eng, logg))
			r.Post("/{raceId}/rewards", controllers.RaceDistributeRewards(eng, logg))
		})

		r.Route("/v1/admins", func(r chi.Router) {
			r.Get("/", controllers.AdminList(eng, logg))
			r.Post("/", controllers.AdminAdd(eng, logg))
		})
	})

	return r
}
