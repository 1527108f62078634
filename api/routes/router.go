package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Musty2002/sm-data-app-sub000/api/controllers"
	"github.com/Musty2002/sm-data-app-sub000/api/middleware"
	"github.com/Musty2002/sm-data-app-sub000/internal/ledger"
	purchasesvc "github.com/Musty2002/sm-data-app-sub000/internal/purchase"
	"github.com/Musty2002/sm-data-app-sub000/internal/referrals"
	"github.com/Musty2002/sm-data-app-sub000/internal/rewards"
	"github.com/Musty2002/sm-data-app-sub000/internal/wallet"
	"github.com/Musty2002/sm-data-app-sub000/pkg/config"
	"github.com/Musty2002/sm-data-app-sub000/pkg/db"
	"github.com/Musty2002/sm-data-app-sub000/pkg/logger"
	pkgredis "github.com/Musty2002/sm-data-app-sub000/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	purchaseService *purchasesvc.Service,
	ledgerService ledger.Service,
	walletService *wallet.Service,
	rewardsService *rewards.Service,
	referralsService *referrals.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/purchases", func(r chi.Router) {
			r.Post("/", controllers.SubmitPurchase(purchaseService, logg))
			r.Get("/", controllers.PurchaseList(ledgerService, logg))
			r.Get("/{reference}", controllers.PurchaseDetail(ledgerService, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletFetch(walletService, logg))
			r.Get("/entries", controllers.WalletHistory(walletService, logg))

			r.Route("/cashback", func(r chi.Router) {
				r.Get("/", controllers.CashbackFetch(rewardsService, logg))
				r.Get("/entries", controllers.CashbackHistory(rewardsService, logg))
				r.Post("/withdraw", controllers.CashbackWithdraw(rewardsService, logg))
			})
		})

		r.Route("/referrals", func(r chi.Router) {
			r.Post("/", controllers.ReferralCreate(referralsService, logg))
			r.Get("/", controllers.ReferralList(referralsService, logg))
		})
	})

	return r
}
