package httpapi

import (
	"log/slog"
	"net/http"

	challengeservice "github.com/UziB26/leagueladder-sub002/app/modules/challenge/application"
	leagueservice "github.com/UziB26/leagueladder-sub002/app/modules/league/application"
	ledgerservice "github.com/UziB26/leagueladder-sub002/app/modules/ledger/application"
	matchservice "github.com/UziB26/leagueladder-sub002/app/modules/match/application"
	"github.com/UziB26/leagueladder-sub002/app/shared/attr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// Services are the engine operations exposed over HTTP.
type Services struct {
	Leagues    leagueservice.Service
	Ledger     ledgerservice.Service
	Challenges challengeservice.Service
	Matches    matchservice.Service
}

// Config configures the REST surface.
type Config struct {
	AllowedOrigins []string
	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit float64
	RateBurst int
}

type api struct {
	svc    Services
	logger *slog.Logger
}

// NewHandler builds the REST router. Every route except /healthz requires a
// bearer token.
func NewHandler(cfg Config, svc Services, tokens *Tokens, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	a := &api{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(correlation)
	r.Use(middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if cfg.RateLimit > 0 {
		r.Use(RateLimitMiddleware(NewIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(tokens))

		r.Post("/players", a.registerPlayer)
		r.Get("/players/{playerID}", a.getPlayer)
		r.Get("/players/{playerID}/challenges", a.listChallenges)

		r.Route("/leagues", func(r chi.Router) {
			r.Get("/", a.listLeagues)
			r.Post("/", a.createLeague)

			r.Route("/{leagueID}", func(r chi.Router) {
				r.Get("/", a.getLeague)
				r.Get("/members", a.listMembers)
				r.Post("/members", a.joinLeague)
				r.Put("/members/{playerID}/active", a.setMembershipActive)
				r.Post("/roster", a.importRoster)

				r.Get("/standings", a.standings)
				r.Get("/export.xlsx", a.exportLeague)
				r.With(RequireAdmin).Get("/admin-actions", a.adminActions)
				r.Get("/players/{playerID}/rating", a.getRating)
				r.Put("/players/{playerID}/rating", a.setRating)
				r.Patch("/players/{playerID}/stats", a.setStats)
				r.Get("/players/{playerID}/history", a.ratingHistory)
				r.Get("/players/{playerID}/chart.png", a.ratingChart)

				r.Post("/challenges", a.createChallenge)
				r.Get("/matches", a.listMatches)
				r.Post("/matches", a.reportMatch)
			})
		})

		r.Route("/challenges/{challengeID}", func(r chi.Router) {
			r.Get("/", a.getChallenge)
			r.Post("/accept", a.acceptChallenge)
			r.Post("/decline", a.declineChallenge)
			r.Post("/cancel", a.cancelChallenge)
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", a.getMatch)
			r.Post("/confirm", a.confirmMatch)
			r.Get("/dispute", a.latestDispute)
			r.Post("/dispute", a.disputeMatch)
			r.Post("/resolve", a.resolveDispute)
			r.Post("/void", a.voidMatch)
			r.Post("/unvoid", a.unvoidMatch)
		})

		r.With(RequireAdmin).Get("/admin/audit", a.auditRecords)
	})

	return r
}

// correlation copies chi's request id onto the context for log correlation.
func correlation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(attr.WithCorrelationID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
