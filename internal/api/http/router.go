package http

import (
	"log/slog"
	"net/http"

	"github.com/bakeryops/bakery-maint/internal/observability"
)

// Deps are the collaborators of the REST API.
type Deps struct {
	Stores      StoreRepository
	Products    ProductRepository
	Adjustments Repository
	Database    Availability

	// Supporting tables of the forecast pipeline
	RegionUplifts     RegionUpliftRepository
	Profiles          ProfileRepository
	ManualAdjustments ManualAdjustmentRepository

	Stats  *observability.UpdateStats
	Logger *slog.Logger

	// StripAuditFields removes audit timestamps from response rows
	StripAuditFields bool

	// StatsTopN is the length of the debug statistics rankings
	StatsTopN int

	// Middleware wraps every route before the default chain, e.g. shutdown tracking
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the HTTP handler serving the whole API.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topN := deps.StatsTopN
	if topN <= 0 {
		topN = 10
	}

	mux := http.NewServeMux()
	needsDB := RequireDatabase(deps.Database)

	NewStoreHandler(deps.Stores, logger, deps.StripAuditFields).Register(mux, needsDB)
	NewProductHandler(deps.Products, logger, deps.StripAuditFields).Register(mux, needsDB)
	NewAdjustmentHandler(deps.Adjustments, logger, deps.StripAuditFields).Register(mux, needsDB)
	NewRegionUpliftHandler(deps.RegionUplifts, logger).Register(mux, needsDB)
	NewProfileHandler(deps.Stores, deps.Profiles, logger).Register(mux, needsDB)
	NewManualAdjustmentHandler(deps.ManualAdjustments, logger, deps.StripAuditFields).Register(mux, needsDB)

	mux.Handle("GET /health", NewHealthHandler(deps.Database))
	if deps.Stats != nil {
		mux.Handle("GET /debug/update-stats", NewStatsHandler(deps.Stats, topN))
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", GetRequestID(r.Context()))
	})

	chain := append([]func(http.Handler) http.Handler{}, deps.Middleware...)
	chain = append(chain, DefaultMiddleware(logger))
	return ChainMiddleware(chain...)(mux)
}
