package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/mockprep/internal/api/http"
	"github.com/mind-engage/mockprep/internal/catalog"
	"github.com/mind-engage/mockprep/internal/config"
	"github.com/mind-engage/mockprep/internal/db"
	"github.com/mind-engage/mockprep/internal/engine"
	"github.com/mind-engage/mockprep/internal/exam"
	"github.com/mind-engage/mockprep/internal/history"
	"github.com/mind-engage/mockprep/internal/logging"
	"github.com/mind-engage/mockprep/internal/metrics"
	"github.com/mind-engage/mockprep/internal/storage"
	syncx "github.com/mind-engage/mockprep/internal/sync"
)

func main() {
	cfg, err := config.Load(".env")
	log := logging.NewLogger("gateway", cfg.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// --- DB ---
	var (
		dbh    *sql.DB
		store  exam.Store
		pubs   syncx.Fanout
		events *syncx.EventRepo
	)
	if cfg.DBDriver == config.DriverMemory {
		store = exam.NewInMemoryStore()
	} else {
		dbh, err = db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.WithError(err).Fatal("db open failed")
		}
		defer dbh.Close()
		store = exam.NewSQLStore(dbh, db.Driver(cfg.DBDriver))
		events = syncx.NewEventRepo(dbh, db.Driver(cfg.DBDriver))
		pubs = append(pubs, events)
	}

	// --- Catalog ---
	cat, err := loadCatalog(ctx, cfg, dbh)
	if err != nil {
		log.WithError(err).Fatal("catalog load failed")
	}
	log.WithField("tests", len(cat.ListTests())).Info("catalog ready")

	sig, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Events ---
	// With a database the event log is the outbox and a relay forwards it to
	// Redis; without one, events go to Redis directly.
	if cfg.RedisURL != "" {
		rp, err := syncx.NewRedisPublisher(ctx, cfg.RedisURL, syncx.DefaultChannel)
		switch {
		case err != nil:
			log.WithError(err).Warn("redis unavailable, events stay local")
		case events != nil:
			defer rp.Close()
			go syncx.NewRelay("redis", events, rp, log).Run(sig, cfg.RelayInterval)
		default:
			defer rp.Close()
			pubs = append(pubs, rp)
		}
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(nil)
	}

	eng := engine.New(cat, store,
		engine.WithLogger(log),
		engine.WithMetrics(m),
		engine.WithPublisher(pubs),
		engine.WithAssembler(exam.WithDedup(cfg.SubjectDedup)),
		engine.WithHistory(history.WithChartPoints(cfg.ChartPoints)),
	)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.Middleware(log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if m != nil {
		r.Use(m.Middleware)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	api.Mount(r, eng)
	if cfg.AssetDir != "" {
		ms, err := storage.NewDirStore(cfg.AssetDir)
		if err != nil {
			log.WithError(err).Fatal("asset dir unusable")
		}
		r.Route("/assets", func(r chi.Router) { api.MountMedia(r, ms) })
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if dbh != nil {
			if err := dbh.PingContext(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(200)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).WithField("db", cfg.DBDriver).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server failed")
		}
	}()

	<-sig.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown failed")
	}
}

// loadCatalog builds the catalog from CATALOG_PATH or the built-in sample.
// With CATALOG_SOURCE=sql the seed is imported first (when a path is given or
// the tables are empty) and the tables are the source of truth.
func loadCatalog(ctx context.Context, cfg config.Config, dbh *sql.DB) (*catalog.MemoryCatalog, error) {
	seed := catalog.Sample()
	if cfg.CatalogPath != "" {
		s, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		seed = s
	}
	if cfg.CatalogSource != config.CatalogSQL || dbh == nil {
		return catalog.NewMemoryCatalog(seed), nil
	}

	cs := catalog.NewSQLStore(dbh, db.Driver(cfg.DBDriver))
	if cfg.CatalogPath != "" {
		if err := cs.Import(ctx, seed); err != nil {
			return nil, err
		}
		return cs.Load(ctx)
	}
	cat, err := cs.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(cat.ListTests()) > 0 {
		return cat, nil
	}
	if err := cs.Import(ctx, seed); err != nil {
		return nil, err
	}
	return cs.Load(ctx)
}
