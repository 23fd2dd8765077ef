package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"pregame.city/internal/persistence/indexdb"
	persistlog "pregame.city/internal/persistence/log"
	"pregame.city/internal/sim/arena"
	"pregame.city/internal/sim/catalogs"
	"pregame.city/internal/sim/hostphys"
	"pregame.city/internal/sim/tuning"
	"pregame.city/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		arenaID    = flag.String("arena", "city_1", "arena id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the challenge results index")
		physHz     = flag.Int("phys_hz", 60, "physics step rate")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	arenaDir := filepath.Join(*dataDir, "arenas", *arenaID)
	_ = os.MkdirAll(arenaDir, 0o755)

	// Optional: read-model index (does not affect sim behavior).
	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(arenaDir, "index", "arena.db"))
		if err != nil {
			logger.Fatalf("open results index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(*configDir, cats, tune); err != nil {
			logger.Printf("results index: upsert catalogs: %v", err)
		}
	} else {
		logger.Printf("results index disabled")
	}

	eventLog := persistlog.NewEventLogger(arenaDir)
	defer eventLog.Close()

	phys := hostphys.NewWorld(hostphys.HoopsFromZones(cats.Zones))

	a := arena.New(arena.Config{ID: *arenaID, TickRateHz: tune.TickRateHz}, cats, tune, phys, logger)
	a.SetEventLogger(eventLog)
	if idx != nil {
		a.SetResultsIndex(idx)
	}

	// Hoop contacts flow from the physics loop into the arena loop. Drop
	// instead of blocking if the arena is behind; a lost contact only costs
	// a cosmetic score callback.
	phys.OnContact(func(c hostphys.Contact) {
		select {
		case a.Contacts() <- arena.SensorContact{Body: c.Body, HoopPos: c.HoopPos, VerticalVel: c.VerticalVel}:
		default:
		}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go phys.Run(ctx, *physHz)
	go func() {
		if err := a.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("arena stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP pregame_arena_tick Current arena tick.\n")
		fmt.Fprintf(rw, "# TYPE pregame_arena_tick gauge\n")
		fmt.Fprintf(rw, "pregame_arena_tick{arena=%q} %d\n", *arenaID, a.CurrentTick())
	})
	mux.Handle("/v1/ws", ws.NewServer(a, logger).Handler())

	if envBool("PC_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("arena=%s listening on %s (tick_rate=%dhz)", *arenaID, *addr, tune.TickRateHz)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("http: %v", err)
	}
	logger.Printf("shutdown complete")
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
