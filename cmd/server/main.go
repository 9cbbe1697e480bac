package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"railforge/internal/persistence/indexdb"
	persistlog "railforge/internal/persistence/log"
	"railforge/internal/sim/tuning"
	"railforge/internal/sim/world"
	"railforge/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 1337, "terrain seed")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite command index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	_ = os.MkdirAll(worldDir, 0o755)

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

	w := world.New(world.Config{
		ID:                 *worldID,
		TickRateHz:         tune.TickRateHz,
		Seed:               *seed,
		BoundaryR:          tune.BoundaryR,
		MaxHeight:          tune.MaxHeight,
		RegionSize:         tune.RegionSize,
		RoughnessPermille:  tune.RoughnessPermille,
		GestureWindowTicks: tune.RateLimits.GestureWindowTicks,
		GestureMax:         tune.RateLimits.GestureMax,
	}, logger)

	ctx, cancel := signalContext()
	defer cancel()

	cmdLog := persistlog.NewCommandLogger(worldDir)
	defer cmdLog.Close()
	w.SetAudit(cmdLog)

	if !*disableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		w.SetIndex(idx)
	}

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		m := w.Metrics()

		fmt.Fprintf(rw, "# HELP railforge_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE railforge_world_tick gauge\n")
		fmt.Fprintf(rw, "railforge_world_tick{world=%q} %d\n", *worldID, m.Tick)

		fmt.Fprintf(rw, "# HELP railforge_world_sessions Connected toolbar sessions.\n")
		fmt.Fprintf(rw, "# TYPE railforge_world_sessions gauge\n")
		fmt.Fprintf(rw, "railforge_world_sessions{world=%q} %d\n", *worldID, m.Sessions)

		fmt.Fprintf(rw, "# HELP railforge_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE railforge_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "railforge_world_queue_depth{world=%q,queue=%q} %d\n", *worldID, "inbox", m.InboxDepth)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
