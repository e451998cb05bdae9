package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hangoutx/hangoutx-server/internal/api"
	"github.com/hangoutx/hangoutx-server/internal/config"
	"github.com/hangoutx/hangoutx-server/internal/database"
	"github.com/hangoutx/hangoutx-server/internal/session"
	"github.com/hangoutx/hangoutx-server/internal/stats"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
)

const defaultSigningKey = "c2VjcmV0LXNpZ25pbmcta2V5LWNoYW5nZS1tZQ=="

const expiredRoomSweepInterval = time.Hour

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[hangoutx] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	db, err := database.NewPgRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)
	statsUpdater.RegisterMetric(stats.ActiveSessions)
	statsUpdater.RegisterMetric(stats.ActiveConnections)
	statsUpdater.RegisterMetric(stats.CommandsAccepted)
	statsUpdater.RegisterMetric(stats.CommandsRejected)
	statsUpdater.RegisterMetric(stats.EventsDropped)

	registry := session.NewRegistry(logger, statsUpdater, clockwork.NewRealClock())
	gateway := session.NewGateway(registry, db, logger)

	srv := api.NewHangoutApp(mux, logger, gateway, db, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	sweepStop := make(chan struct{})
	go sweepExpiredRooms(logger, db, sweepStop)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	close(sweepStop)

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down sessions...")
	registry.Shutdown()

	logger.Println("shutdown complete")
}

// sweepExpiredRooms periodically deletes room records past their 24h
// TTL. Live sessions unload themselves on their own expiry timers.
func sweepExpiredRooms(logger *log.Logger, db database.Repository, stop <-chan struct{}) {
	ticker := time.NewTicker(expiredRoomSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := db.DeleteExpiredRooms()
			if err != nil {
				logger.Println("delete expired rooms:", err)
				continue
			}
			if n > 0 {
				logger.Printf("deleted %d expired rooms", n)
			}
		case <-stop:
			return
		}
	}
}
