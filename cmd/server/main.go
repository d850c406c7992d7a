package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"holdem-engine/holdem/npc"
	"holdem-engine/internal/auth"
	"holdem-engine/internal/gateway"
	"holdem-engine/internal/httpapi"
	"holdem-engine/internal/lobby"
	"holdem-engine/internal/store"
	"holdem-engine/internal/table"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[Server] .env ignored: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("[Server] Bad config: %v", err)
	}

	st, storeMode, err := store.NewFromEnv(cfg.StoreMode)
	if err != nil {
		log.Fatalf("[Server] Failed to init store: %v", err)
	}
	defer st.Close()

	registry := npc.DefaultRegistry()
	if cfg.Personas != "" {
		if err := registry.LoadFromFile(cfg.Personas); err != nil {
			log.Fatalf("[Server] Failed to load personas: %v", err)
		}
	}

	lby := lobby.New(cfg.Table, table.Deps{Store: st, NPC: npc.NewManager(registry, 0)})
	defer lby.Shutdown()
	authMgr := auth.NewManager(st, cfg.SessionTTL)
	gw := gateway.New(lby, authMgr)
	api := httpapi.NewHTTPHandler(lby, st, authMgr)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.Router(func(r chi.Router) {
			r.Get("/ws", gw.HandleWebSocket)
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[Server] Store mode: %s", storeMode)
	log.Printf("[Server] Blinds %d/%d, default chips %d, action timeout %s",
		cfg.Table.SmallBlind, cfg.Table.BigBlind, cfg.Table.DefaultChips, cfg.Table.ActionTimeout)
	log.Printf("[Server] Listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}
