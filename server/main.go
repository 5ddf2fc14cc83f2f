package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neilgarb/blackjack"
	"github.com/neilgarb/blackjack/storage/sqlite"
)

func main() {
	tokenFor := flag.Int("token-for", 0, "print a bearer token for this player id and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -token-for")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal(err)
	}

	auth, err := blackjack.NewAuthenticator([]byte(cfg.TokenSecret), cfg.TokenIssuer)
	if err != nil {
		logger.Fatal(err)
	}
	if *tokenFor > 0 {
		token, err := auth.IssueToken(blackjack.PlayerID(*tokenFor), *tokenTTL)
		if err != nil {
			logger.Fatal(err)
		}
		fmt.Println(token)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog := blackjack.StandardCatalog()
	var opts []blackjack.ManagerOption
	// "-" runs without persistence.
	if cfg.DBPath != "-" {
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			logger.Fatal(err)
		}
		defer store.Close()

		seeded, err := store.SeedCatalog(ctx, blackjack.StandardCards())
		if err != nil {
			logger.Fatal(err)
		}
		if seeded {
			logger.Printf("seeded %d cards", blackjack.DeckSize)
		}
		catalog, err = store.LoadCatalog(ctx)
		if err != nil {
			logger.Fatal(err)
		}
		opts = append(opts, blackjack.WithStore(store))
	}

	// A catalog that can't make a full deck is fatal.
	registry, err := blackjack.NewRegistry(catalog)
	if err != nil {
		logger.Fatal(err)
	}

	hub := blackjack.NewHub(logger, cfg.WriteTimeout)
	opts = append(opts, blackjack.WithNotifier(hub), blackjack.WithLogger(logger))
	manager := blackjack.NewManager(registry, opts...)

	n, err := manager.Restore(ctx)
	if err != nil {
		logger.Fatal(err)
	}
	logger.Printf("restored %d games", n)

	r := blackjack.NewHandler(manager, auth, hub, logger).Router()
	if cfg.ClientDir != "" {
		r.ServeFiles("/client/*filepath", http.Dir(cfg.ClientDir))
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown: %v", err)
		}
	}()

	logger.Printf("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(err)
	}
}
