// Command relay serves the score ledger API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/lguibr/fujipong/relay"
	"github.com/lguibr/fujipong/store"
	"github.com/lguibr/fujipong/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "relay: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := utils.LoadConfig()
	if err != nil {
		return err
	}
	logs := utils.NewLogBackend(os.Stdout, cfg.LogLevel)
	log := logs.Logger(utils.SubsystemRelay)

	if cfg.SigningKey == "" {
		log.Warnf("SERVER_PRIVATE_KEY is not set; score submissions will be rejected")
	}

	db, err := store.Open(cfg.LedgerDBPath, logs.Logger(utils.SubsystemStore))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.VerifyChain(context.Background()); err != nil {
		return fmt.Errorf("ledger %s failed verification: %w", cfg.LedgerDBPath, err)
	}

	r := relay.New(db, cfg.SigningKey, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.Listen(cfg.RelayAddr) })
	g.Go(func() error {
		<-gctx.Done()
		log.Infof("Shutting down")
		return r.Shutdown()
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
