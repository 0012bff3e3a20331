package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lguibr/fujipong/bollywood"
	"github.com/lguibr/fujipong/chain"
	"github.com/lguibr/fujipong/game"
	"github.com/lguibr/fujipong/server"
	"github.com/lguibr/fujipong/store"
	"github.com/lguibr/fujipong/utils"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pong server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := utils.LoadConfig()
	if err != nil {
		return err
	}
	logs := utils.NewLogBackend(os.Stdout, cfg.LogLevel)
	log := logs.Logger(utils.SubsystemServer)

	db, err := store.Open(cfg.DBPath, logs.Logger(utils.SubsystemStore))
	if err != nil {
		return err
	}
	defer db.Close()

	relay := chain.NewClient(cfg.RelayURL, nil, logs.Logger(utils.SubsystemChain))

	engine := bollywood.NewEngine(logs.Logger(utils.SubsystemActor))
	managerPID := engine.Spawn(bollywood.NewProps(game.NewRoomManagerProducer(engine, cfg, game.RoomManagerParams{
		Submitter: relay,
		Logger:    logs.Logger(utils.SubsystemGame),
	})))
	if managerPID == nil {
		return errors.New("failed to spawn room manager")
	}
	defer engine.Shutdown(shutdownTimeout)

	poller, err := server.NewStatusPoller(relay, cfg, log)
	if err != nil {
		return err
	}
	defer poller.Shutdown()

	srv := server.New(engine, managerPID,
		server.WithLogger(log),
		server.WithNameStores(func(clientID string) game.NameStore { return db.Names(clientID) }),
		server.WithStatus(poller),
	)
	httpServer := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Listening on %s (relay %s)", cfg.ServerAddr, cfg.RelayURL)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		poller.Start()
		<-gctx.Done()
		log.Infof("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
