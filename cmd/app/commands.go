package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"business_war/internal/app"
	"business_war/internal/domain"
	"business_war/internal/engine"
	"business_war/internal/infra/feed"

	"github.com/spf13/cobra"
)

// NewSimulateCommand plays a whole bot game and prints the final rankings.
func NewSimulateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Play a full game with bots and print the rankings",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := app.NewBootstrap()
			if err := b.Initialize(configPath); err != nil {
				return fmt.Errorf("bootstrapping failed: %w", err)
			}
			defer b.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pub := app.NewPublisher(b.Repository(), b.Board, nil, b.Logger)
			sim, err := app.NewSimulator(b.Game, b.Config.Simulation.Bots, b.Config.Simulation.MinerOutput,
				engine.NewRand(b.Seed+1), pub, b.Logger)
			if err != nil {
				return err
			}

			rankings, err := sim.Run(ctx, 0)
			if err != nil {
				return err
			}
			printRankings(b.Game.ID(), rankings)
			return nil
		},
	}
}

// NewServeCommand runs a bot game in the background behind the spectator API.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a bot game and serve prices, state and a live feed over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := app.NewBootstrap()
			if err := b.Initialize(configPath); err != nil {
				return fmt.Errorf("bootstrapping failed: %w", err)
			}
			defer b.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := b.Config
			hub := feed.NewHub(cfg.Server.FeedBuffer, b.Metrics, b.Logger)
			defer hub.Close()

			pub := app.NewPublisher(b.Repository(), b.Board, hub, b.Logger)
			pub.ApplyAsync(ctx)
			sim, err := app.NewSimulator(b.Game, cfg.Simulation.Bots, cfg.Simulation.MinerOutput,
				engine.NewRand(b.Seed+1), pub, b.Logger)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr: cfg.Server.Listen,
				Handler: app.NewRouter(app.Handlers{
					Game:     b.Game,
					Board:    b.Board,
					Repo:     b.Repository(),
					Gatherer: b.Registry,
					Feed:     hub,
					Reset:    sim.Restart,
				}),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				slog.Info("🌐 HTTP server started", slog.String("listen", cfg.Server.Listen))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("HTTP server failed", slog.Any("error", err))
					stop()
				}
			}()

			go func() {
				tick := time.Duration(cfg.Simulation.TickMillis) * time.Millisecond
				for {
					rankings, err := sim.Run(ctx, tick)
					if err != nil && !errors.Is(err, domain.ErrGameOver) {
						if !errors.Is(err, context.Canceled) {
							slog.Error("Simulation stopped", slog.Any("error", err))
						}
						return
					}
					slog.Info("🏁 Game over, still serving", slog.Int("players", len(rankings)))

					// an admin reset starts the next game
					select {
					case <-ctx.Done():
						return
					case <-sim.Restarted():
					}
				}
			}()

			<-ctx.Done()
			slog.Info("🛑 Shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

// NewInspectCommand prints a summary of a state dump.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <dump>",
		Short: "Summarize a state dump written after a failed phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dump, err := engine.ReadStateDump(args[0])
			if err != nil {
				return fmt.Errorf("read dump: %w", err)
			}

			fmt.Printf("Game:     %s\n", dump.GameID)
			fmt.Printf("Turn:     %d (%s)\n", dump.Turn, dump.Phase)
			fmt.Printf("Next seq: %d\n", dump.NextSeq)
			if dump.News != nil {
				fmt.Printf("News:     %s %s\n", dump.News.ID, dump.News.Title)
			}
			if dump.Gov != nil {
				fmt.Printf("Gov:      %s %s\n", dump.Gov.ID, dump.Gov.Title)
			}
			fmt.Printf("Orders:   %d general, %d government\n", len(dump.Book), len(dump.GovBook))
			fmt.Println("Players:")
			for _, p := range dump.Players {
				fmt.Printf("  %-16s cash %d (locked %d), %d item kinds\n",
					p.Name, p.Cash, p.LockedCash, len(p.Inventory))
			}
			return nil
		},
	}
}

func printRankings(gameID string, rankings []engine.Ranking) {
	fmt.Printf("Game %s final rankings\n", gameID)
	for i, r := range rankings {
		fmt.Printf("%2d. %-16s total %10d  (inventory %d, facilities %d, cash %d)\n",
			i+1, r.Name, r.Score.TotalScore, r.Score.InventoryValue, r.Score.FacilityValue, r.Score.Cash)
	}
}
