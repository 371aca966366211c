package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"SwingScanner/internal/model"
	"SwingScanner/internal/notifier"
	"SwingScanner/internal/scheduler"
	"SwingScanner/internal/status"
	"SwingScanner/internal/universe"
)

func scanCmd() *cobra.Command {
	var tickers []string
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the setups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			list, u, err := a.loadUniverse()
			if len(tickers) > 0 {
				// Sectors still come from the universe file when it loads.
				if list, err = universe.Filter(tickers, cfg.Universe.Exclude); err != nil {
					return err
				}
			} else if err != nil {
				return fmt.Errorf("load universe: %w", err)
			}

			res, err := a.withScanner(u).Scan(ctx, list)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&tickers, "tickers", nil, "Comma-separated tickers to scan instead of the universe file")
	return cmd
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run scheduled scans and answer Telegram commands until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateTelegram(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			logger.Info().Msg("swing scanner starting")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			tracker, err := status.NewTracker(cfg.Scan.StatusFile, logger)
			if err != nil {
				return fmt.Errorf("init status tracker: %w", err)
			}

			// Sectors are looked up through a holder so each run sees the latest universe file.
			sectors := &sectorHolder{}
			sc := a.withScanner(sectors)
			sc.OnProgress = tracker.Progress
			tickers := func() ([]string, error) {
				list, u, err := a.loadUniverse()
				if err != nil {
					return nil, err
				}
				sectors.set(u)
				return list, nil
			}

			tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
			sched := scheduler.NewScheduler(ctx, sc, tickers, tracker, tn, logger)
			if err := sched.RegisterAll(cfg.Scan.Cron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			go tn.StartPolling(ctx, sched.HandleCommand)
			logger.Info().Msg("telegram polling started")

			if os.Getenv("RUN_ON_START") == "true" {
				logger.Info().Msg("RUN_ON_START enabled, scanning now")
				sched.RunScanAsync()
			}

			logger.Info().Str("cron", cfg.Scan.Cron).Msg("swing scanner is running, press Ctrl+C to stop")
			<-ctx.Done()
			logger.Info().Msg("shutdown signal received, stopping")
			return nil
		},
	}
}

func universeCmd() *cobra.Command {
	var (
		checkLiquidity bool
		writePath      string
	)
	cmd := &cobra.Command{
		Use:   "universe",
		Short: "Print the filtered universe with sectors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			list, u, err := a.loadUniverse()
			if err != nil {
				return fmt.Errorf("load universe: %w", err)
			}
			if checkLiquidity {
				list = a.liquidOnly(ctx, list)
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, t := range list {
				fmt.Fprintf(tw, "%s\t%s\n", t, u.Sector(t))
			}
			tw.Flush()
			fmt.Fprintf(out, "\n%d tickers\n", len(list))
			for _, sr := range u.SectorCounts(list) {
				fmt.Fprintf(out, "  %-28s %d\n", sr.Sector, sr.Count)
			}

			if writePath != "" {
				kept := make(map[string]string, len(list))
				for _, t := range list {
					kept[t] = u.Sector(t)
				}
				if err := (&universe.Universe{Tickers: list, Sectors: kept}).Save(writePath); err != nil {
					return fmt.Errorf("write universe: %w", err)
				}
				fmt.Fprintf(out, "written to %s\n", writePath)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkLiquidity, "check-liquidity", false, "Fetch bars and drop tickers below the price and volume minimums")
	cmd.Flags().StringVar(&writePath, "write", "", "Save the filtered universe to this path")
	return cmd
}

// liquidOnly keeps tickers whose recent bars pass the configured price and volume minimums.
func (a *app) liquidOnly(ctx context.Context, tickers []string) []string {
	minPrice, minVol := a.cfg.Universe.MinPrice, a.cfg.Universe.MinAvgVolume
	var kept []string
	for _, t := range tickers {
		if ctx.Err() != nil {
			break
		}
		series, err := a.collector.Collect(ctx, t)
		if err != nil || series == nil {
			a.log.Debug().Err(err).Str("ticker", t).Msg("no bars, dropped")
			continue
		}
		if universe.Liquid(series.Bars, minPrice, minVol) {
			kept = append(kept, t)
		}
	}
	return kept
}

func printSummary(w io.Writer, res *model.ScanResult) {
	fmt.Fprintf(w, "Scan %s | %s | regime %s\n", res.ID, res.Timestamp.Format("2006-01-02 15:04"), res.Regime)
	fmt.Fprintf(w, "Scanned %d/%d, failed %d, %d setups in %s\n\n",
		res.Scanned, res.Tickers, res.Failed, len(res.Setups), res.Duration.Round(time.Millisecond))

	if len(res.Setups) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TICKER\tTYPE\tDETAIL\tENTRY\tSTOP\tTARGET\tR:R\tSECTOR")
		for i := range res.Setups {
			s := &res.Setups[i]
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
				s.Ticker, s.SetupType, setupDetail(s), s.Entry, s.StopLoss, s.TakeProfit, s.RiskReward, s.Sector)
		}
		tw.Flush()
	}

	if len(res.Sectors) > 0 {
		fmt.Fprintln(w, "\nSectors:")
		for _, sr := range res.Sectors {
			hot := ""
			if sr.Count >= notifier.HotSectorMin {
				hot = "  (hot)"
			}
			fmt.Fprintf(w, "  %-28s %d%s\n", sr.Sector, sr.Count, hot)
		}
	}
}

func setupDetail(s *model.Setup) string {
	switch {
	case s.Breakout != nil:
		parts := []string{string(s.Breakout.Path)}
		if s.Breakout.IsBlueDot {
			parts = append(parts, "blue-dot")
		}
		return strings.Join(parts, ",")
	case s.Pullback != nil:
		if s.Pullback.IsRelaxed {
			return "relaxed"
		}
		return "strict"
	case s.Base != nil:
		return fmt.Sprintf("%s/%s q=%.0f", s.Base.Pattern, s.Base.Signal, s.Base.QualityScore)
	}
	return ""
}
