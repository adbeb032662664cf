package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mezonai/snapledger/api"
	"github.com/mezonai/snapledger/config"
	"github.com/mezonai/snapledger/events"
	"github.com/mezonai/snapledger/exception"
	"github.com/mezonai/snapledger/logx"
	"github.com/mezonai/snapledger/ratelimit"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var listenAddr string
	var rateLimit int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve ledger reads, transfers, claims and /metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.nodeConfig != "" && !cmd.Flags().Changed("listen") {
				nodeCfg, err := config.LoadNodeConfig(opts.nodeConfig)
				if err != nil {
					return err
				}
				if nodeCfg.Metrics.Enabled && nodeCfg.Metrics.Listen != "" {
					listenAddr = nodeCfg.Metrics.Listen
				}
			}

			bus := events.NewEventBus()
			subID, ch := bus.Subscribe()
			defer bus.Unsubscribe(subID)
			exception.SafeGo("event logger", func() { logEvents(ch) })

			sys, err := opts.openSystemWithRouter(events.NewEventRouter(bus))
			if err != nil {
				return err
			}
			defer sys.Close()

			limiter := ratelimit.NewRateLimiter(&ratelimit.Config{
				MaxRequests:     rateLimit,
				WindowSize:      time.Second,
				CleanupInterval: time.Minute,
			})
			server := api.NewServer(sys, listenAddr, limiter)
			server.Start()
			fmt.Fprintf(cmd.OutOrStdout(), "serving on %s\n", listenAddr)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logx.Info("CMD", "Shutting down API server")
			return server.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", ":8080", "HTTP listen address")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 5, "Mutating requests allowed per caller per second")
	return cmd
}

func logEvents(ch <-chan events.LedgerEvent) {
	for ev := range ch {
		logx.Info("EVENT", fmt.Sprintf("%s | source=%s | %+v", ev.Type(), ev.Source(), ev))
	}
}
