package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"pandora/internal/logging"
	"pandora/internal/serve"
	"pandora/internal/viewer"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve <archive>",
		Short: "Serve an archive over HTTP for preview tooling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			address := strings.TrimSpace(bind)
			if address == "" {
				address = cfg.Serve.Bind
			}

			doc, err := viewer.Open(args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			server := serve.New(address, doc, logger)
			if err := server.Start(runCtx); err != nil {
				return err
			}
			defer server.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s (ctrl-c to stop)\n", args[0], server.Addr())
			<-runCtx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default: from configuration)")
	return cmd
}
