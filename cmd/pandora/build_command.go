package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pandora/internal/compile"
	"pandora/internal/logging"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var workers int
	var noCache bool

	cmd := &cobra.Command{
		Use:   "build <input>",
		Short: "Compile a markup document into a .pandora archive",
		Long: "Compile a markup document into a .pandora archive.\n\n" +
			"Individual block render failures do not fail the build; they are\n" +
			"listed as warnings and the affected blocks carry placeholders in\n" +
			"the archive. The command fails only on structural problems.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			compiler := compile.New(cfg, logger)
			result, err := compiler.Run(runCtx, compile.Options{
				InputPath:  args[0],
				OutputPath: outputPath,
				Workers:    workers,
				NoCache:    noCache,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Compiled %s\n", result.ArchivePath)
			fmt.Fprintln(out, renderTable(
				[]string{"BLOCKS", "PAGES", "LAYOUT", "CACHE HITS", "ELAPSED"},
				[][]string{{
					strconv.Itoa(result.BlockCount),
					strconv.Itoa(result.PageCount),
					string(result.LayoutMode),
					strconv.Itoa(result.CacheHits),
					result.Elapsed.Round(10 * time.Millisecond).String(),
				}},
				[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight},
			))

			if len(result.Warnings) > 0 {
				errOut := cmd.ErrOrStderr()
				fmt.Fprintf(errOut, "%d block(s) failed to render:\n", len(result.Warnings))
				for _, warning := range result.Warnings {
					fmt.Fprintf(errOut, "  - %s\n", warning)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Archive output path (default: input with .pandora extension)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Render worker pool size (default: from configuration)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the render cache for this build")
	return cmd
}
