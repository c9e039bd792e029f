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

	"github.com/spf13/cobra"

	"github.com/dogsub/Open-Source-TermP/common/id"
	"github.com/dogsub/Open-Source-TermP/common/logger"
	"github.com/dogsub/Open-Source-TermP/common/otel"
	"github.com/dogsub/Open-Source-TermP/core/config"
	"github.com/dogsub/Open-Source-TermP/internal/model"
	"github.com/dogsub/Open-Source-TermP/internal/service"
	"github.com/dogsub/Open-Source-TermP/internal/store"
	"github.com/dogsub/Open-Source-TermP/internal/ui"
)

var errAnalysisFailed = errors.New("analysis failed")

type analyzeFlags struct {
	out      string
	noReadme bool
	noTags   bool
	noImage  bool
}

func newRootCmd() *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:           "termp <repo-url>",
		Short:         "Generate a README, technology tags and a representative image for a repository",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.out, "out", "", "output directory (default $TERMP_OUTPUT_DIR or ./output)")
	cmd.Flags().BoolVar(&flags.noReadme, "no-readme", false, "skip README generation")
	cmd.Flags().BoolVar(&flags.noTags, "no-tags", false, "skip tag extraction")
	cmd.Flags().BoolVar(&flags.noImage, "no-image", false, "skip image selection")

	cmd.AddCommand(newMergeCmd())
	return cmd
}

func runAnalyze(cmd *cobra.Command, repoURL string, flags analyzeFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("initializing otel: %w", err)
	}
	if telemetry != nil {
		defer func() {
			if err := telemetry.Shutdown(context.Background()); err != nil {
				slog.ErrorContext(ctx, "otel shutdown error", "error", err)
			}
		}()
	}

	logger.Setup(cfg, os.Stderr)

	if err := id.Init(id.NodeCLI); err != nil {
		return fmt.Errorf("initializing id generator: %w", err)
	}

	if err := cfg.ValidateLLM(); err != nil {
		slog.WarnContext(ctx, "model credentials incomplete, affected steps will be skipped", "error", err)
	}

	analysis, err := service.NewAnalysisServiceFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	outRoot := cfg.OutputDir
	if flags.out != "" {
		outRoot = flags.out
	}
	out, err := store.NewOutputDir(outRoot, &http.Client{Timeout: cfg.Fetch.Timeout})
	if err != nil {
		return err
	}

	a, err := analysis.Run(ctx, repoURL, service.Options{
		RunID:      id.New(),
		SkipReadme: flags.noReadme,
		SkipTags:   flags.noTags,
		SkipImage:  flags.noImage,
	})
	if err != nil {
		return err
	}

	var exp *service.Exported
	if _, fetchFailed := a.StepErrors[model.StepFetch]; !fetchFailed {
		exp, err = service.Export(ctx, a, out)
		if err != nil {
			slog.ErrorContext(ctx, "writing outputs failed", "error", err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.Summary(a, exp))

	if a.Failed() {
		return errAnalysisFailed
	}
	return nil
}
