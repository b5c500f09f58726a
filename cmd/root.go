/* cmd/root.go */

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/config"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_cli"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_err"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/dedup_io"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/duplicates"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/logger"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/qualys"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd is the agentdedup command.
var RootCmd = NewRootCmd()

// NewRootCmd builds the root command with its own flag state.
func NewRootCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "agentdedup",
		Short: "Remove duplicate Qualys cloud agent registrations",
		Long: `agentdedup lists every cloud agent on the Qualys platform, groups agents that
report the same hostname and IP address, keeps the most recently active agent in
each group and uninstalls the others.

Credentials and endpoint come from the environment or a .env file:
  API_LOGIN, API_PASSWORD, API_PLATFORM_URL (required)
  API_HEADERS, API_REQUEST_DELAY, API_MAX_RETRIES, API_TIMEOUT, API_PAGE_SIZE
  LOG_DIR, LOG_PREFIX, LOG_LEVEL

Use --dry-run first to review what would be removed.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return dedup_err.NewValidationError("invalid arguments", err, "agentdedup takes no arguments; run with --dry-run or no flags")
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: dedup_cli.Wrap(func(rc *dedup_io.RuntimeContext, cmd *cobra.Command, args []string) error {
			return runDedup(rc, dryRun)
		}),
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report duplicates that would be removed without removing them")
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return dedup_err.NewValidationError("invalid flags", err, "run agentdedup --help for usage")
	})
	return cmd
}

func runDedup(rc *dedup_io.RuntimeContext, dryRun bool) error {
	rc.Attributes["dry_run"] = strconv.FormatBool(dryRun)

	cfg, err := config.Load(config.NewViper())
	if err != nil {
		return err
	}
	rc.Log.Debug("Configuration loaded",
		zap.String("platform_url", cfg.PlatformURL),
		zap.Duration("request_delay", cfg.RequestDelay),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("timeout", cfg.Timeout),
		zap.Int("page_size", cfg.PageSize),
		zap.Int("extra_headers", len(cfg.Headers)))

	client, err := qualys.NewClient(cfg.QualysConfig())
	if err != nil {
		return dedup_err.NewValidationError("invalid API client configuration", err)
	}

	result, runErr := duplicates.NewRunner(client, dryRun).Run(rc.Ctx)

	if err := telemetry.RecordRun(rc.Ctx, telemetry.RunCounts{
		DryRun:      result.DryRun,
		Fetched:     result.Fetched,
		Groups:      result.Groups,
		Removed:     result.Removed,
		WouldRemove: result.WouldRemove,
		AlreadyGone: result.AlreadyGone,
		Errors:      result.Errors,
	}); err != nil {
		rc.Log.Warn("Failed to record run metrics", zap.Error(err))
	}

	reportSummary(rc.Log, result, logger.Path())

	if runErr != nil {
		return runErr
	}
	if result.Errors > 0 {
		return dedup_err.NewRemovalError(result.Errors, result.Err())
	}
	return nil
}

// Execute runs the root command until it finishes or the process is
// interrupted, and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, RootCmd, os.Args[1:], os.Stderr)
}

func run(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	logger.L().Error("agentdedup failed",
		zap.String("error_type", dedup_err.ErrorType(err)),
		zap.Error(err))

	fmt.Fprintf(stderr, "Error: %v\n", err)
	for _, hint := range dedup_err.Hints(err) {
		fmt.Fprintf(stderr, "Hint: %s\n", hint)
	}
	return dedup_err.GetExitCode(err)
}
