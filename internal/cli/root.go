// Package cli is the cobra command tree of the portabase binary.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/atanenl/portabase-go/internal/app"
	"github.com/atanenl/portabase-go/internal/config"
	"github.com/atanenl/portabase-go/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// rootFlags are the persistent flags shared by every command. Only flags the
// user actually set override the environment.
type rootFlags struct {
	baseURL    string
	apiKey     string
	output     string
	logLevel   string
	timeout    int64
	publishers string
	storage    string
	journal    string
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "portabase",
		Short: "Query hosts and managers and upload qualifications to PortaBase",
		Long: "portabase talks to the PortaBase childcare administration API.\n" +
			"Credentials come from PORTABASE_BASE_URL and PORTABASE_API_KEY or the matching flags.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		Version: version,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.baseURL, "base-url", "", "PortaBase base URL, e.g. https://demo.portabase.nl")
	pf.StringVar(&flags.apiKey, "api-key", "", "PortaBase API key")
	pf.StringVarP(&flags.output, "output", "o", "json", "Output format: json, yaml or table")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	pf.Int64Var(&flags.timeout, "timeout", 30, "Request timeout in seconds")
	pf.StringVar(&flags.publishers, "publishers", "", "Publishers registry file (yaml or json)")
	pf.StringVar(&flags.storage, "storage", "bbolt", "Submission journal: bbolt or none")
	pf.StringVar(&flags.journal, "journal", "./data/journal.db", "Submission journal path")

	root.AddCommand(newHostsCmd(flags))
	root.AddCommand(newManagersCmd(flags))
	root.AddCommand(newQualificationCmd(flags))
	return root
}

// overrides returns the config keys for flags that were set explicitly.
func (f *rootFlags) overrides(cmd *cobra.Command) map[string]any {
	set := cmd.Flags().Changed
	out := map[string]any{}
	if set("base-url") {
		out["base_url"] = f.baseURL
	}
	if set("api-key") {
		out["api_key"] = f.apiKey
	}
	if set("output") {
		out["output"] = f.output
	}
	if set("log-level") {
		out["log_level"] = f.logLevel
	}
	if set("timeout") {
		out["timeout_seconds"] = f.timeout
	}
	if set("publishers") {
		out["publishers_file"] = f.publishers
	}
	if set("storage") {
		out["storage_type"] = f.storage
	}
	if set("journal") {
		out["bbolt_path"] = f.journal
	}
	return out
}

// loadConfig merges flags into the environment config and starts the logger
// on the command's stderr.
func (f *rootFlags) loadConfig(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(f.overrides(cmd))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	sugar, err := logger.Init(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger.DebugObj("config loaded", "config", cfg.Redacted())
	return cfg, logger.NewZapLogger(sugar), nil
}

// withApp runs fn against a fully wired App and releases it afterwards.
func (f *rootFlags) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, log, err := f.loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, log, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.ErrorObj("close app failed", "error", cerr.Error())
		}
	}()

	start := time.Now()
	meta := map[string]any{"command": cmd.CommandPath()}
	if err := fn(ctx, a); err != nil {
		meta["error"] = app.Describe(err)
		logger.WarnObj("command failed", "command_meta", meta)
		return err
	}
	meta["elapsed_ms"] = time.Since(start).Milliseconds()
	logger.InfoObj("command completed", "command_meta", meta)
	return nil
}

// Execute runs the command tree with args and returns the process exit code.
// Errors are printed as a single line on stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", app.Describe(err))
		return 1
	}
	return 0
}
