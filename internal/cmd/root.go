// Package cmd provides the command-line interface for LinkAudit.
// It handles command parsing, configuration loading, and crawl execution.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/masahif/linkaudit/internal/config"
	"github.com/masahif/linkaudit/internal/crawler"
	"github.com/masahif/linkaudit/internal/logging"
	"github.com/masahif/linkaudit/internal/parser"
	"github.com/masahif/linkaudit/internal/report"
	"github.com/masahif/linkaudit/internal/storage"
)

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "linkaudit [root-url]",
	Short: "A concurrent broken-link checker for a single site",
	Long: `LinkAudit crawls every page under a root URL, probes each link it finds
exactly once, and reports the broken ones together with the page that
referenced them.

Pages outside the root prefix are probed but never crawled.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runAudit,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx; cancelling ctx stops the crawl.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./linkaudit.yml)")
	rootCmd.PersistentFlags().StringP("database", "d", "", "Export the report to this SQLite database")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	// Crawl flags
	rootCmd.Flags().IntP("concurrency", "c", 8, "Number of concurrent workers")
	rootCmd.Flags().DurationP("timeout", "t", 15*time.Second, "HTTP request timeout")
	rootCmd.Flags().Duration("crawl-timeout", 0, "Stop the whole crawl after this long (0=no limit)")
	rootCmd.Flags().StringP("user-agent", "u", "LinkAudit/1.0", "HTTP User-Agent header")
	rootCmd.Flags().StringSliceP("header", "H", []string{}, "Custom HTTP headers in 'Name: Value' format (use multiple times for multiple headers)")

	// Link discovery flags
	rootCmd.Flags().StringP("extractor", "e", config.ExtractorScan, "Link extractor: 'scan' (absolute URLs only) or 'dom' (resolves relative links)")
	rootCmd.Flags().Bool("strict-host", false, "Only crawl pages whose host equals the root host")

	// Output flags
	rootCmd.Flags().StringP("format", "f", config.FormatText, "Report format: text, table, json or yaml")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.Flags().String("log-file", "", "Also write logs to this file (rotated by size)")

	bindFlags := []struct {
		viperKey string
		flagName string
	}{
		{"concurrency", "concurrency"},
		{"request_timeout", "timeout"},
		{"crawl_timeout", "crawl-timeout"},
		{"user_agent", "user-agent"},
		{"headers", "header"},
		{"extractor", "extractor"},
		{"strict_host", "strict-host"},
		{"output_format", "format"},
		{"log_level", "log-level"},
		{"log_file", "log-file"},
	}

	for _, bind := range bindFlags {
		if err := viper.BindPFlag(bind.viperKey, rootCmd.Flags().Lookup(bind.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", bind.flagName, err)
		}
	}
	if err := viper.BindPFlag("database_path", rootCmd.PersistentFlags().Lookup("database")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to bind flag database: %v\n", err)
	}

	rootCmd.AddCommand(runsCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("linkaudit")
	}

	// root_url has no flag; registering it lets LA_ROOT_URL reach Unmarshal
	viper.SetDefault("root_url", "")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("LA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func generateUserAgent() string {
	if version != "" && version != "dev" {
		return fmt.Sprintf("LinkAudit/%s", version)
	}
	return "LinkAudit/dev"
}

// loadConfig merges defaults, config file, environment and flags. A positional
// root URL wins over every other source.
func loadConfig(cmd *cobra.Command, args []string) (*config.CrawlConfig, error) {
	cfg := config.DefaultConfig()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(args) > 0 {
		cfg.RootURL = args[0]
	}

	if !cmd.Flags().Changed("user-agent") && cfg.UserAgent == "LinkAudit/1.0" && version != "" {
		cfg.UserAgent = generateUserAgent()
	}

	return cfg, nil
}

func showCurrentConfig(w io.Writer, cfg *config.CrawlConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Fprintf(w, "# Current LinkAudit Configuration\n")
	fmt.Fprintf(w, "# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "# Configuration file search paths: ./linkaudit.yml\n")
	fmt.Fprintf(w, "# Environment variables prefix: LA_\n\n")

	fmt.Fprint(w, string(yamlData))

	fmt.Fprintf(w, "\n# Configuration source priority:\n")
	fmt.Fprintf(w, "# 1. Command-line arguments (highest priority)\n")
	fmt.Fprintf(w, "# 2. Environment variables (LA_ prefix)\n")
	fmt.Fprintf(w, "# 3. Configuration file (linkaudit.yml)\n")
	fmt.Fprintf(w, "# 4. Default values (lowest priority)\n")

	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	showConfig, _ := cmd.Flags().GetBool("show-config")

	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	if showConfig {
		return showCurrentConfig(cmd.OutOrStdout(), cfg)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCloser, err := logging.SetDefault(logging.Config{
		Level:         logging.ParseLevel(cfg.LogLevel),
		FilePath:      cfg.LogFile,
		MaxSize:       50,
		MaxBackups:    3,
		Console:       true,
		ConsoleWriter: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = logCloser.Close() }()

	extractor, err := parser.New(cfg.Extractor)
	if err != nil {
		return err
	}

	c, err := crawler.NewCrawler(cfg, extractor)
	if err != nil {
		return fmt.Errorf("failed to initialize crawler: %w", err)
	}
	defer func() { _ = c.Stop() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	slog.Info("Starting link audit",
		"root_url", cfg.RootURL,
		"concurrency", cfg.Concurrency,
		"extractor", cfg.Extractor,
		"strict_host", cfg.StrictHost)

	// An interrupted crawl still produces a (partial) report.
	crawlErr := c.Start(ctx)

	rep := report.FromLedger(cfg.RootURL, c.Ledger(), c.GetStats())
	if err := report.Render(cmd.OutOrStdout(), rep, cfg.OutputFormat); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if cfg.DatabasePath != "" {
		runID, err := exportReport(cfg.DatabasePath, rep)
		if err != nil {
			return err
		}
		slog.Info("Report exported", "database", cfg.DatabasePath, "run_id", runID)
	}

	return crawlErr
}

// exportReport writes rep into the SQLite database at path as a new run
func exportReport(path string, rep *report.Report) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return "", fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	runID, err := store.SaveReport(rep)
	if err != nil {
		return "", fmt.Errorf("failed to export report: %w", err)
	}
	return runID, nil
}
