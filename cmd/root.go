package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zkoranges/flat/internal/config"
	"github.com/zkoranges/flat/internal/flatten"
	"github.com/zkoranges/flat/internal/units"
)

var (
	cfgFile       string
	includeFlag   []string
	excludeFlag   []string
	matchFlag     []string
	fullMatchFlag []string
	outputFlag    string
	dryRunFlag    bool
	statsFlag     bool
	gitignoreFlag string
	maxSizeFlag   string
	compressFlag  bool
	tokensFlag    string
	cacheFlag     bool

	// Package-level version info, set by Execute().
	appVersion string
	appCommit  string
	appDate    string
)

// errNoFiles is the distinguished zero-included terminal condition. It
// maps to exit code 3 so scripts can tell "nothing matched" apart from
// real failures.
var errNoFiles = errors.New("no files matched the criteria")

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date

	rootCmd := &cobra.Command{
		Use:   "flat [path]",
		Short: "Flatten a codebase into one AI-consumable file",
		Long: "flat walks a directory, filters out binaries, secrets and ignored files,\n" +
			"and writes every remaining file into a single tagged artifact with a\n" +
			"trailing summary. Optional tree-sitter compression reduces source files\n" +
			"to declarations and signatures; an optional token budget keeps the\n" +
			"artifact within a model's context window.",
		Version:       displayVersion(),
		Args:          cobra.MaximumNArgs(1),
		RunE:          runRoot,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.Flags()
	flags.StringSliceVar(&includeFlag, "include", nil, "only include these file extensions (comma separated)")
	flags.StringSliceVar(&excludeFlag, "exclude", nil, "exclude these file extensions (comma separated)")
	flags.StringSliceVar(&matchFlag, "match", nil, "only include file names matching these globs")
	flags.StringSliceVar(&fullMatchFlag, "full-match", nil, "always include matching files in full (requires --compress)")
	flags.StringVarP(&outputFlag, "output", "o", "", "write the artifact to a file (gzip when it ends in .gz)")
	flags.BoolVar(&dryRunFlag, "dry-run", false, "list files without writing contents")
	flags.BoolVar(&statsFlag, "stats", false, "print statistics only")
	flags.StringVar(&gitignoreFlag, "gitignore", "", "extra ignore file applied from the scan root")
	flags.StringVar(&maxSizeFlag, "max-size", "1M", "maximum file size (k/M/G suffixes, binary)")
	flags.BoolVar(&compressFlag, "compress", false, "compress source files to declarations and signatures")
	flags.StringVar(&tokensFlag, "tokens", "", "token budget (k/M suffixes, decimal)")
	flags.BoolVar(&cacheFlag, "cache", false, "reuse compression results across runs")
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default <path>/.flat.yaml, then ~/.config/flat/config.yaml)")

	rootCmd.AddCommand(newVersionCmd(version, commit, date))
	rootCmd.AddCommand(newLanguagesCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newInitCmd())

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errNoFiles) {
			fmt.Fprintln(os.Stderr, "Error: No files matched the criteria")
			os.Exit(3)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// displayVersion returns a short version string for cobra's --version
// flag, e.g. "v0.2.0 (abc1234)".
func displayVersion() string {
	v := "v" + appVersion
	if appCommit != "" && appCommit != "none" {
		v += " (" + appCommit + ")"
	}
	return v
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	stats, err := flatten.Run(cmd.Context(), cfg, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	if stats.IncludedFiles == 0 {
		return errNoFiles
	}
	return nil
}

// resolveConfig layers defaults, the config file, and changed flags
// into the final run configuration.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.Default()
	if len(args) == 1 {
		cfg.Path = args[0]
	}

	path := cfgFile
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	} else {
		path = config.Locate(cfg.Path)
	}
	if path != "" {
		fc, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.Apply(fc); err != nil {
			return nil, err
		}
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(cfg.FullMatch) > 0 && !cfg.Compress {
		fmt.Fprintln(os.Stderr, "Warning: --full-match has no effect without --compress")
		cfg.FullMatch = nil
	}
	return cfg, nil
}

// applyFlags overrides config-file values with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("include") {
		cfg.Include = includeFlag
	}
	if flags.Changed("exclude") {
		cfg.Exclude = excludeFlag
	}
	if flags.Changed("match") {
		cfg.Match = matchFlag
	}
	if flags.Changed("full-match") {
		cfg.FullMatch = fullMatchFlag
	}
	if flags.Changed("max-size") {
		n, err := units.ParseBinary(maxSizeFlag)
		if err != nil {
			return fmt.Errorf("invalid --max-size: %w", err)
		}
		cfg.MaxFileSize = n
	}
	if flags.Changed("tokens") {
		n, err := units.ParseDecimal(tokensFlag)
		if err != nil {
			return fmt.Errorf("invalid --tokens: %w", err)
		}
		cfg.TokenBudget = n
		cfg.HasBudget = true
	}
	if flags.Changed("compress") {
		cfg.Compress = compressFlag
	}
	if flags.Changed("cache") {
		cfg.CacheEnabled = cacheFlag
	}

	cfg.Output = outputFlag
	cfg.DryRun = dryRunFlag
	cfg.StatsOnly = statsFlag
	cfg.GitignorePath = gitignoreFlag
	return nil
}
