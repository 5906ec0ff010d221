package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
)

const (
	granularityWord = "word"
	granularityLine = "line"
	defaultAmount   = 10
)

// options collects everything the root command's flags and arguments set.
// cfg holds the flag values for settings that may also come from a config file.
type options struct {
	cfg        *Config
	configPath string
	verbose    bool
	noIndex    bool
	dir        string
	amount     int
	start      string
	importPath string
	exportPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{cfg: DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "mockingbird [input] [amount]",
		Short: "Generate Markov chain text from chat exports",
		Long: `mockingbird has two modes.

With an input file it trains a Markov chain on the file, one line per
sequence, and prints [amount] generated lines (default 10). Use "-" to read
the input from stdin.

Without an input file it runs in producing mode: run it from the "messages"
folder of a Discord data package and it prints every message from every
channel, ready to be used as input. With --verbose it prints one summary
line per channel instead, naming the channel from index.json, or by its
directory name when running with --no-index.`,
		Args:         cobra.MaximumNArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.verbose, "verbose", false, "Print non-critical information")
	f.BoolVar(&opts.noIndex, "no-index", false, "Do not look for index.json in producing mode")
	f.StringVar(&opts.dir, "dir", ".", "The messages folder to read in producing mode")
	f.IntVarP(&opts.amount, "amount", "n", defaultAmount, "Number of lines to generate; the [amount] argument takes precedence")
	f.StringVar(&opts.start, "start", "", "Seed text every generated line starts with")
	f.StringVar(&opts.importPath, "import", "", "Merge a JSON model written by --export before generating")
	f.StringVar(&opts.exportPath, "export", "", "Write the trained model as JSON to this file")
	f.StringVar(&opts.configPath, "config", "", "JSON config file; created with defaults if missing")

	f.StringVar(&opts.cfg.LogLevel, "log-level", opts.cfg.LogLevel, "Log level: debug, info, warn or error")
	f.IntVar(&opts.cfg.Order, "order", opts.cfg.Order, "Number of preceding tokens used as context")
	f.StringVar(&opts.cfg.Granularity, "granularity", opts.cfg.Granularity, "Token granularity: word or line")
	f.IntVar(&opts.cfg.Workers, "workers", opts.cfg.Workers, "Number of goroutines used for training")
	f.IntVar(&opts.cfg.MaxLength, "max-length", opts.cfg.MaxLength, "Maximum tokens per generated line, 0 for no limit")
	f.Float64Var(&opts.cfg.Temperature, "temperature", opts.cfg.Temperature, "Sampling temperature, 0 always picks the most frequent token")
	f.IntVar(&opts.cfg.TopK, "top-k", opts.cfg.TopK, "Only sample from the K most frequent successors, 0 for all")
	f.StringVar(&opts.cfg.DatabasePath, "db", opts.cfg.DatabasePath, "SQLite database that accumulates the model across runs")
	f.StringVar(&opts.cfg.ModelName, "model", opts.cfg.ModelName, "Model name inside the database; setting it generates from the stored model")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newStatsCmd())
	return cmd
}

// resolveConfig merges the config file, if any, with explicitly set flags.
func (o *options) resolveConfig(cmd *cobra.Command, logger *slog.Logger) (*Config, error) {
	cfg := o.cfg
	if o.configPath != "" {
		fileCfg, err := LoadConfig(o.configPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		overrides := map[string]func(){
			"log-level":   func() { fileCfg.LogLevel = o.cfg.LogLevel },
			"order":       func() { fileCfg.Order = o.cfg.Order },
			"granularity": func() { fileCfg.Granularity = o.cfg.Granularity },
			"workers":     func() { fileCfg.Workers = o.cfg.Workers },
			"max-length":  func() { fileCfg.MaxLength = o.cfg.MaxLength },
			"temperature": func() { fileCfg.Temperature = o.cfg.Temperature },
			"top-k":       func() { fileCfg.TopK = o.cfg.TopK },
			"db":          func() { fileCfg.DatabasePath = o.cfg.DatabasePath },
			"model":       func() { fileCfg.ModelName = o.cfg.ModelName },
		}
		for name, apply := range overrides {
			if cmd.Flags().Changed(name) {
				apply()
			}
		}
		cfg = fileCfg
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) run(cmd *cobra.Command, args []string) error {
	cfg, err := o.resolveConfig(cmd, newLogger(o.cfg.LogLevel, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel, cmd.ErrOrStderr())

	var input string
	if len(args) > 0 {
		input = args[0]
	}
	amount := o.amount
	if len(args) > 1 {
		if amount, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[1], err)
		}
	}
	if amount < 1 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}

	ctx := cmd.Context()
	if input != "" || o.importPath != "" || cmd.Flags().Changed("model") {
		return o.generate(ctx, cmd, cfg, logger, input, amount)
	}
	return o.produce(ctx, cmd.OutOrStdout(), logger)
}
