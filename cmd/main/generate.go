package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/CTAG07/Mockingbird/pkg/markov"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func newTokenizer(granularity string) markov.Tokenizer {
	if granularity == granularityLine {
		return markov.NewLineTokenizer()
	}
	return markov.NewWhitespaceTokenizer()
}

// generate trains a model from input, merges any imported or stored counts,
// and prints amount generated lines.
func (o *options) generate(ctx context.Context, cmd *cobra.Command, cfg *Config, logger *slog.Logger, input string, amount int) error {
	out := cmd.OutOrStdout()
	tokenizer := newTokenizer(cfg.Granularity)
	model, err := markov.NewModel(cfg.Order, tokenizer)
	if err != nil {
		return err
	}
	model.SetLogger(logger.With("component", "markov"))

	lines := 0
	if input != "" {
		if lines, err = trainFrom(ctx, model, cmd.InOrStdin(), input, cfg.Workers); err != nil {
			return err
		}
	}

	if o.importPath != "" {
		if err = importModel(model, o.importPath); err != nil {
			return err
		}
	}

	if cfg.DatabasePath != "" {
		store, closeStore, err := openStore(cfg.DatabasePath, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		info, err := store.OpenModel(ctx, cfg.ModelName, cfg.Order)
		if err != nil {
			return err
		}
		if model.Stats().TotalChains > 0 {
			if err = store.Save(ctx, info, model); err != nil {
				return fmt.Errorf("failed to save model: %w", err)
			}
		}
		if model, err = store.Load(ctx, info, tokenizer); err != nil {
			return fmt.Errorf("failed to load model: %w", err)
		}
		model.SetLogger(logger.With("component", "markov"))
	}

	if o.exportPath != "" {
		if err = exportModel(model, o.exportPath, cfg.ModelName); err != nil {
			return err
		}
	}

	if o.verbose {
		_, _ = fmt.Fprintf(out, "Producing %d markov chains from %d lines of input\n", amount, lines)
	}

	genOpts := []markov.GenerateOption{
		markov.WithMaxLength(cfg.MaxLength),
		markov.WithTemperature(cfg.Temperature),
		markov.WithTopK(cfg.TopK),
	}
	for i := 0; i < amount; i++ {
		var text string
		if o.start != "" {
			text, err = model.GenerateFromString(ctx, o.start, genOpts...)
		} else {
			text, err = model.GenerateString(ctx, genOpts...)
		}
		if errors.Is(err, markov.ErrEmptyModel) {
			return fmt.Errorf("nothing to generate from: %w", err)
		}
		if err != nil {
			return err
		}
		if _, err = fmt.Fprintln(out, text); err != nil {
			return err
		}
	}
	return nil
}

// trainFrom feeds every line of the named file, or of stdin for "-".
func trainFrom(ctx context.Context, model *markov.Model, stdin io.Reader, input string, workers int) (int, error) {
	r := stdin
	if input != "-" {
		file, err := os.Open(input)
		if err != nil {
			return 0, fmt.Errorf("couldn't open input file: %w", err)
		}
		defer file.Close()
		r = file
	}

	lines, err := model.TrainParallel(ctx, r, workers)
	if err != nil {
		return lines, fmt.Errorf("couldn't read line: %w", err)
	}
	return lines, nil
}

func importModel(model *markov.Model, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("couldn't open model file: %w", err)
	}
	defer file.Close()

	if _, err = model.Import(file); err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}
	return nil
}

func exportModel(model *markov.Model, path, name string) error {
	var buf bytes.Buffer
	if err := model.Export(&buf, name); err != nil {
		return fmt.Errorf("failed to export model: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write model file: %w", err)
	}
	return nil
}
