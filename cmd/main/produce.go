package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/Mockingbird/pkg/discord"
)

// produce prints every message found under o.dir, or a per-channel summary
// when verbose.
func (o *options) produce(ctx context.Context, out io.Writer, logger *slog.Logger) error {
	var index map[string]string
	if !o.noIndex {
		loaded, err := discord.LoadIndex(o.dir)
		if errors.Is(err, discord.ErrNoIndex) {
			_, _ = fmt.Fprintln(out, "Looks like there's no index.json in the current working directory.")
			_, _ = fmt.Fprintln(out, "Please run this program from the `messages` folder in the discord data folder, or pass --no-index if you're sure you want to proceed.")
			return nil
		}
		if err != nil {
			return err
		}
		index = loaded
	} else if o.verbose {
		_, _ = fmt.Fprintln(out, "Proceeding without index.")
	}

	channels, err := discord.Channels(o.dir)
	if err != nil {
		return err
	}

	reader, err := discord.GetReader()
	if err != nil {
		return err
	}
	reader.SetLogger(logger.With("component", "discord"))

	for _, channel := range channels {
		if !channel.HasMessages {
			if o.verbose {
				_, _ = fmt.Fprintf(out, "Directory %s didn't contain a messages.csv\n", channel.Path)
			}
			continue
		}

		messages, err := reader.ReadMessages(ctx, channel.MessagesPath())
		if err != nil {
			return fmt.Errorf("couldn't extract messages: %w", err)
		}

		if o.verbose {
			_, _ = fmt.Fprintf(out, "Read %d messages in `%s`\n", len(messages), channel.DisplayName(index))
			continue
		}
		for _, m := range messages {
			if _, err := fmt.Fprintln(out, m.Contents); err != nil {
				return err
			}
		}
	}
	logger.Debug("Producing finished", slog.Int("channels", len(channels)))
	return nil
}
