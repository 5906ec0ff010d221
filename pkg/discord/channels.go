package discord

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Channel is one subdirectory of the messages folder.
type Channel struct {
	Name        string // directory name, the key used by index.json
	Path        string // full directory path
	HasMessages bool   // whether the directory holds a messages.csv
}

// MessagesPath is the location of the channel's messages.csv.
func (c Channel) MessagesPath() string {
	return filepath.Join(c.Path, MessagesFileName)
}

// DisplayName resolves the channel through index. A nil index yields the
// directory name; a channel missing from a non-nil index yields "no index entry".
func (c Channel) DisplayName(index map[string]string) string {
	if index == nil {
		return c.Name
	}
	if name, ok := index[c.Name]; ok {
		return name
	}
	return "no index entry"
}

// Channels lists every subdirectory of dir, sorted by name. Plain files,
// index.json included, are skipped.
func Channels(dir string) ([]Channel, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var channels []Channel
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(filepath.Join(path, MessagesFileName))
		switch {
		case err == nil:
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to stat messages in %s: %w", path, err)
		}
		channels = append(channels, Channel{
			Name:        entry.Name(),
			Path:        path,
			HasMessages: err == nil && info.Mode().IsRegular(),
		})
	}
	// os.ReadDir already returns entries sorted by filename.
	return channels, nil
}
