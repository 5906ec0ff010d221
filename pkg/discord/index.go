package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// IndexFileName is the channel lookup table at the root of the folder.
	IndexFileName = "index.json"
	// MessagesFileName is the per-channel message export.
	MessagesFileName = "messages.csv"
	// NullIndexEntry replaces channels whose index value is null.
	NullIndexEntry = "null in index"
)

var (
	// ErrNoIndex is returned by LoadIndex when the folder has no index.json.
	ErrNoIndex = errors.New("discord: no index.json found")
	// ErrBadIndexValue is returned for index values that are neither strings nor null.
	ErrBadIndexValue = errors.New("discord: non-null and non-string value in index")
)

// LoadIndex reads dir/index.json into a channel ID -> name map.
func LoadIndex(dir string) (map[string]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoIndex
		}
		return nil, fmt.Errorf("failed to read %s: %w", IndexFileName, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("couldn't read `%s`: %w", IndexFileName, err)
	}

	index := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			index[key] = v
		case nil:
			index[key] = NullIndexEntry
		default:
			return nil, fmt.Errorf("%w: %q has a %T", ErrBadIndexValue, key, value)
		}
	}
	return index, nil
}
