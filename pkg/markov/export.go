package markov

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
)

// ExportedModel is the serializable representation of a trained model,
// used for JSON-based import and export and by persistent stores.
// Vocabulary never contains the reserved <SOC> (0) and <EOC> (1) IDs;
// they are implied.
type ExportedModel struct {
	Name       string          `json:"name"`
	Order      int             `json:"order"`
	Vocabulary map[string]int  `json:"vocabulary"` // token_text -> token_id
	Prefixes   map[string]int  `json:"prefixes"`   // prefix_text -> prefix_id
	Chains     []ExportedChain `json:"chains"`
}

// ExportedChain is the serializable representation of a single link
// in a Markov chain, used within an ExportedModel.
type ExportedChain struct {
	PrefixID    int `json:"prefix_id"`
	NextTokenID int `json:"next_token_id"`
	Frequency   int `json:"frequency"`
}

// Snapshot copies the model's table into its exported form. Prefix IDs are
// assigned in sorted key order so the same table always exports the same way.
func (m *Model) Snapshot(name string) *ExportedModel {
	m.mu.RLock()
	defer m.mu.RUnlock()

	exported := &ExportedModel{
		Name:       name,
		Order:      m.order,
		Vocabulary: make(map[string]int, len(m.ids)),
		Prefixes:   make(map[string]int, len(m.links)),
	}
	for text, id := range m.ids {
		exported.Vocabulary[text] = id
	}

	keys := make([]string, 0, len(m.links))
	for key := range m.links {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for prefixID, key := range keys {
		exported.Prefixes[key] = prefixID
		for _, ct := range m.links[key].tokens {
			exported.Chains = append(exported.Chains, ExportedChain{
				PrefixID:    prefixID,
				NextTokenID: ct.Id,
				Frequency:   ct.Freq,
			})
		}
	}
	return exported
}

// MergeExported adds the counts of an exported model to m, re-mapping its
// vocabulary and prefix IDs onto m's own. The exported model is validated
// completely before anything is written, so a rejected import leaves m
// untouched.
func (m *Model) MergeExported(imported *ExportedModel) error {
	if imported.Order != m.order {
		return fmt.Errorf("%w: have %d, got %d", ErrOrderMismatch, m.order, imported.Order)
	}

	idToText := make(map[int]string, len(imported.Vocabulary))
	for text, id := range imported.Vocabulary {
		if id == SOCTokenID || id == EOCTokenID {
			return fmt.Errorf("import consistency error: token %q uses reserved id %d", text, id)
		}
		if prev, dup := idToText[id]; dup {
			return fmt.Errorf("import consistency error: tokens %q and %q share id %d", prev, text, id)
		}
		idToText[id] = text
	}

	prefixTokens := make(map[int][]int, len(imported.Prefixes))
	for text, prefixID := range imported.Prefixes {
		ids, err := parsePrefixKey(text)
		if err != nil {
			return fmt.Errorf("import consistency error: malformed prefix %q: %w", text, err)
		}
		if len(ids) != imported.Order {
			return fmt.Errorf("import consistency error: prefix %q does not have %d tokens", text, imported.Order)
		}
		for _, id := range ids {
			if _, ok := idToText[id]; !ok && id != SOCTokenID {
				return fmt.Errorf("import consistency error: token id %d in prefix not found in vocab map", id)
			}
		}
		if _, dup := prefixTokens[prefixID]; dup {
			return fmt.Errorf("import consistency error: prefix id %d is used by more than one prefix", prefixID)
		}
		prefixTokens[prefixID] = ids
	}

	for _, chain := range imported.Chains {
		if _, ok := prefixTokens[chain.PrefixID]; !ok {
			return fmt.Errorf("import consistency error: prefix id %d not found in prefix map", chain.PrefixID)
		}
		if _, ok := idToText[chain.NextTokenID]; !ok && chain.NextTokenID != EOCTokenID {
			return fmt.Errorf("import consistency error: token id %d not found in vocab map", chain.NextTokenID)
		}
		if chain.Frequency <= 0 {
			return fmt.Errorf("import consistency error: non-positive frequency %d", chain.Frequency)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	vocabIDMap := map[int]int{SOCTokenID: SOCTokenID, EOCTokenID: EOCTokenID} // old_id -> new_id
	for id, text := range idToText {
		vocabIDMap[id] = m.internLocked(text)
	}

	// Prefixes need to be re-made with the new vocabulary IDs
	prefixKeyMap := make(map[int]string, len(prefixTokens)) // old_id -> new key
	var keyBuf []byte
	for prefixID, ids := range prefixTokens {
		keyBuf = keyBuf[:0]
		for j, id := range ids {
			if j > 0 {
				keyBuf = append(keyBuf, ' ')
			}
			keyBuf = strconv.AppendInt(keyBuf, int64(vocabIDMap[id]), 10)
		}
		prefixKeyMap[prefixID] = string(keyBuf)
	}

	for _, chain := range imported.Chains {
		m.addLinkLocked(prefixKeyMap[chain.PrefixID], vocabIDMap[chain.NextTokenID], chain.Frequency)
	}

	m.logger.Debug("Model merged",
		slog.String("model_name", imported.Name),
		slog.Int("vocab_items_merged", len(imported.Vocabulary)),
		slog.Int("prefixes_merged", len(imported.Prefixes)),
		slog.Int("chains_merged", len(imported.Chains)),
	)
	return nil
}

// Export serializes the model into JSON and writes it to w. This is useful
// for backups or for transferring models between runs.
func (m *Model) Export(w io.Writer, name string) error {
	exported := m.Snapshot(name)

	m.logger.Info("Model exported",
		slog.String("model_name", name),
		slog.Int("vocab_items_exported", len(exported.Vocabulary)),
		slog.Int("prefixes_exported", len(exported.Prefixes)),
		slog.Int("chains_exported", len(exported.Chains)),
	)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

// Import reads a JSON model written by Export and merges its counts into m.
// It returns the name stored in the file.
func (m *Model) Import(r io.Reader) (string, error) {
	var imported ExportedModel
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return "", fmt.Errorf("failed to decode json model: %w", err)
	}
	if err := m.MergeExported(&imported); err != nil {
		return "", err
	}
	m.logger.Info("Model imported successfully",
		slog.String("model_name", imported.Name),
		slog.Int("chains_merged", len(imported.Chains)),
	)
	return imported.Name, nil
}
