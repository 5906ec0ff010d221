package chainstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/CTAG07/Mockingbird/pkg/markov"
)

// ErrModelNotFound is returned when no stored model has the requested name.
var ErrModelNotFound = errors.New("chainstore: model not found")

// ModelInfo holds the essential metadata for a stored model: its unique ID,
// name, and the order of the chain.
type ModelInfo struct {
	Id    int
	Name  string
	Order int
}

// GetModelInfos retrieves metadata for all models currently in the database,
// returning them in a map keyed by model name.
func (s *Store) GetModelInfos(ctx context.Context) (map[string]ModelInfo, error) {
	rows, err := s.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	models := make(map[string]ModelInfo)
	for rows.Next() {
		var model ModelInfo
		if err = rows.Scan(&model.Id, &model.Name, &model.Order); err != nil {
			return nil, err
		}
		models[model.Name] = model
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// GetModelInfo retrieves the metadata for a single model specified by name.
func (s *Store) GetModelInfo(ctx context.Context, modelName string) (ModelInfo, error) {
	var modelId, modelOrder int
	err := s.stmtGetModelInfo.QueryRowContext(ctx, modelName).Scan(&modelId, &modelOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return ModelInfo{}, fmt.Errorf("%w: %q", ErrModelNotFound, modelName)
	}
	if err != nil {
		return ModelInfo{}, err
	}
	return ModelInfo{
		Id:    modelId,
		Name:  modelName,
		Order: modelOrder,
	}, nil
}

// InsertModel creates a new, empty model entry in the database.
func (s *Store) InsertModel(ctx context.Context, model ModelInfo) error {
	if model.Order < 1 {
		return markov.ErrInvalidOrder
	}
	_, err := s.stmtAddModel.ExecContext(ctx, model.Name, model.Order)
	return err
}

// OpenModel returns the stored model called name, creating it first if it
// does not exist yet. An existing model must have the requested order.
func (s *Store) OpenModel(ctx context.Context, name string, order int) (ModelInfo, error) {
	info, err := s.GetModelInfo(ctx, name)
	if errors.Is(err, ErrModelNotFound) {
		if err = s.InsertModel(ctx, ModelInfo{Name: name, Order: order}); err != nil {
			return ModelInfo{}, fmt.Errorf("failed to insert new model '%s': %w", name, err)
		}
		s.logger.InfoContext(ctx, "Model created", slog.String("model_name", name), slog.Int("order", order))
		return s.GetModelInfo(ctx, name)
	}
	if err != nil {
		return ModelInfo{}, err
	}
	if info.Order != order {
		return ModelInfo{}, fmt.Errorf("%w: stored model '%s' has order %d, requested %d", markov.ErrOrderMismatch, name, info.Order, order)
	}
	return info, nil
}

// RemoveModel deletes a model and all of its associated chain data from the
// database. The operation is performed within a transaction. Vocabulary and
// prefixes are shared between models and are left in place.
func (s *Store) RemoveModel(ctx context.Context, model ModelInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_chains WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove chains for model %d: %w", model.Id, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_models WHERE model_id = ?", model.Id); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", model.Id, err)
	}

	s.logger.InfoContext(ctx, "Model removed successfully",
		slog.String("model_name", model.Name),
		slog.Int("model_id", model.Id),
	)

	return tx.Commit()
}

// Save adds every count held by m to the stored model described by info.
// Vocabulary and prefix IDs are re-mapped onto the database's own, and
// frequencies of links that already exist are summed. The whole operation
// runs in one transaction.
func (s *Store) Save(ctx context.Context, info ModelInfo, m *markov.Model) error {
	if m.Order() != info.Order {
		return fmt.Errorf("%w: stored model '%s' has order %d, got %d", markov.ErrOrderMismatch, info.Name, info.Order, m.Order())
	}
	exported := m.Snapshot(info.Name)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmtInsertVocab := tx.StmtContext(ctx, s.stmtInsertVocab)
	stmtGetOrInsertPrefix := tx.StmtContext(ctx, s.stmtGetOrInsertPrefix)
	stmtMergeLink := tx.StmtContext(ctx, s.stmtMergeLink)

	vocabIDMap := make(map[int]int, len(exported.Vocabulary)+2) // old_id -> new_id
	vocabIDMap[markov.SOCTokenID] = markov.SOCTokenID
	vocabIDMap[markov.EOCTokenID] = markov.EOCTokenID

	for text, oldID := range exported.Vocabulary {
		var newID int
		if err := stmtInsertVocab.QueryRowContext(ctx, text).Scan(&newID); err != nil {
			return fmt.Errorf("failed to get/insert vocab '%s': %w", text, err)
		}
		if newID == markov.SOCTokenID || newID == markov.EOCTokenID {
			return fmt.Errorf("token %q collides with a reserved vocabulary entry", text)
		}
		vocabIDMap[oldID] = newID
	}

	// Prefixes need to be re-made with the new vocabulary IDs
	prefixIDMap := make(map[int]int, len(exported.Prefixes)) // old_id -> new_id
	newPrefixParts := make([]string, 0, info.Order)

	for oldPrefixText, oldPrefixID := range exported.Prefixes {
		newPrefixParts = newPrefixParts[:0]
		for _, oldTokenIDStr := range strings.Split(oldPrefixText, " ") {
			oldTokenID, err := strconv.Atoi(oldTokenIDStr)
			if err != nil {
				return fmt.Errorf("malformed prefix '%s': %w", oldPrefixText, err)
			}
			newTokenID, ok := vocabIDMap[oldTokenID]
			if !ok {
				return fmt.Errorf("consistency error: token id %d in prefix not found in vocab map", oldTokenID)
			}
			newPrefixParts = append(newPrefixParts, strconv.Itoa(newTokenID))
		}

		newPrefixText := strings.Join(newPrefixParts, " ")
		var newPrefixID int
		if err := stmtGetOrInsertPrefix.QueryRowContext(ctx, newPrefixText).Scan(&newPrefixID); err != nil {
			return fmt.Errorf("failed to get/insert rebuilt prefix '%s': %w", newPrefixText, err)
		}
		prefixIDMap[oldPrefixID] = newPrefixID
	}

	for _, chain := range exported.Chains {
		_, err = stmtMergeLink.ExecContext(ctx, info.Id, prefixIDMap[chain.PrefixID], vocabIDMap[chain.NextTokenID], chain.Frequency)
		if err != nil {
			return fmt.Errorf("failed to insert chain link (%d -> %d): %w", chain.PrefixID, chain.NextTokenID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit save: %w", err)
	}

	s.logger.InfoContext(ctx, "Model saved",
		slog.String("model_name", info.Name),
		slog.Int("model_id", info.Id),
		slog.Int("vocab_items_merged", len(exported.Vocabulary)),
		slog.Int("prefixes_merged", len(exported.Prefixes)),
		slog.Int("chains_merged", len(exported.Chains)),
	)
	return nil
}

// Load rebuilds an in-memory model from the chains stored for info. The
// returned model uses tokenizer for any further feeding and for joining
// generated text.
func (s *Store) Load(ctx context.Context, info ModelInfo, tokenizer markov.Tokenizer) (*markov.Model, error) {
	m, err := markov.NewModel(info.Order, tokenizer)
	if err != nil {
		return nil, err
	}

	exported := &markov.ExportedModel{
		Name:       info.Name,
		Order:      info.Order,
		Vocabulary: make(map[string]int),
		Prefixes:   make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, "SELECT prefix_id, next_token_id, frequency FROM markov_chains WHERE model_id = ?", info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query chains for load: %w", err)
	}
	for rows.Next() {
		var chain markov.ExportedChain
		if err := rows.Scan(&chain.PrefixID, &chain.NextTokenID, &chain.Frequency); err != nil {
			_ = rows.Close()
			return nil, err
		}
		exported.Chains = append(exported.Chains, chain)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Grab every prefix the model uses with one query
	pRows, err := s.db.QueryContext(ctx, `SELECT prefix_id, prefix_text FROM markov_prefixes
		WHERE prefix_id IN (SELECT prefix_id FROM markov_chains WHERE model_id = ?)`, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query prefixes for load: %w", err)
	}
	for pRows.Next() {
		var id int
		var text string
		if err := pRows.Scan(&id, &text); err != nil {
			_ = pRows.Close()
			return nil, err
		}
		exported.Prefixes[text] = id
	}
	_ = pRows.Close()
	if err := pRows.Err(); err != nil {
		return nil, err
	}

	// Every token inside a prefix was, at some point, the next token of the
	// previous context, so the successors cover the whole vocabulary.
	vRows, err := s.db.QueryContext(ctx, `SELECT token_id, token_text FROM markov_vocabulary
		WHERE token_id > 1 AND token_id IN (SELECT next_token_id FROM markov_chains WHERE model_id = ?)`, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query vocabulary for load: %w", err)
	}
	for vRows.Next() {
		var id int
		var text string
		if err := vRows.Scan(&id, &text); err != nil {
			_ = vRows.Close()
			return nil, err
		}
		exported.Vocabulary[text] = id
	}
	_ = vRows.Close()
	if err := vRows.Err(); err != nil {
		return nil, err
	}

	if err := m.MergeExported(exported); err != nil {
		return nil, fmt.Errorf("stored model '%s' is inconsistent: %w", info.Name, err)
	}

	s.logger.InfoContext(ctx, "Model loaded",
		slog.String("model_name", info.Name),
		slog.Int("model_id", info.Id),
		slog.Int("chains_loaded", len(exported.Chains)),
	)
	return m, nil
}
