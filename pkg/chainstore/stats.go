package chainstore

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/CTAG07/Mockingbird/pkg/markov"
)

// DBStats holds aggregated statistics for the entire database, including a
// list of all models and their individual stats.
type DBStats struct {
	Models     []ModelInfo        // A list of models in the database, sorted by name
	Stats      map[int]ModelStats // A mapping of model ids to their stats
	VocabSize  int                // The number of unique tokens in all models' vocabularies
	PrefixSize int                // The number of unique prefixes in all models' chains
}

// ModelStats holds aggregated statistics for a single stored model.
type ModelStats struct {
	TotalChains    int // The number of unique prefix->next_token links.
	TotalFrequency int // The sum of frequencies of all links; the total number of trained transitions.
	StartingTokens int // The number of unique tokens that can start a chain.
}

// GetStats returns a snapshot of statistics for the entire database,
// including global counts and per-model stats.
func (s *Store) GetStats(ctx context.Context) (*DBStats, error) {
	modelInfos, err := s.GetModelInfos(ctx)
	if err != nil {
		return nil, err
	}

	var vocabLen int
	if err = s.stmtGetVocabLen.QueryRowContext(ctx).Scan(&vocabLen); err != nil {
		return nil, err
	}

	var prefixLen int
	if err = s.stmtGetPrefixLen.QueryRowContext(ctx).Scan(&prefixLen); err != nil {
		return nil, err
	}

	models := make([]ModelInfo, 0, len(modelInfos))
	modelStats := make(map[int]ModelStats, len(modelInfos))
	for _, v := range modelInfos {
		models = append(models, v)
		var stats ModelStats
		if err = s.stmtModelChains.QueryRowContext(ctx, v.Id).Scan(&stats.TotalChains); err != nil {
			return nil, err
		}
		if err = s.stmtModelFreq.QueryRowContext(ctx, v.Id).Scan(&stats.TotalFrequency); err != nil {
			return nil, err
		}

		chain := make([]string, v.Order)
		for i := range chain {
			chain[i] = strconv.Itoa(markov.SOCTokenID)
		}
		var socId int
		err = s.stmtGetPrefixID.QueryRowContext(ctx, strings.Join(chain, " ")).Scan(&socId)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			stats.StartingTokens = 0
		case err != nil:
			return nil, err
		default:
			if err = s.stmtModelStarters.QueryRowContext(ctx, v.Id, socId).Scan(&stats.StartingTokens); err != nil {
				return nil, err
			}
		}
		modelStats[v.Id] = stats
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

	return &DBStats{
		Models:     models,
		Stats:      modelStats,
		VocabSize:  vocabLen,
		PrefixSize: prefixLen,
	}, nil
}
