package markov

// ModelStats holds aggregated statistics for a single Markov model.
type ModelStats struct {
	Order          int   // The number of preceding tokens used as context
	VocabSize      int   // The number of unique tokens, excluding <SOC> and <EOC>
	PrefixSize     int   // The number of unique contexts
	TotalChains    int   // The number of unique prefix->next_token links.
	TotalFrequency int   // The sum of frequencies of all links; the total number of trained transitions.
	StartingTokens int   // The number of unique tokens that can start a chain, <EOC> included.
	Sequences      int64 // The number of sequences fed, empty ones included.
}

// Stats returns a snapshot of statistics for the model.
func (m *Model) Stats() ModelStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := ModelStats{
		Order:      m.order,
		VocabSize:  len(m.vocab) - 2,
		PrefixSize: len(m.links),
	}
	for _, s := range m.links {
		stats.TotalChains += len(s.tokens)
		stats.TotalFrequency += s.total()
	}
	// Every fed sequence passes through the start context exactly once.
	if start, ok := m.links[string(appendPrefixKey(nil, make([]int, m.order)))]; ok {
		stats.StartingTokens = len(start.tokens)
		stats.Sequences = int64(start.total())
	}
	return stats
}
