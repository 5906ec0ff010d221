package markov

import (
	"math"
	"math/rand/v2"
	"sort"
)

// ChainToken represents a potential next token in a Markov chain, including its
// unique ID and its frequency of occurrence after a given prefix.
type ChainToken struct {
	Id   int
	Freq int
}

// successors is the multiset of tokens seen after one context. cum holds
// running totals of Freq so a weighted draw is a binary search.
type successors struct {
	tokens []ChainToken
	cum    []int
	index  map[int]int // token id -> position in tokens
}

func newSuccessors() *successors {
	return &successors{index: make(map[int]int)}
}

func (s *successors) add(id, freq int) {
	pos, ok := s.index[id]
	if !ok {
		pos = len(s.tokens)
		s.index[id] = pos
		s.tokens = append(s.tokens, ChainToken{Id: id})
		s.cum = append(s.cum, s.total())
	}
	s.tokens[pos].Freq += freq
	for i := pos; i < len(s.cum); i++ {
		s.cum[i] += freq
	}
}

func (s *successors) total() int {
	if len(s.cum) == 0 {
		return 0
	}
	return s.cum[len(s.cum)-1]
}

// draw picks a token with probability proportional to its frequency.
func (s *successors) draw(rng randSource) int {
	r := rng.IntN(s.total())
	i := sort.SearchInts(s.cum, r+1) // first bucket whose running total exceeds r
	return s.tokens[i].Id
}

// randSource is the subset of *rand.Rand used for sampling.
type randSource interface {
	IntN(n int) int
	Float64() float64
}

// globalRand draws from the math/rand/v2 top-level source, which is safe
// for concurrent use.
type globalRand struct{}

func (globalRand) IntN(n int) int   { return rand.IntN(n) }
func (globalRand) Float64() float64 { return rand.Float64() }

// chooseNextToken applies the generation options to one multiset and picks
// the next token ID. The shared multiset is never reordered.
func chooseNextToken(s *successors, options *generateOptions) int {
	if len(s.tokens) == 1 {
		return s.tokens[0].Id
	}
	if options.topK <= 0 && options.temperature == 1.0 {
		return s.draw(options.rng)
	}

	choices := s.tokens
	totalFreq := s.total()

	// topK filtering
	if options.topK > 0 && options.topK < len(choices) {
		choices = append([]ChainToken(nil), choices...)
		sort.SliceStable(choices, func(i, j int) bool {
			return choices[i].Freq > choices[j].Freq
		})
		choices = choices[:options.topK]
		totalFreq = 0
		for _, choice := range choices {
			totalFreq += choice.Freq
		}
	}

	var nextToken int
	if options.temperature <= 0 { // Deterministic
		maxFreq := -1
		for _, choice := range choices {
			if choice.Freq > maxFreq {
				maxFreq = choice.Freq
				nextToken = choice.Id
			}
		}
	} else if options.temperature == 1.0 { // Standard weighted random
		randChoice := options.rng.IntN(totalFreq)
		for _, choice := range choices {
			randChoice -= choice.Freq
			if randChoice < 0 {
				nextToken = choice.Id
				break
			}
		}
	} else { // Temperature-based sampling
		logProbabilities := make([]float64, len(choices))
		epsilon := -1e9
		for i, choice := range choices {
			lp := math.Log(float64(choice.Freq)) / options.temperature
			logProbabilities[i] = lp
			if lp > epsilon {
				epsilon = lp
			}
		}
		var totalWeight float64
		weights := make([]float64, len(choices))
		for i, lp := range logProbabilities {
			w := math.Exp(lp - epsilon)
			weights[i] = w
			totalWeight += w
		}
		nextToken = choices[len(choices)-1].Id
		randChoice := options.rng.Float64() * totalWeight
		for i, choice := range choices {
			randChoice -= weights[i]
			if randChoice < 0 {
				nextToken = choice.Id
				break
			}
		}
	}
	return nextToken
}
