package query

import (
	"regexp"
	"strings"

	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
)

// IntentClassifier assigns one of the fixed intents to a query using a
// deterministic scoring heuristic over trigger phrases and patterns.
type IntentClassifier struct {
	threshold float64
	log       *logger.Logger
}

// NewIntentClassifier creates a classifier with the given confidence
// threshold. Below the threshold classification falls back to search,
// the least presumptive intent.
func NewIntentClassifier(threshold float64, log *logger.Logger) *IntentClassifier {
	if threshold < 0 || threshold > 1 {
		threshold = 0.3
	}
	return &IntentClassifier{threshold: threshold, log: log}
}

// weightedPhrase is a trigger phrase with a specificity weight: "compare"
// says more about intent than a generic "show".
type weightedPhrase struct {
	phrase string
	weight float64
}

// weightedPattern is a compiled trigger pattern with its weight.
type weightedPattern struct {
	pattern *regexp.Regexp
	weight  float64
}

type intentRule struct {
	phrases  []weightedPhrase
	patterns []weightedPattern
}

// intentRules is the data-driven trigger table. Adding a phrase or pattern
// extends the classifier without touching the scoring code.
var intentRules = map[Intent]intentRule{
	IntentSearch: {
		phrases: []weightedPhrase{
			{"find", 0.4}, {"search", 0.4}, {"looking for", 0.4},
			{"show me", 0.3}, {"i want", 0.2}, {"i need", 0.2},
		},
		patterns: []weightedPattern{
			{regexp.MustCompile(`(?:find|search for|show me|get me)\s+(?:\w+\s+){0,3}?books?`), 0.5},
			{regexp.MustCompile(`books?\s+(?:about|on|related to)`), 0.5},
		},
	},
	IntentRecommendation: {
		phrases: []weightedPhrase{
			{"recommend", 0.6}, {"suggest", 0.6}, {"similar to", 0.5},
			{"based on", 0.4}, {"like", 0.15},
		},
		patterns: []weightedPattern{
			{regexp.MustCompile(`what should i read`), 0.6},
			{regexp.MustCompile(`good books?\s+(?:for|about)`), 0.5},
		},
	},
	IntentComparison: {
		phrases: []weightedPhrase{
			{"compare", 0.7}, {"versus", 0.6}, {" vs ", 0.5},
			{"difference between", 0.6}, {"cheaper", 0.4}, {"better", 0.2},
		},
		patterns: []weightedPattern{
			{regexp.MustCompile(`(?:which|what)\s+(?:store|bookstore|shop)\s+(?:is|has)`), 0.7},
			{regexp.MustCompile(`(?:cheaper|better|best)\s+(?:store|price|deal)`), 0.5},
		},
	},
	IntentAnalytics: {
		phrases: []weightedPhrase{
			{"average", 0.6}, {"statistics", 0.6}, {"how many", 0.6},
			{"distribution", 0.5}, {"total", 0.3}, {"count", 0.3},
		},
		patterns: []weightedPattern{
			{regexp.MustCompile(`(?:most|least)\s+(?:popular|common|expensive)`), 0.6},
			{regexp.MustCompile(`(?:average|mean|median)\s+(?:price|rating)`), 0.6},
		},
	},
	IntentFilter: {
		phrases: []weightedPhrase{
			{"only", 0.3}, {"between", 0.3},
		},
		patterns: []weightedPattern{
			{regexp.MustCompile(`(?:under|below|less than)\s+\$\d`), 0.5},
			{regexp.MustCompile(`(?:over|above|more than)\s+\$\d`), 0.5},
			{regexp.MustCompile(`between\s+\$?\d+\s+and\s+\$?\d+`), 0.5},
			{regexp.MustCompile(`rated?\s+(?:above|over|at least)\s+\d`), 0.5},
		},
	},
	IntentInformation: {
		phrases: []weightedPhrase{
			{"tell me about", 0.7}, {"describe", 0.5}, {"details", 0.4},
			{"who wrote", 0.6},
		},
		patterns: []weightedPattern{
			{regexp.MustCompile(`(?:information|details)\s+(?:about|on)`), 0.5},
			{regexp.MustCompile(`what is\s+`), 0.4},
		},
	},
}

// Classify scores text against each intent's trigger table and returns the
// best intent with its confidence. Identical input always yields an
// identical result.
func (c *IntentClassifier) Classify(text string) (Intent, float64) {
	normalized := normalize(text)

	scores := make(map[Intent]float64, len(intentRules))
	for intent, rule := range intentRules {
		scores[intent] = scoreIntent(normalized, rule)
	}

	best, confidence := pickBest(scores)

	if confidence < c.threshold {
		c.log.Debug("intent confidence below threshold, defaulting to search",
			"query", text, "best", best, "confidence", confidence)
		return IntentSearch, confidence
	}

	return best, confidence
}

func scoreIntent(text string, rule intentRule) float64 {
	var score float64

	for _, p := range rule.phrases {
		if strings.Contains(text, p.phrase) {
			score += p.weight
		}
	}

	for _, p := range rule.patterns {
		if p.pattern.MatchString(text) {
			score += p.weight
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

// pickBest selects the highest-scoring intent; ties break by explicit
// priority, most specific intent first. Iteration follows classifierOrder
// so the result never depends on map ordering.
func pickBest(scores map[Intent]float64) (Intent, float64) {
	best := IntentSearch
	bestScore := -1.0

	for _, intent := range classifierOrder {
		score := scores[intent]
		if score > bestScore {
			best = intent
			bestScore = score
			continue
		}
		if score == bestScore && intentPriority[intent] > intentPriority[best] {
			best = intent
		}
	}

	if bestScore < 0 {
		bestScore = 0
	}
	return best, bestScore
}
