package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shelfsearch/shelf-search/internal/catalog"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
)

// EntityExtractor parses free text for structured parameters. Extraction is
// a pure function over the text; the rule tables below are the only state.
type EntityExtractor struct {
	log *logger.Logger
}

// NewEntityExtractor creates a new entity extractor.
func NewEntityExtractor(log *logger.Logger) *EntityExtractor {
	return &EntityExtractor{log: log}
}

const amount = `(\d+(?:\.\d{1,2})?)`

// Rating phrases are matched before price phrases and blanked out of the
// text, so "over 4 stars" never feeds the price rules.
var ratingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`rated?\s+(?:above|over|at least)\s+` + amount + `(?:\s+stars?)?`),
	regexp.MustCompile(`(?:above|over|at least)\s+` + amount + `\s+stars?`),
	regexp.MustCompile(amount + `\s+stars?\s+(?:or|and)\s+(?:up|above|higher)`),
}

var highlyRatedPhrases = []string{"highly rated", "high rating", "well rated", "top rated"}

const highlyRatedFloor = 4.0

var (
	priceUnderPattern   = regexp.MustCompile(`(?:under|below|less than|cheaper than)\s+\$?` + amount)
	priceOverPattern    = regexp.MustCompile(`(?:over|above|more than)\s+\$?` + amount)
	priceBetweenPattern = regexp.MustCompile(`between\s+\$?` + amount + `\s+and\s+\$?` + amount)
	priceRangePattern   = regexp.MustCompile(`\$` + amount + `\s*-\s*\$?` + amount)
)

var limitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\btop\s+(\d+)\b`),
	regexp.MustCompile(`\bfirst\s+(\d+)\b`),
	regexp.MustCompile(`\bshow\s+(?:me\s+)?(\d+)\b`),
	regexp.MustCompile(`\b(\d+)\s+books?\b`),
}

// sortPhrases maps user phrasing to sort keys; longer phrases are listed
// first so they win over their substrings.
var sortPhrases = []struct {
	phrase string
	key    catalog.SortKey
}{
	{"lowest price", catalog.SortPriceAsc},
	{"cheapest", catalog.SortPriceAsc},
	{"least expensive", catalog.SortPriceAsc},
	{"highest price", catalog.SortPriceDesc},
	{"most expensive", catalog.SortPriceDesc},
	{"highest rated", catalog.SortRatingDesc},
	{"best rated", catalog.SortRatingDesc},
	{"most relevant", catalog.SortRelevance},
}

// genreRules and storeRules are compiled once from the catalog vocabularies.
var (
	genreRules = compileAliasRules(catalog.GenreAliases)
	storeRules = compileAliasRules(catalog.StoreAliases)
)

type aliasRule struct {
	canonical string
	pattern   *regexp.Regexp
}

func compileAliasRules(aliases map[string][]string) []aliasRule {
	rules := make([]aliasRule, 0, len(aliases))
	for _, canonical := range sortedKeys(aliases) {
		parts := make([]string, 0, len(aliases[canonical]))
		for _, alias := range aliases[canonical] {
			parts = append(parts, regexp.QuoteMeta(alias))
		}
		rules = append(rules, aliasRule{
			canonical: canonical,
			pattern:   regexp.MustCompile(`\b(?:` + strings.Join(parts, "|") + `)\b`),
		})
	}
	return rules
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Extract parses text and returns the recognized entities. Categories with
// no match are absent from the result.
func (e *EntityExtractor) Extract(text string) Entities {
	normalized := normalize(text)

	var entities Entities

	// Ratings first; blank the matched spans so price rules cannot
	// re-read a star count as a price.
	remaining := e.extractRating(normalized, &entities)
	remaining = e.extractPrice(remaining, &entities)
	e.extractLimit(remaining, &entities)
	e.extractSort(normalized, &entities)
	e.extractGenres(normalized, &entities)
	e.extractStores(normalized, &entities)

	e.log.Debug("extracted entities",
		"query", text,
		"empty", entities.IsEmpty(),
	)

	return entities
}

func normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

func (e *EntityExtractor) extractRating(text string, entities *Entities) string {
	for _, p := range ratingPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				entities.RatingMin = ptr(clampRating(v))
			}
			text = p.ReplaceAllString(text, " ")
		}
	}

	if entities.RatingMin == nil {
		for _, phrase := range highlyRatedPhrases {
			if strings.Contains(text, phrase) {
				entities.RatingMin = ptr(highlyRatedFloor)
				break
			}
		}
	}

	return text
}

func clampRating(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 5 {
		return 5
	}
	return v
}

func (e *EntityExtractor) extractPrice(text string, entities *Entities) string {
	if m := priceBetweenPattern.FindStringSubmatch(text); m != nil {
		entities.PriceMin = parseAmount(m[1])
		entities.PriceMax = parseAmount(m[2])
		return priceBetweenPattern.ReplaceAllString(text, " ")
	}

	if m := priceRangePattern.FindStringSubmatch(text); m != nil {
		entities.PriceMin = parseAmount(m[1])
		entities.PriceMax = parseAmount(m[2])
		return priceRangePattern.ReplaceAllString(text, " ")
	}

	if m := priceUnderPattern.FindStringSubmatch(text); m != nil {
		entities.PriceMax = parseAmount(m[1])
		text = priceUnderPattern.ReplaceAllString(text, " ")
	}

	if m := priceOverPattern.FindStringSubmatch(text); m != nil {
		entities.PriceMin = parseAmount(m[1])
		text = priceOverPattern.ReplaceAllString(text, " ")
	}

	return text
}

func parseAmount(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (e *EntityExtractor) extractLimit(text string, entities *Entities) {
	for _, p := range limitPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
				entities.Limit = &n
				return
			}
		}
	}
}

func (e *EntityExtractor) extractSort(text string, entities *Entities) {
	for _, s := range sortPhrases {
		if strings.Contains(text, s.phrase) {
			key := s.key
			entities.Sort = &key
			return
		}
	}
}

func (e *EntityExtractor) extractGenres(text string, entities *Entities) {
	seen := make(map[string]bool)
	for _, rule := range genreRules {
		if rule.pattern.MatchString(text) && !seen[rule.canonical] {
			entities.Genres = append(entities.Genres, rule.canonical)
			seen[rule.canonical] = true
		}
	}
}

func (e *EntityExtractor) extractStores(text string, entities *Entities) {
	for _, phrase := range catalog.AllStorePhrases {
		if strings.Contains(text, phrase) {
			entities.Stores = append([]string(nil), catalog.KnownStores()...)
			return
		}
	}

	seen := make(map[string]bool)
	for _, rule := range storeRules {
		if rule.pattern.MatchString(text) && !seen[rule.canonical] {
			entities.Stores = append(entities.Stores, rule.canonical)
			seen[rule.canonical] = true
		}
	}
}

func ptr(v float64) *float64 {
	return &v
}
