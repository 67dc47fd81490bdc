package catalog

import (
	"sort"
	"strings"
)

// GenreAliases maps canonical genre names to the phrases users write for them.
// The tables are data, not logic: extending a vocabulary never touches the
// extraction code.
var GenreAliases = map[string][]string{
	"science fiction": {"science fiction", "sci-fi", "scifi", "sf", "space opera", "futuristic"},
	"fantasy":         {"fantasy", "magic", "wizard", "dragon", "medieval", "quest"},
	"mystery":         {"mystery", "detective", "crime", "thriller", "investigation", "murder"},
	"romance":         {"romance", "romantic", "love story"},
	"horror":          {"horror", "scary", "terror", "haunted", "ghost"},
	"biography":       {"biography", "autobiography", "memoir", "life story"},
	"history":         {"history", "historical", "ancient", "war history"},
	"self-help":       {"self-help", "self help", "personal development", "motivation"},
	"children":        {"children", "kids", "young readers", "picture book"},
	"young adult":     {"young adult", "ya", "teen", "teenage"},
}

// StoreAliases maps canonical store identifiers to their spoken names.
var StoreAliases = map[string][]string{
	"store_a": {"store a", "bookstore a", "shop a"},
	"store_b": {"store b", "bookstore b", "shop b"},
}

// AllStorePhrases are phrases meaning "every store".
var AllStorePhrases = []string{"both stores", "all stores", "either store", "every store"}

// NormalizeGenre resolves a phrase to its canonical genre name.
func NormalizeGenre(phrase string) (string, bool) {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	for genre, aliases := range GenreAliases {
		for _, alias := range aliases {
			if phrase == alias {
				return genre, true
			}
		}
	}
	return "", false
}

// KnownGenres returns the canonical genre names in stable order.
func KnownGenres() []string {
	genres := make([]string, 0, len(GenreAliases))
	for g := range GenreAliases {
		genres = append(genres, g)
	}
	sort.Strings(genres)
	return genres
}

// KnownStores returns the canonical store identifiers in stable order.
func KnownStores() []string {
	stores := make([]string, 0, len(StoreAliases))
	for s := range StoreAliases {
		stores = append(stores, s)
	}
	sort.Strings(stores)
	return stores
}

// StoreDisplayName renders a store identifier for user-facing text.
func StoreDisplayName(id string) string {
	name := strings.ReplaceAll(id, "_", " ")
	words := strings.Fields(name)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
