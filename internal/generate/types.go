// Package generate renders natural-language responses from retrieval
// results, either from templates or through a language model.
package generate

import (
	"context"

	"github.com/shelfsearch/shelf-search/internal/query"
	"github.com/shelfsearch/shelf-search/internal/retrieval"
)

// Strategy names the mechanism that produced a response.
type Strategy string

const (
	// StrategyTemplate renders deterministic per-intent templates.
	StrategyTemplate Strategy = "template"

	// StrategyGenerative produces free text through a language model.
	StrategyGenerative Strategy = "generative"
)

// Response is a rendered answer to a query.
type Response struct {
	// Text is the natural-language answer.
	Text string `json:"text"`

	// Strategy is the mechanism that actually produced Text. A
	// generative generator that fell back reports the template strategy.
	Strategy Strategy `json:"strategy"`

	// Model is the language model used, empty for template responses.
	Model string `json:"model,omitempty"`
}

// Generator renders a response for a parsed query and its retrieval
// result. Implementations must always return a usable response when the
// error is nil.
type Generator interface {
	Generate(ctx context.Context, spec *query.Spec, result *retrieval.Result) (*Response, error)
}
