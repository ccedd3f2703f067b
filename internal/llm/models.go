package llm

import (
	"fmt"
	"sort"
)

// Provider identifies which upstream client serves a model.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ModelInfo maps a public model alias to the exact upstream identifier.
type ModelInfo struct {
	Alias    string
	Upstream string
	Provider Provider
}

// modelRegistry pins aliases to dated upstream snapshots so behavior does
// not shift under us when a provider moves a rolling alias.
var modelRegistry = map[string]ModelInfo{
	"gpt-4-turbo": {Alias: "gpt-4-turbo", Upstream: "gpt-4-turbo-2024-04-09", Provider: ProviderOpenAI},
	"gpt-4o":      {Alias: "gpt-4o", Upstream: "gpt-4o", Provider: ProviderOpenAI},
	"gpt-4o-mini": {Alias: "gpt-4o-mini", Upstream: "gpt-4o-mini", Provider: ProviderOpenAI},
	"gpt-4":       {Alias: "gpt-4", Upstream: "gpt-4", Provider: ProviderOpenAI},

	"claude-sonnet": {Alias: "claude-sonnet", Upstream: "claude-sonnet-4-20250514", Provider: ProviderAnthropic},
	"claude-haiku":  {Alias: "claude-haiku", Upstream: "claude-3-5-haiku-20241022", Provider: ProviderAnthropic},
}

// DefaultModel is used when a request names no model.
const DefaultModel = "gpt-4o"

// ResolveModel validates alias against the registry. The zero alias resolves
// to DefaultModel. Unknown aliases fail with ErrUnknownModel before any
// upstream traffic.
func ResolveModel(alias string) (ModelInfo, error) {
	if alias == "" {
		alias = DefaultModel
	}
	info, ok := modelRegistry[alias]
	if !ok {
		return ModelInfo{}, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownModel, alias, SupportedModels())
	}
	return info, nil
}

// SupportedModels returns the registered aliases, sorted.
func SupportedModels() []string {
	names := make([]string, 0, len(modelRegistry))
	for name := range modelRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
