// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// Info describes one selectable model. Loaded once at startup, never mutated.
type Info struct {
	// ID is the model identifier sent in API calls
	ID string `json:"id" toml:"id"`

	// Name is the human-readable display name
	Name string `json:"name" toml:"name"`

	// Color is the UI accent color for this model (hex, e.g. "#2563eb")
	Color string `json:"color" toml:"color"`
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Registry is an ordered, immutable set of selectable models.
// The first entry is the default selection.
type Registry struct {
	models []Info
}

// NewRegistry creates a registry from the given models. When models is
// empty the built-in defaults are used, so a registry always has at least
// one entry and Default never fails.
func NewRegistry(models []Info) *Registry {
	if len(models) == 0 {
		models = builtinModels
	}
	out := make([]Info, len(models))
	copy(out, models)
	return &Registry{models: out}
}

// DefaultRegistry returns a registry with the built-in model set.
func DefaultRegistry() *Registry {
	return NewRegistry(nil)
}

// List returns the registered models in registration order.
func (r *Registry) List() []Info {
	out := make([]Info, len(r.models))
	copy(out, r.models)
	return out
}

// Resolve looks up a model by ID. Callers must treat a miss as "use the
// default model" - persisted conversations may reference a retired model.
func (r *Registry) Resolve(id string) (Info, bool) {
	for _, m := range r.models {
		if m.ID == id {
			return m, true
		}
	}
	return Info{}, false
}

// ResolveOrDefault returns the model for id, or the default entry when the
// id is unknown.
func (r *Registry) ResolveOrDefault(id string) Info {
	if m, ok := r.Resolve(id); ok {
		return m
	}
	return r.Default()
}

// Default returns the first registered model.
func (r *Registry) Default() Info {
	return r.models[0]
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return len(r.models)
}

// =============================================================================
// BUILT-IN MODELS
// =============================================================================

// builtinModels is the default registry when the config declares none.
var builtinModels = []Info{
	{ID: "openai/gpt-4o-mini-search-preview", Name: "OpenAI GPT-4o Mini Search Preview", Color: "#2563eb"},
	{ID: "google/gemini-2.5-flash-lite-preview-06-17", Name: "Google Gemini", Color: "#ed8936"},
	{ID: "google/gemma-3n-e2b-it:free", Name: "Google Gemma (free)", Color: "#059669"},
	{ID: "nvidia/nemotron-nano-9b-v2:free", Name: "NVIDIA Nemotron Nano (free)", Color: "#13b3b6"},
	{ID: "agentica-org/deepcoder-14b-preview:free", Name: "Deepcoder (agentica, free)", Color: "#b91c1c"},
	{ID: "mistralai/mistral-small-3.2-24b-instruct:free", Name: "Mistral Small (free)", Color: "#7c3aed"},
	{ID: "x-ai/grok-4-fast:free", Name: "GROK (free)", Color: "#ea580c"},
}
