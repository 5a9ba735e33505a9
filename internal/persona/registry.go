// Package persona holds the static personality profiles a chat can be bound to.
package persona

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknown = errors.New("unknown personality")

// Definition is an immutable personality profile.
type Definition struct {
	Name         string `json:"name"`
	SystemPrompt string `json:"-"`
	Icon         string `json:"icon"`
	Color        string `json:"color"`
}

// Specialty is the lowercased last word of the name ("Travel Guide" -> "guide").
func (d Definition) Specialty() string {
	fields := strings.Fields(d.Name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}

// Registry is an ordered, read-only set of definitions.
type Registry struct {
	order []string
	byKey map[string]Definition
	def   string
}

// NewRegistry builds a registry; the first definition is the default.
func NewRegistry(defs ...Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, errors.New("persona registry requires at least one definition")
	}
	r := &Registry{byKey: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, errors.New("persona name is required")
		}
		if strings.TrimSpace(d.SystemPrompt) == "" {
			return nil, fmt.Errorf("persona %q has empty system prompt", name)
		}
		k := normalize(name)
		if _, dup := r.byKey[k]; dup {
			return nil, fmt.Errorf("duplicate persona %q", name)
		}
		d.Name = name
		r.byKey[k] = d
		r.order = append(r.order, name)
	}
	r.def = r.order[0]
	return r, nil
}

// Default returns the built-in personalities.
func Default() *Registry {
	r, err := NewRegistry(builtin()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get resolves a name case-insensitively.
func (r *Registry) Get(name string) (Definition, error) {
	d, ok := r.byKey[normalize(name)]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return d, nil
}

// Resolve falls back to the default personality for an empty name.
func (r *Registry) Resolve(name string) (Definition, error) {
	if strings.TrimSpace(name) == "" {
		return r.byKey[normalize(r.def)], nil
	}
	return r.Get(name)
}

func (r *Registry) DefaultName() string { return r.def }

func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byKey[normalize(n)])
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
