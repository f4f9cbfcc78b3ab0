package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Entry is a registered tool: its descriptor and implementation.
type Entry struct {
	Descriptor     Descriptor
	Implementation Implementation
}

// ToolRegistry maps tool names to their descriptors and implementations.
// It is populated at startup and sealed; after Seal it is read-only and safe
// for concurrent lookups.
type ToolRegistry struct {
	mu      sync.RWMutex
	sealed  bool
	entries map[string]Entry
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{entries: make(map[string]Entry)}
}

// Register adds a tool. A name that is already present fails with
// ErrDuplicateTool and leaves the earlier registration untouched.
func (r *ToolRegistry) Register(desc Descriptor, impl Implementation) error {
	if err := validateDescriptor(desc); err != nil {
		return err
	}
	if impl == nil {
		return fmt.Errorf("%w: %s: implementation is nil", ErrInvalidDescriptor, desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: cannot register %q", ErrRegistrySealed, desc.Name)
	}
	if _, exists := r.entries[desc.Name]; exists {
		return duplicateToolError(desc.Name)
	}
	r.entries[desc.Name] = Entry{Descriptor: desc.clone(), Implementation: impl}
	return nil
}

// Lookup returns the tool registered under name or an ErrUnknownTool error.
func (r *ToolRegistry) Lookup(name string) (Entry, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return Entry{}, unknownToolError(name)
	}
	entry.Descriptor = entry.Descriptor.clone()
	return entry, nil
}

// Descriptors returns every registered descriptor sorted by name.
func (r *ToolRegistry) Descriptors() []Descriptor {
	r.mu.RLock()
	out := make([]Descriptor, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Descriptor.clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Len reports how many tools are registered.
func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Seal ends the registration phase.
func (r *ToolRegistry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

func (r *ToolRegistry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

func validateDescriptor(desc Descriptor) error {
	if strings.TrimSpace(desc.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}
	if strings.TrimSpace(desc.Name) != desc.Name {
		return fmt.Errorf("%w: name %q has surrounding whitespace", ErrInvalidDescriptor, desc.Name)
	}

	seen := make(map[string]struct{}, len(desc.Params))
	for _, p := range desc.Params {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: %s: parameter name is required", ErrInvalidDescriptor, desc.Name)
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate parameter %q", ErrInvalidDescriptor, desc.Name, p.Name)
		}
		seen[p.Name] = struct{}{}
		if !p.Type.valid() {
			return fmt.Errorf("%w: %s: parameter %q has unknown type %q", ErrInvalidDescriptor, desc.Name, p.Name, p.Type)
		}
	}

	seen = make(map[string]struct{}, len(desc.Returns))
	for _, f := range desc.Returns {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%w: %s: return field name is required", ErrInvalidDescriptor, desc.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: %s: duplicate return field %q", ErrInvalidDescriptor, desc.Name, f.Name)
		}
		seen[f.Name] = struct{}{}
		if !f.Type.valid() {
			return fmt.Errorf("%w: %s: return field %q has unknown type %q", ErrInvalidDescriptor, desc.Name, f.Name, f.Type)
		}
	}
	return nil
}
