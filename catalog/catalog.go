/*
Package catalog is the read-only tool catalog boundary.

PURPOSE:
  The procurement engine only ever reads the shop's tool catalog, and only
  to prefill a requisition line (tool id, description, part number,
  manufacturer). The real catalog is owned by the inventory system; this
  package defines the lookup contract plus an in-memory implementation for
  dev and tests. The engine never writes back.

SEE ALSO:
  - api/handlers.go: /api/catalog/tools prefill endpoint
  - seed.go: Demo catalog generation
*/
package catalog

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrToolNotFound is returned by ToolByID for unknown ids.
var ErrToolNotFound = errors.New("tool not found")

// Tool is the catalog projection the engine consumes.
type Tool struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PartNumber   string `json:"part_number"`
	Manufacturer string `json:"manufacturer"`
}

// Lookup is the read-only catalog capability.
type Lookup interface {
	// ToolByID returns the tool, or ErrToolNotFound.
	ToolByID(ctx context.Context, id string) (*Tool, error)

	// Search returns up to limit tools whose name, part number, or
	// manufacturer contains q (case-insensitive). Empty q lists from the top.
	Search(ctx context.Context, q string, limit int) ([]*Tool, error)
}

// =============================================================================
// MEMORY CATALOG
// =============================================================================

// Memory is an in-memory Lookup for dev and tests.
type Memory struct {
	mu    sync.RWMutex
	byID  map[string]*Tool
	order []*Tool
}

func NewMemory(tools ...*Tool) *Memory {
	m := &Memory{byID: make(map[string]*Tool, len(tools))}
	for _, t := range tools {
		cp := *t
		m.byID[t.ID] = &cp
		m.order = append(m.order, &cp)
	}
	return m
}

func (m *Memory) ToolByID(_ context.Context, id string) (*Tool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.byID[id]
	if !ok {
		return nil, ErrToolNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Memory) Search(_ context.Context, q string, limit int) ([]*Tool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 25
	}
	q = strings.ToLower(strings.TrimSpace(q))

	out := make([]*Tool, 0, limit)
	for _, t := range m.order {
		if q != "" && !matches(t, q) {
			continue
		}
		cp := *t
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func matches(t *Tool, q string) bool {
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.PartNumber), q) ||
		strings.Contains(strings.ToLower(t.Manufacturer), q)
}
