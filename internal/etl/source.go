package etl

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ── Source ──────────────────────────────────────────────────
// A Fetcher pulls one page of an API resource.
// Implementations live in etl/sources/.

// ErrPageUnavailable is returned by a Fetcher once every attempt at a
// page has failed. A page with zero records is not an error.
var ErrPageUnavailable = errors.New("page unavailable")

// PageRequest selects one page. Since is the optional since-cursor
// ("records created or changed at or after"), empty when unset.
type PageRequest struct {
	Page  int
	Since string
}

// Fetcher is the interface every paginated source must implement.
type Fetcher interface {
	// FetchPage returns the decoded page, or an error wrapping
	// ErrPageUnavailable after retries are exhausted.
	FetchPage(ctx context.Context, req PageRequest) (*Page, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req PageRequest) (*Page, error)

func (f FetcherFunc) FetchPage(ctx context.Context, req PageRequest) (*Page, error) {
	return f(ctx, req)
}

// ── Entity Registry ────────────────────────────────────────
// Compile-time registration via init() in each entity file.

// EntitySpec registers a pipeline by name.
type EntitySpec struct {
	Name  string // command name, e.g. "reservas"
	Label string
	New   func() *Entity
}

var (
	registryMu sync.RWMutex
	registry   = map[string]EntitySpec{}
)

// RegisterEntity registers an entity spec by name.
// Called from init() in each entity definition file.
func RegisterEntity(s EntitySpec) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.Name] = s
}

// GetEntity returns a registered spec, or an error if not found.
func GetEntity(name string) (EntitySpec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[name]
	if !ok {
		return EntitySpec{}, errors.Errorf("unknown pipeline: %q", name)
	}
	return s, nil
}

// NewEntity builds a fresh Entity for a registered name.
func NewEntity(name string) (*Entity, error) {
	s, err := GetEntity(name)
	if err != nil {
		return nil, err
	}
	return s.New(), nil
}

// ListEntities returns all registered specs sorted by name.
func ListEntities() []EntitySpec {
	registryMu.RLock()
	defer registryMu.RUnlock()
	specs := make([]EntitySpec, 0, len(registry))
	for _, s := range registry {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}
