package importer

import (
	"fmt"
	"sync"
	"time"

	"github.com/kislikjeka/chainledger/internal/ledger"
	"github.com/kislikjeka/chainledger/pkg/config"
)

// Registry holds importers in registration order
type Registry struct {
	importers []Importer
	byName    map[string]Importer
	mu        sync.RWMutex
}

// NewRegistry creates an empty importer registry
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Importer),
	}
}

// NewDefaultRegistry registers the transaction and balance importers for cfg
func NewDefaultRegistry(cfg *config.Config, loc *time.Location) (*Registry, error) {
	r := NewRegistry()
	if err := r.Register(NewTransactionImporter(cfg, ledger.WithLocation(loc))); err != nil {
		return nil, err
	}
	if err := r.Register(NewBalanceImporter(cfg, loc)); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds an importer. Names must be unique.
func (r *Registry) Register(imp Importer) error {
	if imp == nil {
		return fmt.Errorf("importer cannot be nil")
	}

	name := imp.Name()
	if name == "" {
		return fmt.Errorf("importer name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("importer '%s' already registered", name)
	}

	r.importers = append(r.importers, imp)
	r.byName[name] = imp
	return nil
}

// Get retrieves an importer by name
func (r *Registry) Get(name string) (Importer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	imp, exists := r.byName[name]
	if !exists {
		return nil, fmt.Errorf("no importer registered with name: %s", name)
	}
	return imp, nil
}

// Identify returns the first importer that claims the file at path
func (r *Registry) Identify(path string) (Importer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, imp := range r.importers {
		if imp.Identify(path) {
			return imp, true
		}
	}
	return nil, false
}

// Names returns the registered importer names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.importers))
	for _, imp := range r.importers {
		names = append(names, imp.Name())
	}
	return names
}
