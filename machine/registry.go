package machine

import (
	"fmt"
	"sort"
	"strings"

	lifecycle "github.com/goliatone/go-lifecycle"
)

func defaultNamespace(namespace, name string) string {
	namespace = strings.TrimSpace(namespace)
	name = strings.TrimSpace(name)
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// CriterionRegistry stores named criteria.
type CriterionRegistry struct {
	criteria   map[string]lifecycle.Criterion
	namespacer func(string, string) string
}

// NewCriterionRegistry creates an empty registry.
func NewCriterionRegistry() *CriterionRegistry {
	return &CriterionRegistry{
		criteria:   make(map[string]lifecycle.Criterion),
		namespacer: defaultNamespace,
	}
}

// SetNamespacer customizes how criterion IDs are namespaced.
func (r *CriterionRegistry) SetNamespacer(fn func(string, string) string) {
	if fn != nil {
		r.namespacer = fn
	}
}

// Register stores a criterion by name.
func (r *CriterionRegistry) Register(name string, c lifecycle.Criterion) error {
	return r.RegisterNamespaced("", name, c)
}

// RegisterNamespaced stores a criterion using namespace+name.
func (r *CriterionRegistry) RegisterNamespaced(namespace, name string, c lifecycle.Criterion) error {
	if name == "" || c == nil {
		return nil
	}
	if r.criteria == nil {
		r.criteria = make(map[string]lifecycle.Criterion)
	}
	key := name
	if r.namespacer != nil {
		key = r.namespacer(namespace, name)
	}
	if _, exists := r.criteria[key]; exists {
		return fmt.Errorf("criterion %s already registered", key)
	}
	r.criteria[key] = c
	return nil
}

// Lookup retrieves a criterion by name.
func (r *CriterionRegistry) Lookup(name string) (lifecycle.Criterion, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.criteria[name]
	return c, ok
}

// IDs returns sorted criterion IDs.
func (r *CriterionRegistry) IDs() []string {
	if r == nil || len(r.criteria) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.criteria))
	for id := range r.criteria {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ProcessorRegistry stores named processors executed during transitions.
type ProcessorRegistry struct {
	processors map[string]lifecycle.Processor
	namespacer func(string, string) string
}

// NewProcessorRegistry creates an empty registry.
func NewProcessorRegistry() *ProcessorRegistry {
	return &ProcessorRegistry{
		processors: make(map[string]lifecycle.Processor),
		namespacer: defaultNamespace,
	}
}

// SetNamespacer customizes how processor IDs are namespaced.
func (r *ProcessorRegistry) SetNamespacer(fn func(string, string) string) {
	if fn != nil {
		r.namespacer = fn
	}
}

// Register stores a processor by name.
func (r *ProcessorRegistry) Register(name string, p lifecycle.Processor) error {
	return r.RegisterNamespaced("", name, p)
}

// RegisterNamespaced stores a processor using namespace+name.
func (r *ProcessorRegistry) RegisterNamespaced(namespace, name string, p lifecycle.Processor) error {
	if name == "" || p == nil {
		return nil
	}
	if r.processors == nil {
		r.processors = make(map[string]lifecycle.Processor)
	}
	key := name
	if r.namespacer != nil {
		key = r.namespacer(namespace, name)
	}
	if _, exists := r.processors[key]; exists {
		return fmt.Errorf("processor %s already registered", key)
	}
	r.processors[key] = p
	return nil
}

// Lookup retrieves a processor by name.
func (r *ProcessorRegistry) Lookup(name string) (lifecycle.Processor, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.processors[name]
	return p, ok
}

// IDs returns sorted processor IDs.
func (r *ProcessorRegistry) IDs() []string {
	if r == nil || len(r.processors) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.processors))
	for id := range r.processors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
