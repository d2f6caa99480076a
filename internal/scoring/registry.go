package scoring

// Registry holds the ordered criteria of one rubric. It is read-only once
// built, so a single Registry can be shared across goroutines.
type Registry struct {
	criteria []Criterion
	byID     map[string]int
}

// NewRegistry resolves and validates every spec, rejecting duplicate ids.
func NewRegistry(specs []CriterionSpec) (*Registry, error) {
	r := &Registry{
		criteria: make([]Criterion, 0, len(specs)),
		byID:     make(map[string]int, len(specs)),
	}
	for _, spec := range specs {
		c, err := NewCriterion(spec)
		if err != nil {
			return nil, err
		}
		if _, dup := r.byID[c.ID]; dup {
			return nil, invalid("id", "duplicate criterion id %q", c.ID)
		}
		r.byID[c.ID] = len(r.criteria)
		r.criteria = append(r.criteria, c)
	}
	return r, nil
}

// RegistryOf builds a registry from already resolved criteria, as loaded
// from storage. The same duplicate check applies.
func RegistryOf(criteria []Criterion) (*Registry, error) {
	r := &Registry{
		criteria: make([]Criterion, 0, len(criteria)),
		byID:     make(map[string]int, len(criteria)),
	}
	for _, c := range criteria {
		if _, dup := r.byID[c.ID]; dup {
			return nil, invalid("id", "duplicate criterion id %q", c.ID)
		}
		r.byID[c.ID] = len(r.criteria)
		r.criteria = append(r.criteria, c)
	}
	return r, nil
}

// Get returns the criterion with the given id.
func (r *Registry) Get(id string) (Criterion, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Criterion{}, false
	}
	return r.criteria[i], true
}

// All returns a copy of the criteria in authoring order.
func (r *Registry) All() []Criterion {
	out := make([]Criterion, len(r.criteria))
	copy(out, r.criteria)
	return out
}

// Section returns the criteria scoped to one rubric section, in order.
func (r *Registry) Section(name string) []Criterion {
	var out []Criterion
	for _, c := range r.criteria {
		if c.Section == name {
			out = append(out, c)
		}
	}
	return out
}

// ByID returns a fresh id-keyed map for use with Score.
func (r *Registry) ByID() map[string]Criterion {
	m := make(map[string]Criterion, len(r.criteria))
	for _, c := range r.criteria {
		m[c.ID] = c
	}
	return m
}

func (r *Registry) Len() int { return len(r.criteria) }
