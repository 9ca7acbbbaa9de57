package checkout

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry keeps in-flight workflows between requests. Entries not touched
// for ttl are dropped.
type Registry struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	workflows map[string]*Workflow
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:       ttl,
		now:       time.Now,
		workflows: make(map[string]*Workflow),
	}
}

func (r *Registry) Add(w *Workflow) string {
	id := uuid.NewString()
	now := r.now()
	w.mu.Lock()
	w.id = id
	w.updatedAt = now
	w.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep(now)
	r.workflows[id] = w
	return id
}

func (r *Registry) Get(id string) (*Workflow, error) {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep(now)
	w, ok := r.workflows[id]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	w.mu.Lock()
	w.updatedAt = now
	w.mu.Unlock()
	return w, nil
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.workflows, id)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workflows)
}

func (r *Registry) sweep(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for id, w := range r.workflows {
		// A workflow being completed holds its lock; skip it this round.
		if !w.mu.TryLock() {
			continue
		}
		expired := now.Sub(w.updatedAt) > r.ttl
		w.mu.Unlock()
		if expired {
			delete(r.workflows, id)
		}
	}
}
