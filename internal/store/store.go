// Package store holds the client-side, server-confirmed snapshot of each
// entity collection plus any optimistic candidates staged by the workflow
// engine.
package store

import (
	"sync"

	"github.com/garnizeh/crm/pkg/crmerr"
	"github.com/garnizeh/crm/pkg/models"
)

// Store keeps confirmed entities in server order. Staged candidates are kept
// apart and never returned by List or Get.
type Store[T models.Entity] struct {
	name    string
	mu      sync.RWMutex
	items   []T
	index   map[int64]int
	pending map[int64]T
	version uint64
}

// New returns an empty store. name is used in NotFound errors.
func New[T models.Entity](name string) *Store[T] {
	return &Store[T]{name: name, index: map[int64]int{}, pending: map[int64]T{}}
}

// Replace installs a server-confirmed snapshot. Staged candidates are kept.
func (s *Store[T]) Replace(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items[:0:0], items...)
	s.index = make(map[int64]int, len(items))
	for i, it := range s.items {
		s.index[it.EntityID()] = i
	}
	s.version++
}

// List returns the confirmed entities matching pred, in order. A nil pred
// matches everything.
func (s *Store[T]) List(pred func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.items))
	for _, it := range s.items {
		if pred == nil || pred(it) {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store[T]) Get(id int64) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i, ok := s.index[id]; ok {
		return s.items[i], nil
	}
	var zero T
	return zero, crmerr.NotFound("store.Get", s.name, id)
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Stage records an optimistic candidate for id.
func (s *Store[T]) Stage(id int64, candidate T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[id] = candidate
}

// Pending returns the staged candidate for id, if any.
func (s *Store[T]) Pending(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.pending[id]
	return v, ok
}

// Confirm applies a backend-acknowledged value: it replaces the entity with
// the same id, or appends it, and clears any staged candidate.
func (s *Store[T]) Confirm(server T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := server.EntityID()
	if i, ok := s.index[id]; ok {
		s.items[i] = server
	} else {
		s.index[id] = len(s.items)
		s.items = append(s.items, server)
	}
	delete(s.pending, id)
	s.version++
}

// Rollback drops the candidate for id; the confirmed value is untouched.
func (s *Store[T]) Rollback(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// Remove drops a confirmed entity after an acknowledged delete.
func (s *Store[T]) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].EntityID()] = j
	}
	delete(s.pending, id)
	s.version++
}

// Version increments on every confirmed change.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Set groups the stores a client session works against.
type Set struct {
	Users        *Store[models.User]
	Customers    *Store[models.Customer]
	Projects     *Store[models.Project]
	Tasks        *Store[models.Task]
	Interactions *Store[models.Interaction]
	Funding      *Store[models.FundingRecord]
	Sales        *Store[models.SalesOpportunity]
	Requests     *Store[models.ResourceRequest]
	UpdateLogs   *Store[models.UpdateLog]
}

func NewSet() *Set {
	return &Set{
		Users:        New[models.User]("user"),
		Customers:    New[models.Customer]("customer"),
		Projects:     New[models.Project]("project"),
		Tasks:        New[models.Task]("task"),
		Interactions: New[models.Interaction]("interaction"),
		Funding:      New[models.FundingRecord]("funding"),
		Sales:        New[models.SalesOpportunity]("sales opportunity"),
		Requests:     New[models.ResourceRequest]("support request"),
		UpdateLogs:   New[models.UpdateLog]("update log"),
	}
}
