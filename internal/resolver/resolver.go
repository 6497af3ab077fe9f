// Package resolver maps foreign-key ids to display names for views.
package resolver

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/garnizeh/crm/internal/store"
	"github.com/garnizeh/crm/pkg/models"
)

// Unknown is shown for any reference that cannot be resolved.
const Unknown = "Unknown"

// Lookup fetches single entities by id. *client.Client satisfies it.
type Lookup interface {
	GetUser(ctx context.Context, id int64) (models.User, error)
	GetCustomer(ctx context.Context, id int64) (models.Customer, error)
	GetProject(ctx context.Context, id int64) (models.Project, error)
}

type kind byte

const (
	kindUser     kind = 'u'
	kindCustomer kind = 'c'
	kindProject  kind = 'p'
)

type key struct {
	kind kind
	id   int64
}

// Resolver caches names for the lifetime of one view session. Stores, when
// given, are consulted before the Lookup.
type Resolver struct {
	lookup Lookup
	stores *store.Set

	mu    sync.RWMutex
	cache map[key]string
	group singleflight.Group

	// Parallelism bounds ResolveAll.
	Parallelism int
}

func New(lookup Lookup, stores *store.Set) *Resolver {
	return &Resolver{lookup: lookup, stores: stores, cache: map[key]string{}, Parallelism: 4}
}

// Reset drops every cached name.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.cache = map[key]string{}
	r.mu.Unlock()
}

func (r *Resolver) UserName(ctx context.Context, id int64) string {
	return r.resolve(ctx, key{kindUser, id})
}

func (r *Resolver) CustomerName(ctx context.Context, id int64) string {
	return r.resolve(ctx, key{kindCustomer, id})
}

func (r *Resolver) ProjectName(ctx context.Context, id int64) string {
	return r.resolve(ctx, key{kindProject, id})
}

func (r *Resolver) resolve(ctx context.Context, k key) string {
	if k.id <= 0 {
		return Unknown
	}
	r.mu.RLock()
	name, ok := r.cache[k]
	r.mu.RUnlock()
	if ok {
		return name
	}

	sfKey := string(k.kind) + strconv.FormatInt(k.id, 10)
	v, _, _ := r.group.Do(sfKey, func() (any, error) {
		name := r.fetch(ctx, k)
		// a cancelled lookup says nothing about the entity
		if ctx.Err() == nil {
			r.mu.Lock()
			r.cache[k] = name
			r.mu.Unlock()
		}
		return name, nil
	})
	return v.(string)
}

func (r *Resolver) fetch(ctx context.Context, k key) string {
	if name, ok := r.fromStores(k); ok {
		return name
	}
	if r.lookup == nil {
		return Unknown
	}

	var name string
	var err error
	switch k.kind {
	case kindUser:
		var u models.User
		u, err = r.lookup.GetUser(ctx, k.id)
		name = u.Name
		if err == nil && u.ID != k.id {
			name = ""
		}
	case kindCustomer:
		var c models.Customer
		c, err = r.lookup.GetCustomer(ctx, k.id)
		name = c.Name
		if err == nil && c.ID != k.id {
			name = ""
		}
	case kindProject:
		var p models.Project
		p, err = r.lookup.GetProject(ctx, k.id)
		name = p.Name
		if err == nil && p.ID != k.id {
			name = ""
		}
	}
	if err != nil || name == "" {
		return Unknown
	}
	return name
}

func (r *Resolver) fromStores(k key) (string, bool) {
	if r.stores == nil {
		return "", false
	}
	switch k.kind {
	case kindUser:
		if u, err := r.stores.Users.Get(k.id); err == nil && u.Name != "" {
			return u.Name, true
		}
	case kindCustomer:
		if c, err := r.stores.Customers.Get(k.id); err == nil && c.Name != "" {
			return c.Name, true
		}
	case kindProject:
		if p, err := r.stores.Projects.Get(k.id); err == nil && p.Name != "" {
			return p.Name, true
		}
	}
	return "", false
}

// Resolved holds the display names behind an entity's references. Fields
// that do not apply to the entity are left empty.
type Resolved struct {
	Customer string
	Project  string
	Manager  string
	Assignee string
	Owner    string
}

func (r *Resolver) ResolveProject(ctx context.Context, p models.Project) Resolved {
	return Resolved{
		Customer: r.CustomerName(ctx, p.CustomerID),
		Manager:  r.UserName(ctx, p.Manager),
	}
}

func (r *Resolver) ResolveTask(ctx context.Context, t models.Task) Resolved {
	return Resolved{
		Project:  r.ProjectName(ctx, t.ProjectID),
		Assignee: r.UserName(ctx, t.AssignedTo),
	}
}

func (r *Resolver) ResolveSalesOpportunity(ctx context.Context, s models.SalesOpportunity) Resolved {
	return Resolved{
		Customer: r.CustomerName(ctx, s.CustomerID),
		Owner:    r.UserName(ctx, s.Owner),
	}
}

func (r *Resolver) ResolveResourceRequest(ctx context.Context, req models.ResourceRequest) Resolved {
	return Resolved{Project: r.ProjectName(ctx, req.ProjectID)}
}

// Refs lists ids to warm in one batch.
type Refs struct {
	Users     []int64
	Customers []int64
	Projects  []int64
}

// ResolveAll warms the cache for refs in parallel. It only fails when ctx is
// done; unresolvable ids are cached as Unknown.
func (r *Resolver) ResolveAll(ctx context.Context, refs Refs) error {
	g, gctx := errgroup.WithContext(ctx)
	limit := r.Parallelism
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	submit := func(k kind, ids []int64) {
		for _, id := range ids {
			k, id := k, id
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				r.resolve(gctx, key{k, id})
				return nil
			})
		}
	}
	submit(kindUser, refs.Users)
	submit(kindCustomer, refs.Customers)
	submit(kindProject, refs.Projects)
	return g.Wait()
}
