package todoist

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProjectsTTL is the freshness window of the project directory cache.
const ProjectsTTL = 600 * time.Second

type ProjectLister interface {
	Projects(ctx context.Context) ([]Project, error)
}

// ProjectCache is the process-wide, TTL-bounded snapshot of the account's
// project directory. A failed refresh stores an empty entry with a fresh TTL
// window so repeated failures do not hammer the service; a transient outage
// therefore blanks the cache for one TTL.
type ProjectCache struct {
	lister ProjectLister
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu        sync.Mutex
	projects  []Project
	expiresAt time.Time
	stored    bool
}

func NewProjectCache(lister ProjectLister, logger *zap.Logger) *ProjectCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectCache{
		lister: lister,
		ttl:    ProjectsTTL,
		now:    time.Now,
		logger: logger,
	}
}

// Get returns the cached project sequence, refreshing it when the entry is
// missing, expired, or forceRefresh is set. Fetch failures degrade to an
// empty sequence; callers treat that as "unavailable", not "no projects".
func (c *ProjectCache) Get(ctx context.Context, forceRefresh bool) []Project {
	c.mu.Lock()
	if !forceRefresh && c.stored && c.expiresAt.After(c.now()) {
		projects := c.projects
		c.mu.Unlock()
		return projects
	}
	c.mu.Unlock()

	// Concurrent refreshes are tolerated: entries are idempotent
	// snapshots, last writer wins.
	projects, err := c.lister.Projects(ctx)
	if err != nil {
		c.logger.Error("refreshing todoist projects failed", zap.Error(err))
		projects = nil
	}

	c.mu.Lock()
	c.projects = projects
	c.expiresAt = c.now().Add(c.ttl)
	c.stored = true
	c.mu.Unlock()

	return projects
}

// Peek returns the last stored sequence without any fetch.
func (c *ProjectCache) Peek() []Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projects
}
