package bot

import (
	"sync"

	"voicetask/internal/todoist"
)

// Selection is a user's explicitly chosen destination project. The name may
// be absent when the selection predates a name lookup.
type Selection struct {
	ProjectID   string
	ProjectName string
}

// Sessions holds per-user project selections for the process lifetime.
type Sessions struct {
	mu     sync.RWMutex
	byUser map[int64]Selection
}

func NewSessions() *Sessions {
	return &Sessions{byUser: make(map[int64]Selection)}
}

func (s *Sessions) Select(userID int64, sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = sel
}

func (s *Sessions) Get(userID int64) (Selection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel, ok := s.byUser[userID]
	return sel, ok
}

// ProjectResolver picks the effective destination project for a user:
// explicit selection, else the configured default (name recovered from the
// cached directory, no forced fetch), else nothing — which lets the to-do
// service apply its own default.
type ProjectResolver struct {
	Sessions         *Sessions
	DefaultProjectID string
	Directory        interface{ Peek() []todoist.Project }
}

func (r *ProjectResolver) Resolve(userID int64) (projectID, projectName string) {
	if sel, ok := r.Sessions.Get(userID); ok && sel.ProjectID != "" {
		return sel.ProjectID, sel.ProjectName
	}

	if r.DefaultProjectID != "" {
		name := ""
		if r.Directory != nil {
			for _, p := range r.Directory.Peek() {
				if p.ID == r.DefaultProjectID {
					name = p.Name
					break
				}
			}
		}
		return r.DefaultProjectID, name
	}

	return "", ""
}
