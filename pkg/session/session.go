// Package session tracks a notebook's rendering state: the configured
// space and grid, and the registry mapping output keys to the canvas
// sections they last produced.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/ovecast/ovecast/pkg/config"
	"github.com/ovecast/ovecast/pkg/errors"
	"github.com/ovecast/ovecast/pkg/layout"
	"github.com/ovecast/ovecast/pkg/section"
)

// Config is the per-session canvas configuration, set once when the
// session starts.
type Config struct {
	Space           string      `json:"space"`
	Rows            int         `json:"rows"`
	Cols            int         `json:"cols"`
	Mode            config.Mode `json:"mode"`
	RemoveOnStart   bool        `json:"remove_on_start"`
	MultiController bool        `json:"multi_controller"`
	Split           string      `json:"split,omitempty"`
}

// Validate checks the grid and space are usable.
func (c Config) Validate() error {
	if c.Space == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "a space name is required")
	}
	if c.Rows < 1 || c.Cols < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "rows and cols must be at least 1")
	}
	return nil
}

// Session is one notebook's binding of output keys to registered
// sections. Sections reflect the session's view only; the canvas core
// owns the sections themselves.
type Session struct {
	ID     string
	Config Config
	Bounds layout.Bounds

	mu         sync.Mutex
	sections   map[section.Key]section.Registered
	placements map[int]layout.PlacementArgs
}

// New creates a session with a fresh id.
func New(cfg Config, bounds layout.Bounds) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Config:     cfg,
		Bounds:     bounds,
		sections:   map[section.Key]section.Registered{},
		placements: map[int]layout.PlacementArgs{},
	}
}

// SetPlacement stores a cell's placement arguments ahead of its
// outputs arriving.
func (s *Session) SetPlacement(cellNo int, args layout.PlacementArgs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placements[cellNo] = args
}

// Placement returns the stored placement arguments for a cell.
func (s *Session) Placement(cellNo int) (layout.PlacementArgs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	args, ok := s.placements[cellNo]
	if !ok {
		return layout.PlacementArgs{}, errors.New(errors.ErrCodeNotFound, "no placement recorded for cell %d", cellNo)
	}
	return args, nil
}

// EnableMultiController switches the session to controller-page
// emission.
func (s *Session) EnableMultiController() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Config.MultiController = true
}

// Bind records the section a key last produced, replacing any previous
// binding for that key.
func (s *Session) Bind(key section.Key, reg section.Registered) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[key] = reg
}

// Lookup returns the last registration for a key.
func (s *Session) Lookup(key section.Key) (section.Registered, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.sections[key]
	return reg, ok
}

// Sections returns a copy of the registry.
func (s *Session) Sections() map[section.Key]section.Registered {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[section.Key]section.Registered, len(s.sections))
	for k, v := range s.sections {
		out[k] = v
	}
	return out
}

// Len returns the number of bound keys.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sections)
}

// Registry is a bounded collection of sessions. When full, adding a
// session evicts the oldest one, which callers should tear down.
type Registry struct {
	mu       sync.Mutex
	limit    int
	order    []string
	sessions map[string]*Session
}

// NewRegistry creates a registry holding at most limit sessions.
func NewRegistry(limit int) *Registry {
	if limit < 1 {
		limit = 1
	}
	return &Registry{
		limit:    limit,
		sessions: map[string]*Session{},
	}
}

// Add registers a session and returns the session evicted to make
// room, if any. Re-adding an id refreshes that session in place and
// moves it to the back of the eviction order.
func (r *Registry) Add(s *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; ok {
		for i, id := range r.order {
			if id == s.ID {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		r.order = append(r.order, s.ID)
		r.sessions[s.ID] = s
		return nil
	}
	var evicted *Session
	if len(r.order) >= r.limit {
		oldest := r.order[0]
		r.order = r.order[1:]
		evicted = r.sessions[oldest]
		delete(r.sessions, oldest)
	}
	r.order = append(r.order, s.ID)
	r.sessions[s.ID] = s
	return evicted
}

// Get looks a session up by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "unknown session %s", id)
	}
	return s, nil
}

// Latest returns the most recently added session, or nil when the
// registry is empty.
func (r *Registry) Latest() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return nil
	}
	return r.sessions[r.order[len(r.order)-1]]
}

// Remove drops a session from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return
	}
	delete(r.sessions, id)
	for i, sid := range r.order {
		if sid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
