// Package utm captures campaign attribution parameters and keeps them for
// the rest of a visitor session.
package utm

import (
	"net/url"
	"time"

	"github.com/hoclconnect/leads/internal/infra/cache"
)

// DefaultSessionTTL bounds how long a session remembers its first campaign.
const DefaultSessionTTL = 30 * time.Minute

// Params are the standard campaign parameters. Empty values are omitted on the wire.
type Params struct {
	Source   string `json:"utm_source,omitempty" yaml:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty" yaml:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty" yaml:"utm_campaign,omitempty"`
	Content  string `json:"utm_content,omitempty" yaml:"utm_content,omitempty"`
	Term     string `json:"utm_term,omitempty" yaml:"utm_term,omitempty"`
}

// IsZero reports whether no parameter is set.
func (p Params) IsZero() bool {
	return p == Params{}
}

// Capture extracts the utm_* parameters from a query string.
func Capture(q url.Values) Params {
	return Params{
		Source:   q.Get("utm_source"),
		Medium:   q.Get("utm_medium"),
		Campaign: q.Get("utm_campaign"),
		Content:  q.Get("utm_content"),
		Term:     q.Get("utm_term"),
	}
}

// Values is the inverse of Capture. Empty parameters are left out.
func (p Params) Values() url.Values {
	q := url.Values{}
	for k, v := range map[string]string{
		"utm_source":   p.Source,
		"utm_medium":   p.Medium,
		"utm_campaign": p.Campaign,
		"utm_content":  p.Content,
		"utm_term":     p.Term,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

// Store remembers the first non-empty Params seen per session.
type Store struct {
	sessions *cache.InMemory[Params]
}

// NewStore creates a store whose sessions expire after ttl.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Store{sessions: cache.New[Params](ttl)}
}

// Observe records the campaign carried by query for session, unless the
// session already has one. It returns the session's campaign.
func (s *Store) Observe(session string, query url.Values) Params {
	if p := Capture(query); !p.IsZero() {
		s.sessions.SetIfAbsent(session, p)
	}
	return s.Lookup(session)
}

// Lookup returns the session's campaign, or zero Params.
func (s *Store) Lookup(session string) Params {
	p, _ := s.sessions.Get(session)
	return p
}

// Close stops the session janitor.
func (s *Store) Close() {
	s.sessions.Close()
}
