// Package target picks the URL each request is sent to.
package target

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNoTemplates is returned when the selector is built without any URL templates.
	ErrNoTemplates = errors.New("at least one target template is required")
	// ErrEmptyPageRange is returned when pageMin >= pageMax.
	ErrEmptyPageRange = errors.New("page range is empty: page_min must be less than page_max")
)

// Selector produces request URLs by appending a random page number to one of a
// fixed list of templates. It is safe for concurrent use.
type Selector struct {
	templates []string
	pageMin   int
	pageMax   int

	mu  sync.Mutex
	rnd *rand.Rand
}

// New builds a Selector. Pages are drawn from [pageMin, pageMax).
// A zero seed seeds the random source from the clock.
func New(templates []string, pageMin, pageMax int, seed int64) (*Selector, error) {
	cleaned := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		if tmpl = strings.TrimSpace(tmpl); tmpl != "" {
			cleaned = append(cleaned, tmpl)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrNoTemplates
	}
	if pageMin >= pageMax {
		return nil, ErrEmptyPageRange
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Selector{
		templates: cleaned,
		pageMin:   pageMin,
		pageMax:   pageMax,
		rnd:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Next returns a template followed by a page number.
func (s *Selector) Next() string {
	s.mu.Lock()
	idx := s.rnd.Intn(len(s.templates))
	page := s.pageMin + s.rnd.Intn(s.pageMax-s.pageMin)
	s.mu.Unlock()
	return s.templates[idx] + strconv.Itoa(page)
}

// Templates returns a copy of the configured templates.
func (s *Selector) Templates() []string {
	out := make([]string, len(s.templates))
	copy(out, s.templates)
	return out
}
