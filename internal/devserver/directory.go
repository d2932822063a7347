package devserver

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/five82/sommelier/internal/api"
)

var (
	ErrMissingUser  = errors.New("user not found")
	ErrMissingEvent = errors.New("event not found")
)

type note struct {
	content   string
	updatedAt time.Time
	userID    int64
}

// Directory is the in-memory data the dev server serves.
type Directory struct {
	mu     sync.RWMutex
	now    func() time.Time
	users  []api.User
	events []api.Event
	wines  []api.Wine
	notes  map[int64]note
}

// NewDirectory returns an empty directory. A nil now uses time.Now.
func NewDirectory(now func() time.Time) *Directory {
	if now == nil {
		now = time.Now
	}
	return &Directory{now: now, notes: map[int64]note{}}
}

// SeedDirectory returns a directory with a small tasting already set up.
func SeedDirectory(now func() time.Time) *Directory {
	d := NewDirectory(now)
	d.users = []api.User{
		{ID: 1, Name: "Marco", Role: "admin"},
		{ID: 2, Name: "Giulia", Role: "admin"},
		{ID: 3, Name: "Luca"},
		{ID: 4, Name: "Sofia"},
		{ID: 5, Name: "Paolo"},
	}
	d.events = []api.Event{
		{ID: 1, Name: "Langhe verticale", Date: "2025-03-01"},
		{ID: 2, Name: "Etna e dintorni", Date: "2025-04-12"},
	}
	d.wines = []api.Wine{
		{ID: 1, EventID: 1, Name: "Barolo Cannubi", Producer: "Brezza", Vintage: 2016},
		{ID: 2, EventID: 1, Name: "Barbaresco Asili", Producer: "Ceretto", Vintage: 2017},
		{ID: 3, EventID: 1, Name: "Dolcetto d'Alba", Producer: "Vietti", Vintage: 2021},
		{ID: 4, EventID: 2, Name: "Etna Rosso", Producer: "Benanti", Vintage: 2019},
		{ID: 5, EventID: 2, Name: "Etna Bianco", Producer: "Pietradolce", Vintage: 2022},
	}
	return d
}

// AddUser appends a user, used by tests.
func (d *Directory) AddUser(u api.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users = append(d.users, u)
}

// AddEvent appends an event, used by tests.
func (d *Directory) AddEvent(e api.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
}

func (d *Directory) Users() []api.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.users)
}

func (d *Directory) User(id int64) (api.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.ID == id {
			return u, nil
		}
	}
	return api.User{}, ErrMissingUser
}

// DeleteUser removes a user. Sessions are the caller's concern.
func (d *Directory) DeleteUser(id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.IndexFunc(d.users, func(u api.User) bool { return u.ID == id })
	if i < 0 {
		return ErrMissingUser
	}
	d.users = slices.Delete(d.users, i, i+1)
	return nil
}

func (d *Directory) Events() []api.Event {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.events)
}

func (d *Directory) hasEvent(id int64) bool {
	return slices.ContainsFunc(d.events, func(e api.Event) bool { return e.ID == id })
}

func (d *Directory) Wines(eventID int64) ([]api.Wine, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.hasEvent(eventID) {
		return nil, ErrMissingEvent
	}
	out := []api.Wine{}
	for _, w := range d.wines {
		if w.EventID == eventID {
			out = append(out, w)
		}
	}
	return out, nil
}

// Pagella returns the event's note. A note never saved has a zero time.
func (d *Directory) Pagella(eventID int64) (string, time.Time, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.hasEvent(eventID) {
		return "", time.Time{}, ErrMissingEvent
	}
	n := d.notes[eventID]
	return n.content, n.updatedAt, nil
}

// SavePagella stores content and returns its timestamp, which is strictly
// after the previous one.
func (d *Directory) SavePagella(eventID int64, content string, userID int64) (time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasEvent(eventID) {
		return time.Time{}, ErrMissingEvent
	}
	prev := d.notes[eventID]
	at := d.now().UTC().Truncate(time.Millisecond)
	if !at.After(prev.updatedAt) {
		at = prev.updatedAt.Add(time.Millisecond)
	}
	d.notes[eventID] = note{content: content, updatedAt: at, userID: userID}
	return at, nil
}
