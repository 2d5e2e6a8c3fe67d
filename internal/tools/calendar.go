package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one calendar entry.
type Event struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Calendar stores events in a single JSON file.
type Calendar struct {
	path string
	mu   sync.Mutex
}

func NewCalendar(path string) (*Calendar, error) {
	if path == "" {
		return nil, errors.New("calendar path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create calendar dir: %w", err)
	}
	return &Calendar{path: path}, nil
}

// Create adds an event and returns it with its assigned id.
func (c *Calendar) Create(title string, start, end time.Time) (Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	events, err := c.readAll()
	if err != nil {
		return Event{}, err
	}
	ev := Event{ID: uuid.NewString(), Title: title, Start: start, End: end}
	events = append(events, ev)
	if err := c.writeAll(events); err != nil {
		return Event{}, err
	}
	return ev, nil
}

// Upcoming returns events starting at or after now, soonest first.
func (c *Calendar) Upcoming(now time.Time, limit int) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	events, err := c.readAll()
	if err != nil {
		return nil, err
	}
	var upcoming []Event
	for _, ev := range events {
		if !ev.Start.Before(now) {
			upcoming = append(upcoming, ev)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].Start.Before(upcoming[j].Start) })
	if limit > 0 && len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return upcoming, nil
}

func (c *Calendar) readAll() ([]Event, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read calendar: %w", err)
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}
	return events, nil
}

func (c *Calendar) writeAll(events []Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".calendar-*")
	if err != nil {
		return fmt.Errorf("create temp calendar: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write calendar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close calendar: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("promote calendar: %w", err)
	}
	return nil
}
