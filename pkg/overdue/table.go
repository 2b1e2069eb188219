package overdue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const tableFile = "pending_tasks.json"

type Entry struct {
	GCalID  string    `json:"gcal_id"`
	Summary string    `json:"summary"`
	At      time.Time `json:"at"`
}

// Table tracks pending dated tasks whose calendar event has not yet been
// flagged as overdue.
type Table struct {
	Entries map[string]Entry `json:"entries"`
	Path    string           `json:"-"`
	dirty   bool
}

func NewTable(dir string) (*Table, error) {
	t := &Table{
		Path:    filepath.Join(dir, tableFile),
		Entries: make(map[string]Entry),
	}
	if _, err := os.Stat(t.Path); err == nil {
		if err := t.Load(); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) Load() error {
	f, err := os.Open(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(t)
}

func (t *Table) Save() error {
	if !t.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0700); err != nil {
		return err
	}

	f, err := os.Create(t.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(t)
	if err == nil {
		t.dirty = false
	}
	return err
}

// Update records a pending task with a date. A zero date removes the entry.
func (t *Table) Update(key, gcalID, summary string, at time.Time) {
	if at.IsZero() {
		t.Remove(key)
		return
	}
	old, exists := t.Entries[key]
	if !exists || !old.At.Equal(at) || old.GCalID != gcalID || old.Summary != summary {
		t.Entries[key] = Entry{GCalID: gcalID, Summary: summary, At: at}
		t.dirty = true
	}
}

func (t *Table) Remove(key string) {
	if _, exists := t.Entries[key]; exists {
		delete(t.Entries, key)
		t.dirty = true
	}
}

// Sweep returns the entries dated before now and drops them from the table.
func (t *Table) Sweep(now time.Time) []Entry {
	var swept []Entry
	for key, entry := range t.Entries {
		if entry.At.Before(now) {
			swept = append(swept, entry)
			delete(t.Entries, key)
			t.dirty = true
		}
	}
	return swept
}
