package model

import (
	"fmt"
	"strings"
	"time"
)

// Kind tells the three task variants apart.
type Kind string

const (
	TODO     Kind = "T"
	DEADLINE Kind = "D"
	EVENT    Kind = "E"
)

const fieldSep = " | "

// Task is a todo, a deadline or an event. At holds the due date of a
// deadline or the start of an event and is zero for todos.
type Task struct {
	Kind        Kind
	Description string
	Done        bool
	At          time.Time
}

// NewTodo creates an undated task.
func NewTodo(description string) (*Task, error) {
	if strings.TrimSpace(description) == "" {
		return nil, NewError(ErrEmptyDescription, "The description of a todo cannot be empty.")
	}
	return &Task{Kind: TODO, Description: description}, nil
}

// NewDeadline creates a task due at due.
func NewDeadline(description string, due time.Time) (*Task, error) {
	if strings.TrimSpace(description) == "" {
		return nil, NewError(ErrEmptyDescription, "The description of a deadline cannot be empty.")
	}
	return &Task{Kind: DEADLINE, Description: description, At: due}, nil
}

// NewEvent creates a task starting at start.
func NewEvent(description string, start time.Time) (*Task, error) {
	if strings.TrimSpace(description) == "" {
		return nil, NewError(ErrEmptyDescription, "The description of an event cannot be empty.")
	}
	return &Task{Kind: EVENT, Description: description, At: start}, nil
}

// Dated reports whether the task carries a date.
func (t *Task) Dated() bool {
	return t.Kind == DEADLINE || t.Kind == EVENT
}

// MarkDone is idempotent.
func (t *Task) MarkDone() {
	t.Done = true
}

// Rescheduled returns a fresh task of the same kind and description at the
// new date. Todos have no date to move.
func (t *Task) Rescheduled(at time.Time) (*Task, error) {
	switch t.Kind {
	case DEADLINE:
		return NewDeadline(t.Description, at)
	case EVENT:
		return NewEvent(t.Description, at)
	default:
		return nil, NewError(ErrUnsupportedOperation, "Todos don't have schedules")
	}
}

func (t *Task) statusIcon() string {
	if t.Done {
		return "X"
	}
	return " "
}

// Render is the display form, e.g. "[D][X] submit(Dec 02 2019 1800)".
func (t *Task) Render() string {
	s := fmt.Sprintf("[%s][%s] %s", t.Kind, t.statusIcon(), t.Description)
	if t.Dated() {
		s += "(" + FormatDisplay(t.At) + ")"
	}
	return s
}

func (t *Task) String() string {
	return t.Render()
}

// Serialize encodes the task as one storage line:
// "<kind> | <0/1> | <description>[ | <d/M/yyyy HHmm>]".
func (t *Task) Serialize() string {
	done := "0"
	if t.Done {
		done = "1"
	}
	fields := []string{string(t.Kind), done, t.Description}
	if t.Dated() {
		fields = append(fields, FormatRaw(t.At))
	}
	return strings.Join(fields, fieldSep)
}

// Deserialize is the inverse of Serialize.
func Deserialize(line string) (*Task, error) {
	corrupt := func(reason string) error {
		return NewError(ErrCorruptRecord, fmt.Sprintf("Corrupt record %q: %s", line, reason))
	}

	fields := strings.SplitN(line, fieldSep, 3)
	if len(fields) != 3 {
		return nil, corrupt("expected at least 3 fields")
	}

	var done bool
	switch fields[1] {
	case "0":
	case "1":
		done = true
	default:
		return nil, corrupt("status must be 0 or 1")
	}

	var (
		task *Task
		err  error
	)
	kind, rest := Kind(fields[0]), fields[2]
	switch kind {
	case TODO:
		task, err = NewTodo(rest)
	case DEADLINE, EVENT:
		i := strings.LastIndex(rest, fieldSep)
		if i < 0 {
			return nil, corrupt("missing date field")
		}
		at, perr := parseRaw(rest[i+len(fieldSep):])
		if perr != nil {
			return nil, corrupt("bad date")
		}
		if kind == DEADLINE {
			task, err = NewDeadline(rest[:i], at)
		} else {
			task, err = NewEvent(rest[:i], at)
		}
	default:
		return nil, corrupt("unknown task kind")
	}
	if err != nil {
		return nil, corrupt("empty description")
	}

	task.Done = done
	return task, nil
}
