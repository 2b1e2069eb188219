package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harrisonrobin/taskline/pkg/model"
	"github.com/harrisonrobin/taskline/pkg/tasklist"
)

type fakeStore struct {
	lines    []string
	appends  int
	rewrites int
	fail     bool
}

func (s *fakeStore) Append(line string) error {
	if s.fail {
		return errors.New("disk full")
	}
	s.appends++
	s.lines = append(s.lines, line)
	return nil
}

func (s *fakeStore) RewriteAll(lines []string) error {
	if s.fail {
		return errors.New("disk full")
	}
	s.rewrites++
	s.lines = append([]string(nil), lines...)
	return nil
}

func (s *fakeStore) LoadAll() ([]string, error) {
	return s.lines, nil
}

func newParser(t *testing.T, tasks ...*model.Task) (*Parser, *tasklist.List, *fakeStore) {
	t.Helper()
	list := tasklist.New(tasks...)
	store := &fakeStore{lines: list.Lines()}
	return New(list, store, nil), list, store
}

func mustTodo(t *testing.T, description string) *model.Task {
	t.Helper()
	task, err := model.NewTodo(description)
	if err != nil {
		t.Fatalf("failed to prepare todo: %v", err)
	}
	return task
}

func mustDeadline(t *testing.T, description, at string) *model.Task {
	t.Helper()
	due, err := model.ParseDateTime(at)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", at, err)
	}
	task, err := model.NewDeadline(description, due)
	if err != nil {
		t.Fatalf("failed to prepare deadline: %v", err)
	}
	return task
}

func mustEvent(t *testing.T, description, at string) *model.Task {
	t.Helper()
	start, err := model.ParseDateTime(at)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", at, err)
	}
	task, err := model.NewEvent(description, start)
	if err != nil {
		t.Fatalf("failed to prepare event: %v", err)
	}
	return task
}

func joined(lines []string) string {
	return strings.Join(lines, "\n")
}

func renders(list *tasklist.List) []string {
	var out []string
	for _, task := range list.All() {
		out = append(out, task.Render())
	}
	return out
}

func TestAddTodo(t *testing.T) {
	p, list, store := newParser(t)

	out := p.Handle("todo read book")
	if len(out) != 2 {
		t.Fatalf("Expected a two-line confirmation, got %v", out)
	}
	if !strings.Contains(out[0], "[T][ ] read book") {
		t.Errorf("Expected rendering in %q", out[0])
	}
	if out[1] != "Now you have 1 tasks in the list." {
		t.Errorf("Unexpected count line %q", out[1])
	}
	if list.Size() != 1 || store.appends != 1 || store.rewrites != 0 {
		t.Errorf("Expected one appended task, got size=%d appends=%d rewrites=%d", list.Size(), store.appends, store.rewrites)
	}
	if store.lines[0] != "T | 0 | read book" {
		t.Errorf("Unexpected stored line %q", store.lines[0])
	}
}

func TestAddDeadlineAndEvent(t *testing.T) {
	p, list, store := newParser(t)

	out := p.Handle("deadline submit report /by 2/12/2019 1800")
	if !strings.Contains(joined(out), "[D][ ] submit report(Dec 02 2019 1800)") {
		t.Errorf("Unexpected deadline output: %v", out)
	}
	out = p.Handle("event team party /at 3/3/2020")
	if !strings.Contains(joined(out), "[E][ ] team party(Mar 03 2020 0000)") {
		t.Errorf("Unexpected event output: %v", out)
	}
	if list.Size() != 2 || store.appends != 2 {
		t.Errorf("Expected 2 appended tasks, got size=%d appends=%d", list.Size(), store.appends)
	}
}

func TestAddRejections(t *testing.T) {
	tests := []struct {
		input string
		kind  error
	}{
		{"todo", model.ErrEmptyDescription},
		{"todo    ", model.ErrEmptyDescription},
		{"deadline", model.ErrEmptyDescription},
		{"deadline report /by", model.ErrEmptyDescription},
		{"deadline report /by   ", model.ErrEmptyDescription},
		{"deadline  /by 2/12/2019", model.ErrEmptyDescription},
		{"deadline report by 2/12/2019", model.ErrEmptyDescription},
		{"deadline report /by tomorrow", model.ErrInvalidFormat},
		{"event", model.ErrEmptyDescription},
		{"event party /at", model.ErrEmptyDescription},
		{"event party /at 2019-12-02", model.ErrInvalidFormat},
		{"event party /by 2/12/2019", model.ErrEmptyDescription},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, list, store := newParser(t)

			out := p.Handle(tt.input)
			if len(out) != 1 || !strings.HasPrefix(out[0], "OOPS!!!") {
				t.Errorf("Expected a single OOPS line, got %v", out)
			}
			if list.Size() != 0 || store.appends != 0 {
				t.Errorf("Expected no task added, got size=%d appends=%d", list.Size(), store.appends)
			}
		})
	}
}

func TestAddRejectionKinds(t *testing.T) {
	p, _, _ := newParser(t)

	if _, err := p.add("deadline", "report /by 31/31/2020"); !errors.Is(err, model.ErrInvalidFormat) {
		t.Errorf("Expected ErrInvalidFormat, got %v", err)
	}
	if _, err := p.add("deadline", "report /by"); !errors.Is(err, model.ErrEmptyDescription) {
		t.Errorf("Expected ErrEmptyDescription, got %v", err)
	}
	if _, err := p.add("todo", ""); !errors.Is(err, model.ErrEmptyDescription) {
		t.Errorf("Expected ErrEmptyDescription, got %v", err)
	}
}

func TestList(t *testing.T) {
	p, _, _ := newParser(t, mustTodo(t, "read book"), mustDeadline(t, "submit", "2/12/2019 1800"))

	want := []string{
		"Here are the tasks in your list:",
		"1. [T][ ] read book",
		"2. [D][ ] submit(Dec 02 2019 1800)",
	}
	if got := p.Handle("list"); joined(got) != joined(want) {
		t.Errorf("Expected\n%s\ngot\n%s", joined(want), joined(got))
	}
}

func TestFind(t *testing.T) {
	p, _, _ := newParser(t,
		mustTodo(t, "read book"),
		mustTodo(t, "walk dog"),
		mustDeadline(t, "return book", "2/12/2019 1800"),
	)

	want := []string{
		"Here are the matching tasks in your list:",
		"1. [T][ ] read book",
		"2. [D][ ] return book(Dec 02 2019 1800)",
	}
	if got := p.Handle("find book"); joined(got) != joined(want) {
		t.Errorf("Expected\n%s\ngot\n%s", joined(want), joined(got))
	}

	if got := p.Handle("find Dec 02"); len(got) != 2 || got[1] != "1. [D][ ] return book(Dec 02 2019 1800)" {
		t.Errorf("Expected match on rendered date, got %v", got)
	}
	if got := p.Handle("find nothing"); len(got) != 1 {
		t.Errorf("Expected header only, got %v", got)
	}
	if got, list := p.Handle("find"), p.Handle("list"); joined(got) != joined(list) {
		t.Errorf("Expected find without keyword to behave like list, got %v", got)
	}
}

func TestDone(t *testing.T) {
	p, list, store := newParser(t, mustDeadline(t, "submit", "2/12/2019 1800"))

	out := p.Handle("done 1")
	if !strings.Contains(joined(out), "[D][X] submit(Dec 02 2019 1800)") {
		t.Errorf("Unexpected done output: %v", out)
	}
	if store.rewrites != 1 || store.lines[0] != "D | 1 | submit | 2/12/2019 1800" {
		t.Errorf("Expected full rewrite with done flag, got rewrites=%d lines=%v", store.rewrites, store.lines)
	}

	p.Handle("done 1")
	if task, _ := list.Get(1); !task.Done || list.Size() != 1 {
		t.Errorf("Expected repeated done to stay done")
	}
}

func TestDoneOnlyTouchesTarget(t *testing.T) {
	p, list, _ := newParser(t, mustTodo(t, "a"), mustTodo(t, "b"), mustTodo(t, "c"))

	for i := 1; i <= 3; i++ {
		before := renders(list)
		p.Handle("done " + string(rune('0'+i)))
		after := renders(list)

		if len(after) != 3 {
			t.Fatalf("Expected size 3, got %d", len(after))
		}
		for j := range after {
			if j == i-1 {
				if !strings.HasPrefix(after[j], "[T][X]") {
					t.Errorf("Expected task %d done, got %q", i, after[j])
				}
			} else if after[j] != before[j] {
				t.Errorf("done %d changed task %d: %q -> %q", i, j+1, before[j], after[j])
			}
		}
	}
}

func TestDelete(t *testing.T) {
	p, list, store := newParser(t, mustTodo(t, "a"), mustTodo(t, "b"), mustTodo(t, "c"))

	out := p.Handle("delete 2")
	want := []string{
		"Noted. I've removed this task:",
		"  [T][ ] b",
		"Now you have 2 tasks in the list.",
	}
	if joined(out) != joined(want) {
		t.Errorf("Expected\n%s\ngot\n%s", joined(want), joined(out))
	}
	if got := renders(list); joined(got) != "[T][ ] a\n[T][ ] c" {
		t.Errorf("Unexpected list after delete: %v", got)
	}
	if store.rewrites != 1 || len(store.lines) != 2 {
		t.Errorf("Expected full rewrite with 2 lines, got %v", store.lines)
	}

	p.Handle("delete 2")
	if got := renders(list); joined(got) != "[T][ ] a" {
		t.Errorf("Expected deleting the last position to work, got %v", got)
	}
}

func TestInvalidIndex(t *testing.T) {
	inputs := []string{"0", "-1", "4", "abc", "", "1.5"}

	for _, command := range []string{"done", "delete", "snooze"} {
		for _, index := range inputs {
			input := strings.TrimSpace(command + " " + index)
			if command == "snooze" {
				input += " /to 3/3/2020"
			}
			t.Run(input, func(t *testing.T) {
				p, list, store := newParser(t, mustTodo(t, "a"), mustDeadline(t, "b", "1/1/2020"), mustEvent(t, "c", "2/2/2020"))
				before := renders(list)

				out := p.Handle(input)
				if len(out) != 1 || !strings.HasPrefix(out[0], "OOPS!!!") {
					t.Errorf("Expected a single OOPS line, got %v", out)
				}
				if joined(renders(list)) != joined(before) {
					t.Errorf("Expected list unchanged, got %v", renders(list))
				}
				if store.rewrites != 0 {
					t.Errorf("Expected no persistence, got %d rewrites", store.rewrites)
				}
			})
		}
	}
}

func TestIndexIsTrimmed(t *testing.T) {
	p, list, _ := newParser(t, mustTodo(t, "a"))
	p.Handle("done  1 ")
	if task, _ := list.Get(1); !task.Done {
		t.Errorf("Expected whitespace around the index to be ignored")
	}
}

func TestSnooze(t *testing.T) {
	deadline := mustDeadline(t, "submit", "2/12/2019 1800")
	deadline.MarkDone()
	p, list, store := newParser(t, mustTodo(t, "a"), deadline, mustEvent(t, "party", "1/1/2020"))

	out := p.Handle("snooze 2 /to 3/3/2020 0930")
	want := []string{
		"You have snoozed this task:",
		"  [D][X] submit(Dec 02 2019 1800) to:",
		"  [D][ ] submit(Mar 03 2020 0930)",
	}
	if joined(out) != joined(want) {
		t.Errorf("Expected\n%s\ngot\n%s", joined(want), joined(out))
	}
	if got, _ := list.Get(2); got.Render() != "[D][ ] submit(Mar 03 2020 0930)" {
		t.Errorf("Expected snoozed task to stay at position 2, got %q", got.Render())
	}
	if store.rewrites != 1 {
		t.Errorf("Expected a full rewrite, got %d", store.rewrites)
	}

	p.Handle("snooze 3 /to 5/5/2021")
	if got, _ := list.Get(3); got.Kind != model.EVENT || got.Render() != "[E][ ] party(May 05 2021 0000)" {
		t.Errorf("Unexpected snoozed event %q", got.Render())
	}
	if list.Size() != 3 {
		t.Errorf("Expected size 3, got %d", list.Size())
	}
}

func TestSnoozeRejections(t *testing.T) {
	tests := []struct {
		input string
		kind  error
	}{
		{"snooze", model.ErrInvalidIndex},
		{"snooze 1 /to 3/3/2020", model.ErrUnsupportedOperation},
		{"snooze 2", model.ErrInvalidFormat},
		{"snooze 2 /to", model.ErrInvalidFormat},
		{"snooze 2 /to next week", model.ErrInvalidFormat},
		{"snooze 9 /to 3/3/2020", model.ErrInvalidIndex},
		{"snooze x /to 3/3/2020", model.ErrInvalidIndex},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, list, store := newParser(t, mustTodo(t, "read"), mustDeadline(t, "submit", "2/12/2019 1800"))
			before := renders(list)

			_, args, _ := strings.Cut(tt.input, " ")
			if _, err := p.snooze(args); !errors.Is(err, tt.kind) {
				t.Errorf("Expected %v, got %v", tt.kind, err)
			}
			out := p.Handle(tt.input)
			if len(out) != 1 || !strings.HasPrefix(out[0], "OOPS!!!") {
				t.Errorf("Expected a single OOPS line, got %v", out)
			}
			if joined(renders(list)) != joined(before) || store.rewrites != 0 {
				t.Errorf("Expected list and store unchanged")
			}
		})
	}
}

func TestUnknownCommand(t *testing.T) {
	p, list, _ := newParser(t, mustTodo(t, "a"))

	for _, input := range []string{"", "hello", "LIST", "listing", "todoread"} {
		out := p.Handle(input)
		if len(out) != 1 || out[0] != msgUnknown {
			t.Errorf("Handle(%q): expected unrecognized message, got %v", input, out)
		}
	}
	if list.Size() != 1 {
		t.Errorf("Expected no mutation, got size %d", list.Size())
	}
}

func TestIsExit(t *testing.T) {
	p, _, _ := newParser(t)
	if !p.IsExit("bye") {
		t.Errorf("Expected bye to exit")
	}
	for _, input := range []string{"bye ", "Bye", "byebye", "list"} {
		if p.IsExit(input) {
			t.Errorf("Did not expect %q to exit", input)
		}
	}
}

func TestPersistFailureKeepsChange(t *testing.T) {
	p, list, store := newParser(t, mustTodo(t, "a"))
	store.fail = true

	out := p.Handle("todo b")
	if out[len(out)-1] != msgPersistError {
		t.Errorf("Expected persistence error line, got %v", out)
	}
	if list.Size() != 2 {
		t.Errorf("Expected in-memory add to be kept, got size %d", list.Size())
	}

	out = p.Handle("done 1")
	if out[len(out)-1] != msgPersistError {
		t.Errorf("Expected persistence error line, got %v", out)
	}
	if task, _ := list.Get(1); !task.Done {
		t.Errorf("Expected in-memory done to be kept")
	}

	store.fail = false
	p.Handle("delete 2")
	if len(store.lines) != 1 || store.lines[0] != "T | 1 | a" {
		t.Errorf("Expected next rewrite to resync storage, got %v", store.lines)
	}
}

func TestScenarioDates(t *testing.T) {
	// Round trip through the store keeps what list shows.
	p, list, store := newParser(t)
	p.Handle("deadline submit /by 2/12/2019 1800")
	p.Handle("event talk /at 14/2/2020 0900")
	p.Handle("done 2")

	reloaded, skipped := tasklist.Decode(store.lines)
	if len(skipped) != 0 {
		t.Fatalf("Unexpected corrupt lines: %v", skipped)
	}
	if joined(renders(reloaded)) != joined(renders(list)) {
		t.Errorf("Expected reloaded list %v, got %v", renders(list), renders(reloaded))
	}

	task, _ := reloaded.Get(2)
	if want := time.Date(2020, 2, 14, 9, 0, 0, 0, time.Local); !task.At.Equal(want) {
		t.Errorf("Expected %v, got %v", want, task.At)
	}
}
