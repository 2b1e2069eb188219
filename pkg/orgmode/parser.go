package orgmode

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/harrisonrobin/taskline/pkg/model"
)

const stampLayout = "2006-01-02 Mon 15:04"

var (
	headlineRegex = regexp.MustCompile(`^\*+ (TODO|DONE)\s*(?:\[#[A-Z]\])?\s*(.*?)(?:\s+:[\w:]+:)?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2}\s+[A-Za-z]{3}(?:\s+\d{2}:\d{2})?)>`)
	scheduleRegex = regexp.MustCompile(`SCHEDULED:\s+<(\d{4}-\d{2}-\d{2}\s+[A-Za-z]{3}(?:\s+\d{2}:\d{2})?)>`)
)

// ParseFile parses the Org-mode file at path.
func ParseFile(path string) ([]*model.Task, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

// Parse turns TODO/DONE headlines into tasks. A DEADLINE stamp under a
// headline makes it a deadline, a SCHEDULED stamp an event, and neither a
// todo. DONE headlines come back marked done.
func Parse(r io.Reader) ([]*model.Task, error) {
	var (
		tasks   []*model.Task
		current *entry
	)
	flush := func() {
		if current == nil {
			return
		}
		if task := current.task(); task != nil {
			tasks = append(tasks, task)
		}
		current = nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "*") {
			flush()
			if m := headlineRegex.FindStringSubmatch(line); m != nil {
				current = &entry{done: m[1] == "DONE", description: strings.TrimSpace(m[2])}
			}
			continue
		}
		if current == nil {
			continue
		}
		if m := deadlineRegex.FindStringSubmatch(line); m != nil {
			current.deadline = parseStamp(m[1])
		}
		if m := scheduleRegex.FindStringSubmatch(line); m != nil {
			current.scheduled = parseStamp(m[1])
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

type entry struct {
	description string
	done        bool
	deadline    time.Time
	scheduled   time.Time
}

func (e *entry) task() *model.Task {
	var (
		task *model.Task
		err  error
	)
	switch {
	case !e.deadline.IsZero():
		task, err = model.NewDeadline(e.description, e.deadline)
	case !e.scheduled.IsZero():
		task, err = model.NewEvent(e.description, e.scheduled)
	default:
		task, err = model.NewTodo(e.description)
	}
	if err != nil {
		return nil
	}
	if e.done {
		task.MarkDone()
	}
	return task
}

func parseStamp(s string) time.Time {
	s = strings.Join(strings.Fields(s), " ")
	layout := stampLayout
	if strings.Count(s, " ") == 1 {
		layout = "2006-01-02 Mon"
	}
	t, err := time.ParseInLocation(layout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
