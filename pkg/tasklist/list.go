package tasklist

import (
	"fmt"

	"github.com/harrisonrobin/taskline/pkg/model"
)

// List is the ordered set of tasks. All positions taken by its methods are
// 1-based and must lie in [1, Size()].
type List struct {
	tasks []*model.Task
}

func New(tasks ...*model.Task) *List {
	return &List{tasks: append([]*model.Task(nil), tasks...)}
}

// Decode rebuilds a list from storage lines. Lines that fail to decode are
// left out and returned as errors alongside the list.
func Decode(lines []string) (*List, []error) {
	l := New()
	var skipped []error
	for i, line := range lines {
		task, err := model.Deserialize(line)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("line %d: %w", i+1, err))
			continue
		}
		l.Add(task)
	}
	return l, skipped
}

func (l *List) Size() int {
	return len(l.tasks)
}

func (l *List) Add(task *model.Task) {
	l.tasks = append(l.tasks, task)
}

func (l *List) check(index int) error {
	if index < 1 || index > len(l.tasks) {
		return model.NewError(model.ErrInvalidIndex, fmt.Sprintf("Task %d doesn't exist!", index))
	}
	return nil
}

func (l *List) Get(index int) (*model.Task, error) {
	if err := l.check(index); err != nil {
		return nil, err
	}
	return l.tasks[index-1], nil
}

// Set replaces the task at index and returns the one it replaced.
func (l *List) Set(index int, task *model.Task) (*model.Task, error) {
	if err := l.check(index); err != nil {
		return nil, err
	}
	old := l.tasks[index-1]
	l.tasks[index-1] = task
	return old, nil
}

// Remove deletes the task at index; later tasks move down by one.
func (l *List) Remove(index int) (*model.Task, error) {
	if err := l.check(index); err != nil {
		return nil, err
	}
	removed := l.tasks[index-1]
	l.tasks = append(l.tasks[:index-1], l.tasks[index:]...)
	return removed, nil
}

// All returns the tasks in order. The slice is a copy; the tasks are not.
func (l *List) All() []*model.Task {
	return append([]*model.Task(nil), l.tasks...)
}

// Lines serializes every task in list order.
func (l *List) Lines() []string {
	lines := make([]string, 0, len(l.tasks))
	for _, task := range l.tasks {
		lines = append(lines, task.Serialize())
	}
	return lines
}
