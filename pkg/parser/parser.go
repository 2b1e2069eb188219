package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harrisonrobin/taskline/pkg/model"
	"github.com/harrisonrobin/taskline/pkg/tasklist"
)

const (
	exitCommand = "bye"

	msgUnknown      = "OOPS!!! I'm sorry, but I don't know what that means :-("
	msgPersistError = "OOPS!!! There was an error processing your input. Please try again!"
)

// Store is where the task list is kept between sessions.
type Store interface {
	Append(line string) error
	RewriteAll(lines []string) error
	LoadAll() ([]string, error)
}

// Parser turns command lines into task list changes and the text to show
// for them. It owns the list; every change is written to the store before
// Handle returns.
type Parser struct {
	tasks  *tasklist.List
	store  Store
	logger *zap.Logger
}

func New(tasks *tasklist.List, store Store, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{tasks: tasks, store: store, logger: logger}
}

// IsExit reports whether input ends the session.
func (p *Parser) IsExit(input string) bool {
	return input == exitCommand
}

// Handle runs one command and returns the lines to display. It never fails:
// input errors come back as a single "OOPS!!!" line with the list untouched.
func (p *Parser) Handle(input string) []string {
	if p.IsExit(input) {
		return nil
	}

	command, args, _ := strings.Cut(input, " ")

	var (
		lines []string
		err   error
	)
	switch command {
	case "list":
		lines = p.list()
	case "find":
		lines = p.find(args)
	case "done":
		lines, err = p.done(args)
	case "delete":
		lines, err = p.remove(args)
	case "snooze":
		lines, err = p.snooze(args)
	case "todo", "deadline", "event":
		lines, err = p.add(command, args)
	default:
		return []string{msgUnknown}
	}

	if err != nil {
		var taskErr *model.TaskError
		if errors.As(err, &taskErr) {
			p.logger.Debug("command rejected", zap.String("command", command), zap.Error(err))
			return []string{taskErr.Error()}
		}
		p.logger.Error("command failed", zap.String("command", command), zap.Error(err))
		return []string{msgPersistError}
	}
	return lines
}

func (p *Parser) list() []string {
	lines := []string{"Here are the tasks in your list:"}
	for i, task := range p.tasks.All() {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, task.Render()))
	}
	return lines
}

func (p *Parser) find(keyword string) []string {
	if strings.TrimSpace(keyword) == "" {
		return p.list()
	}
	lines := []string{"Here are the matching tasks in your list:"}
	n := 0
	for _, task := range p.tasks.All() {
		rendered := task.Render()
		if strings.Contains(rendered, keyword) {
			n++
			lines = append(lines, fmt.Sprintf("%d. %s", n, rendered))
		}
	}
	return lines
}

func (p *Parser) done(args string) ([]string, error) {
	index, err := parseIndex(args)
	if err != nil {
		return nil, err
	}
	task, err := p.tasks.Get(index)
	if err != nil {
		return nil, err
	}

	task.MarkDone()
	lines := []string{"Nice! I've marked this task as done:", "  " + task.Render()}
	return p.rewrite(lines), nil
}

func (p *Parser) remove(args string) ([]string, error) {
	index, err := parseIndex(args)
	if err != nil {
		return nil, err
	}
	removed, err := p.tasks.Remove(index)
	if err != nil {
		return nil, err
	}

	lines := []string{
		"Noted. I've removed this task:",
		"  " + removed.Render(),
		p.countLine(),
	}
	return p.rewrite(lines), nil
}

// snooze handles "snooze <i> /to <date>".
func (p *Parser) snooze(args string) ([]string, error) {
	if strings.TrimSpace(args) == "" {
		return nil, model.NewError(model.ErrInvalidIndex, "You have not inputted a task or a rescheduled time")
	}
	rawIndex, rawDate, hasDate := strings.Cut(args, "/to")

	index, err := parseIndex(rawIndex)
	if err != nil {
		return nil, err
	}
	task, err := p.tasks.Get(index)
	if err != nil {
		return nil, err
	}
	if !hasDate || strings.TrimSpace(rawDate) == "" {
		return nil, model.NewError(model.ErrInvalidFormat, "Please enter a time")
	}
	at, err := model.ParseDateTime(rawDate)
	if err != nil {
		return nil, err
	}
	moved, err := task.Rescheduled(at)
	if err != nil {
		return nil, err
	}
	if _, err := p.tasks.Set(index, moved); err != nil {
		return nil, err
	}

	lines := []string{
		"You have snoozed this task:",
		"  " + task.Render() + " to:",
		"  " + moved.Render(),
	}
	return p.rewrite(lines), nil
}

func (p *Parser) add(command, args string) ([]string, error) {
	var (
		task *model.Task
		err  error
	)
	switch command {
	case "todo":
		task, err = model.NewTodo(args)
	case "deadline":
		task, err = parseDated(args, " /by ", model.NewDeadline,
			"The description of a deadline cannot be empty.",
			"The description or deadline can't be empty or it must be after a '/by'")
	case "event":
		task, err = parseDated(args, " /at ", model.NewEvent,
			"The description of an event cannot be empty.",
			"The description or duration can't be empty or it must be after a '/at'")
	}
	if err != nil {
		return nil, err
	}

	p.tasks.Add(task)
	lines := []string{
		"Got it. I've added this task: " + task.Render(),
		p.countLine(),
	}
	if err := p.store.Append(task.Serialize()); err != nil {
		return p.persistFailed(lines, err), nil
	}
	return lines, nil
}

func parseDated(
	args, sep string,
	build func(string, time.Time) (*model.Task, error),
	emptyMsg, splitMsg string,
) (*model.Task, error) {
	if strings.TrimSpace(args) == "" {
		return nil, model.NewError(model.ErrEmptyDescription, emptyMsg)
	}
	description, rawDate, found := strings.Cut(args, sep)
	if !found || strings.TrimSpace(description) == "" || strings.TrimSpace(rawDate) == "" {
		return nil, model.NewError(model.ErrEmptyDescription, splitMsg)
	}
	at, err := model.ParseDateTime(rawDate)
	if err != nil {
		return nil, err
	}
	return build(description, at)
}

func parseIndex(raw string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, model.NewError(model.ErrInvalidIndex, "You didn't enter a valid index")
	}
	return index, nil
}

func (p *Parser) countLine() string {
	return fmt.Sprintf("Now you have %d tasks in the list.", p.tasks.Size())
}

// rewrite replaces the stored list after an in-place change.
func (p *Parser) rewrite(lines []string) []string {
	if err := p.store.RewriteAll(p.tasks.Lines()); err != nil {
		return p.persistFailed(lines, err)
	}
	return lines
}

// persistFailed keeps the in-memory change; memory and disk stay apart
// until the next successful write.
func (p *Parser) persistFailed(lines []string, err error) []string {
	p.logger.Error("failed to persist task list", zap.Int("tasks", p.tasks.Size()), zap.Error(err))
	return append(lines, msgPersistError)
}
