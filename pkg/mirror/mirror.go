package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskline/pkg/index"
	"github.com/harrisonrobin/taskline/pkg/model"
	"github.com/harrisonrobin/taskline/pkg/overdue"
)

var keyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/harrisonrobin/taskline"))

// Calendar is the part of the Google Calendar client a mirror run needs.
type Calendar interface {
	SyncEvent(ctx context.Context, key string, task *model.Task, now time.Time) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Report summarizes one mirror run.
type Report struct {
	Synced  int
	Deleted int
	Failed  int
	// Overdue holds pending tasks whose date passed since the previous run.
	Overdue []overdue.Entry
}

type Mirror struct {
	cal    Calendar
	index  *index.EventIndex
	table  *overdue.Table
	logger *zap.Logger
}

func New(cal Calendar, idx *index.EventIndex, table *overdue.Table, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{cal: cal, index: idx, table: table, logger: logger}
}

// Keys derives a stable key per task from its kind and description, so a
// task keeps its key when it is snoozed, marked done or moved in the list.
// Repeated kind+description pairs are told apart by occurrence.
func Keys(tasks []*model.Task) []string {
	seen := make(map[string]int)
	keys := make([]string, len(tasks))
	for i, task := range tasks {
		name := string(task.Kind) + "|" + task.Description
		seen[name]++
		keys[i] = uuid.NewSHA1(keyNamespace, []byte(fmt.Sprintf("%s|%d", name, seen[name]))).String()
	}
	return keys
}

// Run pushes every dated task to the calendar, deletes events of tasks that
// no longer exist and reports tasks that became overdue since the last run.
// Individual calendar failures are logged and counted, not returned.
func (m *Mirror) Run(ctx context.Context, tasks []*model.Task, now time.Time) (Report, error) {
	var report Report
	keys := Keys(tasks)
	live := make(map[string]bool, len(keys))

	for i, task := range tasks {
		if !task.Dated() {
			continue
		}
		key := keys[i]
		live[key] = true

		if err := ctx.Err(); err != nil {
			return report, err
		}
		event, err := m.cal.SyncEvent(ctx, key, task, now)
		if err != nil {
			m.logger.Warn("failed to sync task", zap.String("task", task.Render()), zap.Error(err))
			report.Failed++
			continue
		}
		report.Synced++

		switch {
		case task.Done:
			m.table.Remove(key)
		case task.At.After(now):
			m.table.Update(key, event.Id, event.Summary, task.At)
		}
	}

	for _, key := range m.index.Keys() {
		if live[key] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := m.cal.DeleteEvent(ctx, m.index.Get(key)); err != nil {
			m.logger.Warn("failed to delete event of removed task", zap.String("key", key), zap.Error(err))
			report.Failed++
			continue
		}
		m.index.Remove(key)
		m.table.Remove(key)
		report.Deleted++
	}

	report.Overdue = m.table.Sweep(now)

	if err := m.index.Save(); err != nil {
		return report, fmt.Errorf("failed to save event index: %w", err)
	}
	if err := m.table.Save(); err != nil {
		return report, fmt.Errorf("failed to save overdue table: %w", err)
	}
	return report, nil
}
