package util

import (
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskline/pkg/model"
)

const (
	// KeyProperty is the private extended property linking an event to its task.
	KeyProperty = "taskline_key"

	defaultDuration = 30 * time.Minute

	colorDeadline = "11" // Tomato
	colorEvent    = "7"  // Peacock
	colorDone     = "8"  // Graphite
)

// ConvertTaskToCalendarEvent builds the calendar event mirroring a dated task.
// Pending tasks dated before now are flagged with a "! " prefix.
func ConvertTaskToCalendarEvent(task *model.Task, key string, now time.Time) (*calendar.Event, error) {
	if task == nil {
		return nil, fmt.Errorf("could not convert nil Task")
	}
	if !task.Dated() {
		return nil, fmt.Errorf("task has no date: %s", task.Render())
	}

	summary := task.Description
	colorID := colorEvent
	if task.Kind == model.DEADLINE {
		summary = "Due: " + task.Description
		colorID = colorDeadline
	}
	switch {
	case task.Done:
		summary = "✓ " + summary
		colorID = colorDone
	case task.At.Before(now):
		summary = "! " + summary
	}

	start := task.At
	end := start.Add(defaultDuration)

	return &calendar.Event{
		Summary:     summary,
		Description: task.Render(),
		ColorId:     colorID,
		Start: &calendar.EventDateTime{
			DateTime: start.UTC().Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: end.UTC().Format(time.RFC3339),
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{
				KeyProperty: key,
			},
		},
	}, nil
}

// EventNeedsUpdate returns a patch holding the fields of target that differ
// from existing, or nil if they already agree.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	if existing.Start == nil || existing.End == nil {
		patch.Start, patch.End = target.Start, target.End
		return patch, nil
	}
	existingStart, err := time.Parse(time.RFC3339, existing.Start.DateTime)
	if err != nil {
		return nil, err
	}
	targetStart, err := time.Parse(time.RFC3339, target.Start.DateTime)
	if err != nil {
		return nil, err
	}
	existingEnd, err := time.Parse(time.RFC3339, existing.End.DateTime)
	if err != nil {
		return nil, err
	}
	targetEnd, err := time.Parse(time.RFC3339, target.End.DateTime)
	if err != nil {
		return nil, err
	}
	if !existingStart.Equal(targetStart) || !existingEnd.Equal(targetEnd) {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}
