package google

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/taskline/pkg/index"
	"github.com/harrisonrobin/taskline/pkg/model"
	"github.com/harrisonrobin/taskline/pkg/util"
)

// CalendarClient is a Google Calendar API client scoped to one calendar.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewCalendarClient creates a new Google Calendar client. API calls are
// paced by limiter; a nil limiter means no pacing.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex, limiter *rate.Limiter, logger *zap.Logger) *CalendarClient {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx, limiter: limiter, logger: logger}
}

func (c *CalendarClient) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("calendar rate limiter: %w", err)
	}
	return nil
}

// SyncEvent creates the event mirroring task or patches the existing one.
func (c *CalendarClient) SyncEvent(ctx context.Context, key string, task *model.Task, now time.Time) (*calendar.Event, error) {
	event, err := util.ConvertTaskToCalendarEvent(task, key, now)
	if err != nil {
		return nil, err
	}

	var existing *calendar.Event
	if c.index != nil {
		if eventID := c.index.Get(key); eventID != "" {
			if err := c.wait(ctx); err != nil {
				return nil, err
			}
			existing, err = c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err != nil || existing.Status == "cancelled" {
				existing = nil
			}
		}
	}
	if existing == nil {
		existing, err = c.GetEventByKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("error searching for event: %w", err)
		}
	}

	if existing != nil {
		patch, err := util.EventNeedsUpdate(existing, event)
		if err != nil {
			c.logger.Warn("could not compare task with its calendar event", zap.String("key", key), zap.Error(err))
			return nil, err
		}
		if patch == nil {
			c.remember(key, existing.Id)
			return existing, nil
		}
		updated, err := c.PatchEvent(ctx, existing.Id, patch)
		if err != nil {
			return nil, err
		}
		c.remember(key, updated.Id)
		return updated, nil
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}
	c.remember(key, created.Id)
	return created, nil
}

func (c *CalendarClient) remember(key, eventID string) {
	if c.index != nil {
		c.index.Set(key, eventID)
	}
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// DeleteEvent deletes an event from the calendar.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

// GetEventByKey finds the event tagged with the given task key, if any.
func (c *CalendarClient) GetEventByKey(ctx context.Context, key string) (*calendar.Event, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", util.KeyProperty, key)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}
