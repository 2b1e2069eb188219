package google

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/taskline/pkg/auth"
	"github.com/harrisonrobin/taskline/pkg/index"
)

// Calendar API quota is per user per minute; stay well under it.
const (
	callsPerSecond = 5
	callBurst      = 5
)

// NewClient authenticates and returns a client for the calendar named calendarName.
func NewClient(ctx context.Context, configDir, calendarName string, idx *index.EventIndex, logger *zap.Logger) (*CalendarClient, error) {
	httpClient, err := auth.GetClient(ctx, configDir, auth.Scopes, logger)
	if err != nil {
		return nil, err
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}

	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	var calendarID string
	for _, item := range calendarList.Items {
		if item.Summary == calendarName {
			calendarID = item.Id
			break
		}
	}
	if calendarID == "" {
		return nil, fmt.Errorf("calendar '%s' not found", calendarName)
	}

	limiter := rate.NewLimiter(rate.Every(time.Second/callsPerSecond), callBurst)
	return NewCalendarClient(srv, calendarID, idx, limiter, logger), nil
}
