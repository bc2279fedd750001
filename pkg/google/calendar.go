package google

import (
	"context"
	"fmt"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"meet-recording-sync/artifact"
)

const defaultCalendarId = "primary"

type Calendar struct {
	service    *calendar.Service
	calendarId string
}

func NewCalendar(ctx context.Context, calendarId string, opts ...option.ClientOption) (*Calendar, error) {
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar client: %w", err)
	}
	if calendarId == "" {
		calendarId = defaultCalendarId
	}
	return &Calendar{service: service, calendarId: calendarId}, nil
}

func (c *Calendar) GetEvent(ctx context.Context, eventId string) (*artifact.Event, error) {
	event, err := c.service.Events.Get(c.calendarId, eventId).
		Fields(googleapi.Field("id,summary")).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("calendar.get_event", err)
	}
	return &artifact.Event{ID: event.Id, Title: event.Summary}, nil
}
