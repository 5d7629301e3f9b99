package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

// PublishResult counts the outcome of a CalDAV publish.
type PublishResult struct {
	Created int
	Updated int
	Deleted int
	Failed  int
}

// CalDAVPublisher pushes schedule events into a CalDAV calendar.
type CalDAVPublisher struct {
	baseURL       string
	username      string
	password      string
	calendarPath  string
	deleteMissing bool
	logger        *slog.Logger
	now           func() time.Time
}

// NewCalDAVPublisher creates a CalDAV publisher.
func NewCalDAVPublisher(baseURL, username, password string, logger *slog.Logger) *CalDAVPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CalDAVPublisher{
		baseURL:  baseURL,
		username: username,
		password: password,
		logger:   logger,
		now:      time.Now,
	}
}

// WithCalendarPath sets the calendar collection to write to. Without it the
// first calendar of the user's home set is used.
func (p *CalDAVPublisher) WithCalendarPath(path string) *CalDAVPublisher {
	p.calendarPath = path
	return p
}

// WithDeleteMissing removes previously published events absent from the
// current set.
func (p *CalDAVPublisher) WithDeleteMissing(enabled bool) *CalDAVPublisher {
	p.deleteMissing = enabled
	return p
}

// Publish upserts every event. Per-event failures are counted, not returned.
func (p *CalDAVPublisher) Publish(ctx context.Context, events []ScheduleEvent) (PublishResult, error) {
	var result PublishResult

	client, err := p.client()
	if err != nil {
		return result, err
	}
	calPath, err := p.findCalendarPath(ctx, client)
	if err != nil {
		return result, fmt.Errorf("find calendar: %w", err)
	}

	keep := make(map[string]struct{}, len(events))
	now := p.now()
	for _, e := range events {
		objPath := ObjectPath(calPath, e)
		keep[objPath] = struct{}{}

		_, getErr := client.GetCalendarObject(ctx, objPath)
		if _, err := client.PutCalendarObject(ctx, objPath, toICalendar(e, now)); err != nil {
			p.logger.Warn("caldav publish failed", "path", objPath, "error", err)
			result.Failed++
			continue
		}
		if getErr == nil {
			result.Updated++
		} else {
			result.Created++
		}
	}

	if p.deleteMissing {
		deleted, err := p.deleteMissingEvents(ctx, client, calPath, keep)
		if err != nil {
			p.logger.Warn("caldav delete missing failed", "error", err)
		}
		result.Deleted = deleted
	}

	p.logger.Info("caldav publish finished",
		"calendar", calPath,
		"created", result.Created,
		"updated", result.Updated,
		"deleted", result.Deleted,
		"failed", result.Failed,
	)
	return result, nil
}

// ObjectPath returns the resource path of an event inside calPath.
func ObjectPath(calPath string, e ScheduleEvent) string {
	name := fmt.Sprintf("%s-%s-%s.ics", e.Key.ProjectID, e.Key.IPName, e.Kind)
	return calPath + url.PathEscape(name)
}

func (p *CalDAVPublisher) client() (*caldav.Client, error) {
	httpClient := webdav.HTTPClientWithBasicAuth(&http.Client{Timeout: 30 * time.Second}, p.username, p.password)
	client, err := caldav.NewClient(httpClient, p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("create caldav client: %w", err)
	}
	return client, nil
}

func (p *CalDAVPublisher) findCalendarPath(ctx context.Context, client *caldav.Client) (string, error) {
	if p.calendarPath != "" {
		return p.calendarPath, nil
	}
	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("find principal: %w", err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("find calendar home set: %w", err)
	}
	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("find calendars: %w", err)
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars found")
	}
	return cals[0].Path, nil
}

func (p *CalDAVPublisher) deleteMissingEvents(ctx context.Context, client *caldav.Client, calPath string, keep map[string]struct{}) (int, error) {
	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: "VCALENDAR",
			Comps: []caldav.CalendarCompRequest{
				{Name: "VEVENT", Props: []string{ical.PropUID, PropXLayoutrack}},
			},
		},
		CompFilter: caldav.CompFilter{
			Name:  "VCALENDAR",
			Comps: []caldav.CompFilter{{Name: "VEVENT"}},
		},
	}
	objects, err := client.QueryCalendar(ctx, calPath, query)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, obj := range objects {
		if !isManaged(obj.Data) {
			continue
		}
		if _, ok := keep[obj.Path]; ok {
			continue
		}
		if err := client.RemoveAll(ctx, obj.Path); err != nil {
			p.logger.Warn("failed to delete caldav event", "path", obj.Path, "error", err)
			continue
		}
		deleted++
	}
	return deleted, nil
}

// isManaged reports whether cal contains an event carrying the marker property.
func isManaged(cal *ical.Calendar) bool {
	if cal == nil {
		return false
	}
	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		if props := child.Props[PropXLayoutrack]; len(props) > 0 && props[0].Value == "1" {
			return true
		}
	}
	return false
}
