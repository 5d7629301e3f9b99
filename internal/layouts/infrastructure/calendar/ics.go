// Package calendar exports layout schedule windows as iCalendar data, either
// as a plain ICS feed or pushed to a CalDAV collection.
package calendar

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

const productID = "-//layoutrack//Layout Schedule//EN"

// PropXLayoutrack marks events written by this package.
const PropXLayoutrack = "X-LAYOUTRACK"

// WindowKind names the schedule window an event was built from.
type WindowKind string

const (
	WindowDesigner     WindowKind = "designer"
	WindowLayoutLeader WindowKind = "layout_leader"
)

// ScheduleEvent is one all-day calendar entry spanning a schedule window.
type ScheduleEvent struct {
	UID         string
	Key         domain.Key
	Kind        WindowKind
	Summary     string
	Description string
	// Start and End are inclusive calendar dates.
	Start time.Time
	End   time.Time
}

// EventsFor converts tasks into schedule events. Each task yields up to two
// events, one per valid window. Closed tasks are skipped.
func EventsFor(tasks []domain.Task) []ScheduleEvent {
	var events []ScheduleEvent
	for _, t := range tasks {
		if t.LayoutClosed {
			continue
		}
		if w, ok := t.DesignerWindow(); ok {
			events = append(events, newScheduleEvent(t, WindowDesigner, w, t.Designer))
		}
		if w, ok := t.LayoutLeaderWindow(); ok {
			events = append(events, newScheduleEvent(t, WindowLayoutLeader, w, t.LayoutOwner))
		}
	}
	return events
}

func newScheduleEvent(t domain.Task, kind WindowKind, w domain.Window, who string) ScheduleEvent {
	summary := fmt.Sprintf("%s %s", t.IPName, kind)
	if who != "" {
		summary += " (" + who + ")"
	}
	desc := fmt.Sprintf("Project: %s\nIP: %s\nMandays: %d", t.ProjectID, t.IPName, t.Mandays())
	if t.NeedsReview() {
		desc += "\nRework: " + t.ReworkNote
	}
	return ScheduleEvent{
		UID:         fmt.Sprintf("%s/%s/%s@layoutrack", t.ProjectID, t.IPName, kind),
		Key:         t.Key(),
		Kind:        kind,
		Summary:     summary,
		Description: desc,
		Start:       w.Start,
		End:         w.End,
	}
}

// toICalendar wraps a single event in a calendar object.
func toICalendar(e ScheduleEvent, now time.Time) *ical.Calendar {
	cal := newCalendar()
	cal.Children = append(cal.Children, toEvent(e, now).Component)
	return cal
}

// BuildCalendar returns a calendar holding every event.
func BuildCalendar(events []ScheduleEvent, now time.Time) *ical.Calendar {
	cal := newCalendar()
	for _, e := range events {
		cal.Children = append(cal.Children, toEvent(e, now).Component)
	}
	return cal
}

// WriteICS encodes events as an ICS document.
func WriteICS(w io.Writer, events []ScheduleEvent, now time.Time) error {
	if err := ical.NewEncoder(w).Encode(BuildCalendar(events, now)); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	return cal
}

func toEvent(e ScheduleEvent, now time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, e.UID)
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	// All-day events: DTEND is exclusive.
	event.Props.SetDate(ical.PropDateTimeStart, e.Start)
	event.Props.SetDate(ical.PropDateTimeEnd, domain.AddDays(e.End, 1))
	event.Props.SetText(ical.PropSummary, e.Summary)
	event.Props.SetText(ical.PropDescription, e.Description)
	event.Props.SetText(ical.PropCategories, string(e.Kind))

	marker := ical.NewProp(PropXLayoutrack)
	marker.Value = "1"
	event.Props[PropXLayoutrack] = []ical.Prop{*marker}
	return event
}
