package domain

import (
	"fmt"
	"strings"
	"time"
)

// Key identifies a task. (ProjectID, IPName) is unique.
type Key struct {
	ProjectID string
	IPName    string
}

// String returns "project/ip".
func (k Key) String() string {
	return k.ProjectID + "/" + k.IPName
}

// reservedProjectIDs are path segments the API serves under /api/layouts/.
var reservedProjectIDs = []string{"gantt", "weight-history", "submit", "update-weight", "close"}

// ValidateProjectID rejects empty identifiers, reserved route names and
// identifiers containing a slash.
func ValidateProjectID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyProjectID
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("%w: %q contains '/'", ErrReservedProjectID, id)
	}
	for _, r := range reservedProjectIDs {
		if strings.EqualFold(id, r) {
			return fmt.Errorf("%w: %q", ErrReservedProjectID, id)
		}
	}
	return nil
}

// Validate checks that both halves of the key are present and the project
// identifier is usable.
func (k Key) Validate() error {
	if err := ValidateProjectID(k.ProjectID); err != nil {
		return err
	}
	if strings.TrimSpace(k.IPName) == "" {
		return ErrEmptyIPName
	}
	return nil
}

// Task is the scheduling record for one IP block of a project. It is a value
// type: derivations never mutate it, and helpers that change it return a copy.
type Task struct {
	ProjectID   string
	IPName      string
	Designer    string
	LayoutOwner string

	// Designer-owned schedule window.
	SchematicFreeze *time.Time
	LVSClean        *time.Time

	// Layout-leader-owned window, independent of the designer's.
	LayoutLeaderSchematicFreeze *time.Time
	LayoutLeaderLVSClean        *time.Time

	PlannedMandays int
	WeeklyWeights  []WeeklyWeight
	ReworkNote     string
	LayoutClosed   bool
	// Reopened marks a task that was closed and later opened again.
	Reopened  bool
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTask creates a task with a designer schedule window and no
// layout-leader window or weights.
func NewTask(projectID, ipName, designer string, schematicFreeze, lvsClean *time.Time) (Task, error) {
	key := Key{ProjectID: strings.TrimSpace(projectID), IPName: strings.TrimSpace(ipName)}
	if err := key.Validate(); err != nil {
		return Task{}, err
	}
	now := time.Now().UTC()
	t := Task{
		ProjectID:       key.ProjectID,
		IPName:          key.IPName,
		Designer:        strings.TrimSpace(designer),
		SchematicFreeze: schematicFreeze,
		LVSClean:        lvsClean,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	t.PlannedMandays = t.Mandays()
	return t, nil
}

// Key returns the task's identity.
func (t Task) Key() Key {
	return Key{ProjectID: t.ProjectID, IPName: t.IPName}
}

// Status derives the task status relative to referenceDate.
func (t Task) Status(referenceDate time.Time) Status {
	return CalculateStatus(t, referenceDate)
}

// LegacyStatus maps the derived status into the older four-state vocabulary.
func (t Task) LegacyStatus(referenceDate time.Time) (LegacyStatus, bool) {
	return ToLegacyStatus(t.Status(referenceDate), t.Reopened)
}

// SetClosed returns a copy with the closed flag set. Opening a closed task
// marks it as reopened.
func (t Task) SetClosed(closed bool, now time.Time) Task {
	c := t.Clone()
	if c.LayoutClosed && !closed {
		c.Reopened = true
	}
	c.LayoutClosed = closed
	c.UpdatedAt = now.UTC()
	return c
}

// Mandays returns the business-day span of the designer window, falling back
// to the stored PlannedMandays when either date is absent.
func (t Task) Mandays() int {
	if n, err := OptionalBusinessDays(t.SchematicFreeze, t.LVSClean); err == nil {
		return n
	}
	return t.PlannedMandays
}

// NeedsReview reports whether a rework note is pending.
func (t Task) NeedsReview() bool {
	return strings.TrimSpace(t.ReworkNote) != ""
}

// DesignerWindow returns [SchematicFreeze, LVSClean].
func (t Task) DesignerWindow() (Window, bool) {
	return NewWindow(t.SchematicFreeze, t.LVSClean)
}

// LayoutLeaderWindow returns [LayoutLeaderSchematicFreeze, LayoutLeaderLVSClean].
func (t Task) LayoutLeaderWindow() (Window, bool) {
	return NewWindow(t.LayoutLeaderSchematicFreeze, t.LayoutLeaderLVSClean)
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	c.SchematicFreeze = cloneDate(t.SchematicFreeze)
	c.LVSClean = cloneDate(t.LVSClean)
	c.LayoutLeaderSchematicFreeze = cloneDate(t.LayoutLeaderSchematicFreeze)
	c.LayoutLeaderLVSClean = cloneDate(t.LayoutLeaderLVSClean)
	if t.WeeklyWeights != nil {
		c.WeeklyWeights = append([]WeeklyWeight(nil), t.WeeklyWeights...)
	}
	return c
}

func cloneDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Window is an inclusive calendar-date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from two optional dates. Missing bounds and
// inverted ranges produce no window.
func NewWindow(start, end *time.Time) (Window, bool) {
	if start == nil || end == nil {
		return Window{}, false
	}
	s, e := DateOf(*start), DateOf(*end)
	if e.Before(s) {
		return Window{}, false
	}
	return Window{Start: s, End: e}, true
}

// Overlaps reports whether the window intersects [start, end], inclusive on both ends.
func (w Window) Overlaps(start, end time.Time) bool {
	return !w.Start.After(DateOf(end)) && !w.End.Before(DateOf(start))
}
