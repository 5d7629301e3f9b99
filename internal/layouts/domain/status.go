package domain

import (
	"strings"
	"time"
)

// Status is the derived state of a task. It is recomputed on every read.
type Status string

const (
	// StatusClosed indicates the layout was explicitly closed.
	StatusClosed Status = "Closed"
	// StatusUnassigned indicates no designer is assigned.
	StatusUnassigned Status = "Unassigned"
	// StatusWaitingForFreeze indicates the schematic freeze is missing or still ahead.
	StatusWaitingForFreeze Status = "Waiting for Freeze"
	// StatusInProgress indicates the task is inside its designer window.
	StatusInProgress Status = "In Progress"
	// StatusPostim indicates the LVS-clean date has passed without closure.
	StatusPostim Status = "Postim"
)

// AllStatuses lists the statuses in precedence order.
var AllStatuses = []Status{
	StatusClosed,
	StatusUnassigned,
	StatusWaitingForFreeze,
	StatusInProgress,
	StatusPostim,
}

// String returns the display label.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the status is a known value.
func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsTerminal returns true for the closed state.
func (s Status) IsTerminal() bool {
	return s == StatusClosed
}

// ParseStatus parses a status label case-insensitively.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	for _, v := range AllStatuses {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", ErrInvalidStatus
}

// CalculateStatus maps a task to exactly one status. Rules are evaluated in
// order and the first match wins. Dates are compared as calendar days
// against referenceDate.
func CalculateStatus(t Task, referenceDate time.Time) Status {
	if t.LayoutClosed {
		return StatusClosed
	}
	if strings.TrimSpace(t.Designer) == "" {
		return StatusUnassigned
	}
	if t.SchematicFreeze == nil {
		return StatusWaitingForFreeze
	}

	today := DateOf(referenceDate)
	if DateOf(*t.SchematicFreeze).After(today) {
		return StatusWaitingForFreeze
	}
	if t.LVSClean != nil && DateOf(*t.LVSClean).Before(today) {
		return StatusPostim
	}
	return StatusInProgress
}

// LegacyStatus is the boolean-driven vocabulary used by older clients.
type LegacyStatus string

const (
	LegacyCompleted LegacyStatus = "Completed"
	LegacyReopened  LegacyStatus = "Reopened"
	LegacyOverdue   LegacyStatus = "Overdue"
	LegacyAssigned  LegacyStatus = "Assigned"
)

// ToLegacyStatus translates a derived status into the legacy vocabulary.
// reopened marks a task that was closed once and opened again. Unassigned
// tasks have no legacy equivalent and report false.
func ToLegacyStatus(s Status, reopened bool) (LegacyStatus, bool) {
	switch s {
	case StatusClosed:
		return LegacyCompleted, true
	case StatusUnassigned:
		return "", false
	}
	if reopened {
		return LegacyReopened, true
	}
	if s == StatusPostim {
		return LegacyOverdue, true
	}
	return LegacyAssigned, true
}
