package domain

import (
	"strings"
	"time"
)

// Filter narrows a task collection. Zero-valued fields match everything.
type Filter struct {
	ProjectID string
	Owner     string
	Designer  string
	Status    Status
	Keyword   string
}

// IsZero reports whether the filter matches every task.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Matches reports whether t satisfies every set criterion. Status is
// evaluated against referenceDate.
func (f Filter) Matches(t Task, referenceDate time.Time) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.Owner != "" && !strings.EqualFold(t.LayoutOwner, f.Owner) {
		return false
	}
	if f.Designer != "" && !strings.EqualFold(t.Designer, f.Designer) {
		return false
	}
	if f.Status != "" && t.Status(referenceDate) != f.Status {
		return false
	}
	if kw := strings.ToLower(strings.TrimSpace(f.Keyword)); kw != "" {
		fields := []string{t.ProjectID, t.IPName, t.Designer, t.LayoutOwner, t.ReworkNote}
		hit := false
		for _, field := range fields {
			if strings.Contains(strings.ToLower(field), kw) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// Apply returns the matching tasks in input order.
func (f Filter) Apply(tasks []Task, referenceDate time.Time) []Task {
	if f.IsZero() {
		return tasks
	}
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t, referenceDate) {
			out = append(out, t)
		}
	}
	return out
}
