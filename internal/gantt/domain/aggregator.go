package domain

import (
	"time"

	layoutDomain "github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

// Cell is the state of one task in one bucket, used to draw row bars.
type Cell struct {
	DesignerActive     bool    `json:"designerActive"`
	LayoutLeaderActive bool    `json:"layoutLeaderActive"`
	LayoutOwnerRatio   float64 `json:"layoutOwnerRatio"`
	LayoutOwnerWeight  int     `json:"layoutOwnerWeight"`
}

// Row holds the cells of one task, aligned with the timeline buckets.
type Row struct {
	ProjectID string              `json:"projectId"`
	IPName    string              `json:"ipName"`
	Status    layoutDomain.Status `json:"status"`
	Cells     []Cell              `json:"cells"`
}

// BucketWorkload is the per-role total of one bucket.
type BucketWorkload struct {
	Bucket                 Bucket `json:"bucket"`
	DesignerCount          int    `json:"designerCount"`
	LayoutLeaderCount      int    `json:"layoutLeaderCount"`
	LayoutOwnerCount       int    `json:"layoutOwnerCount"`
	LayoutOwnerTotalWeight int    `json:"layoutOwnerTotalWeight"`
}

// Timeline is a fully computed Gantt view.
type Timeline struct {
	Mode          Mode             `json:"mode"`
	Start         time.Time        `json:"start"`
	ReferenceDate time.Time        `json:"referenceDate"`
	Buckets       []Bucket         `json:"buckets"`
	Totals        []BucketWorkload `json:"totals"`
	Rows          []Row            `json:"rows"`
}

// OwnerAllocation returns the layout owner's share of bucket b for task t:
// a ratio of 1 when a weight entry exists for the bucket's ISO week, and the
// weight as a rounded percentage.
func OwnerAllocation(t layoutDomain.Task, b Bucket) (float64, int, bool) {
	w, ok := t.CurrentWeight(b.Week())
	if !ok {
		return 0, 0, false
	}
	return 1, w.Percent(), true
}

// cellFor evaluates a single task against a single bucket. Closed tasks are
// never active.
func cellFor(t layoutDomain.Task, b Bucket, closed bool) Cell {
	var c Cell
	if closed {
		return c
	}
	if w, ok := t.DesignerWindow(); ok {
		c.DesignerActive = w.Overlaps(b.Date, b.End)
	}
	if w, ok := t.LayoutLeaderWindow(); ok {
		c.LayoutLeaderActive = w.Overlaps(b.Date, b.End)
	}
	if ratio, pct, ok := OwnerAllocation(t, b); ok {
		c.LayoutOwnerRatio = ratio
		c.LayoutOwnerWeight = pct
	}
	return c
}

// Aggregate computes per-bucket totals and per-task rows. Input tasks are not
// modified and output order follows input order.
func Aggregate(tasks []layoutDomain.Task, buckets []Bucket, referenceDate time.Time) ([]BucketWorkload, []Row) {
	totals := make([]BucketWorkload, len(buckets))
	for i, b := range buckets {
		totals[i].Bucket = b
	}

	rows := make([]Row, 0, len(tasks))
	for _, t := range tasks {
		status := t.Status(referenceDate)
		closed := status.IsTerminal()
		row := Row{
			ProjectID: t.ProjectID,
			IPName:    t.IPName,
			Status:    status,
			Cells:     make([]Cell, len(buckets)),
		}
		for i, b := range buckets {
			c := cellFor(t, b, closed)
			row.Cells[i] = c
			if c.DesignerActive {
				totals[i].DesignerCount++
			}
			if c.LayoutLeaderActive {
				totals[i].LayoutLeaderCount++
			}
			if c.LayoutOwnerWeight > 0 {
				totals[i].LayoutOwnerCount++
				totals[i].LayoutOwnerTotalWeight += c.LayoutOwnerWeight
			}
		}
		rows = append(rows, row)
	}
	return totals, rows
}

// BuildTimeline generates buckets for mode from start and aggregates tasks
// against them.
func BuildTimeline(tasks []layoutDomain.Task, mode Mode, start, referenceDate time.Time, policy Policy) (Timeline, error) {
	buckets, err := GenerateBuckets(mode, start, policy)
	if err != nil {
		return Timeline{}, err
	}
	totals, rows := Aggregate(tasks, buckets, referenceDate)
	return Timeline{
		Mode:          mode,
		Start:         layoutDomain.DateOf(start),
		ReferenceDate: layoutDomain.DateOf(referenceDate),
		Buckets:       buckets,
		Totals:        totals,
		Rows:          rows,
	}, nil
}
