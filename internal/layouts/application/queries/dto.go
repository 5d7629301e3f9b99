package queries

import (
	"time"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

// WeightDTO is a data transfer object for weekly weights.
type WeightDTO struct {
	Week      string    `json:"week"`
	Value     float64   `json:"value"`
	Percent   int       `json:"percent"`
	Version   int       `json:"version"`
	Role      string    `json:"role,omitempty"`
	UpdatedBy string    `json:"updatedBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LayoutDTO is a data transfer object for layout tasks. Status fields are
// derived against the query's reference date.
type LayoutDTO struct {
	ProjectID                   string      `json:"projectId"`
	IPName                      string      `json:"ipName"`
	Designer                    string      `json:"designer"`
	LayoutOwner                 string      `json:"layoutOwner"`
	SchematicFreeze             string      `json:"schematicFreeze"`
	LVSClean                    string      `json:"lvsClean"`
	LayoutLeaderSchematicFreeze string      `json:"layoutLeaderSchematicFreeze"`
	LayoutLeaderLVSClean        string      `json:"layoutLeaderLvsClean"`
	PlannedMandays              int         `json:"plannedMandays"`
	Mandays                     int         `json:"mandays"`
	ReworkNote                  string      `json:"reworkNote"`
	NeedsReview                 bool        `json:"needsReview"`
	LayoutClosed                bool        `json:"layoutClosed"`
	Reopened                    bool        `json:"reopened"`
	Status                      string      `json:"status"`
	LegacyStatus                string      `json:"legacyStatus,omitempty"`
	CurrentWeek                 string      `json:"currentWeek"`
	CurrentWeight               *WeightDTO  `json:"currentWeight,omitempty"`
	WeeklyWeights               []WeightDTO `json:"weeklyWeights"`
	Version                     int         `json:"version"`
	UpdatedAt                   time.Time   `json:"updatedAt"`
}

// ToWeightDTO converts a weight entry.
func ToWeightDTO(w domain.WeeklyWeight) WeightDTO {
	return WeightDTO{
		Week:      w.Week,
		Value:     w.Value,
		Percent:   w.Percent(),
		Version:   w.Version,
		Role:      w.Role,
		UpdatedBy: w.UpdatedBy,
		UpdatedAt: w.UpdatedAt,
	}
}

// ToLayoutDTO converts a task, deriving status relative to referenceDate.
func ToLayoutDTO(t domain.Task, referenceDate time.Time) LayoutDTO {
	week := domain.ISOWeekOf(referenceDate)
	dto := LayoutDTO{
		ProjectID:                   t.ProjectID,
		IPName:                      t.IPName,
		Designer:                    t.Designer,
		LayoutOwner:                 t.LayoutOwner,
		SchematicFreeze:             domain.FormatDate(t.SchematicFreeze),
		LVSClean:                    domain.FormatDate(t.LVSClean),
		LayoutLeaderSchematicFreeze: domain.FormatDate(t.LayoutLeaderSchematicFreeze),
		LayoutLeaderLVSClean:        domain.FormatDate(t.LayoutLeaderLVSClean),
		PlannedMandays:              t.PlannedMandays,
		Mandays:                     t.Mandays(),
		ReworkNote:                  t.ReworkNote,
		NeedsReview:                 t.NeedsReview(),
		LayoutClosed:                t.LayoutClosed,
		Reopened:                    t.Reopened,
		Status:                      t.Status(referenceDate).String(),
		CurrentWeek:                 week.String(),
		WeeklyWeights:               make([]WeightDTO, 0, len(t.WeeklyWeights)),
		Version:                     t.Version,
		UpdatedAt:                   t.UpdatedAt,
	}
	if legacy, ok := t.LegacyStatus(referenceDate); ok {
		dto.LegacyStatus = string(legacy)
	}
	if w, ok := t.CurrentWeight(week); ok {
		cw := ToWeightDTO(w)
		dto.CurrentWeight = &cw
	}
	for _, w := range t.WeeklyWeights {
		dto.WeeklyWeights = append(dto.WeeklyWeights, ToWeightDTO(w))
	}
	return dto
}

func toLayoutDTOs(tasks []domain.Task, referenceDate time.Time) []LayoutDTO {
	out := make([]LayoutDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToLayoutDTO(t, referenceDate))
	}
	return out
}

func referenceOrNow(ref time.Time, now func() time.Time) time.Time {
	if ref.IsZero() {
		return domain.DateOf(now())
	}
	return domain.DateOf(ref)
}
