package persistence

import (
	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
)

const layoutColumns = `project_id, ip_name, designer, layout_owner,
	schematic_freeze, lvs_clean, layout_leader_schematic_freeze, layout_leader_lvs_clean,
	planned_mandays, rework_note, layout_closed, reopened, version, created_at, updated_at`

const weightColumns = `project_id, ip_name, week, value, version, role, updated_by, updated_at`

// weightRow is a weight entry with the key it belongs to.
type weightRow struct {
	key    domain.Key
	weight domain.WeeklyWeight
}

// attachWeights distributes weight rows onto tasks by key, keeping the row
// order of the query.
func attachWeights(tasks []domain.Task, rows []weightRow) []domain.Task {
	index := make(map[domain.Key]int, len(tasks))
	for i, t := range tasks {
		index[t.Key()] = i
	}
	for _, r := range rows {
		if i, ok := index[r.key]; ok {
			tasks[i].WeeklyWeights = append(tasks[i].WeeklyWeights, r.weight)
		}
	}
	return tasks
}
