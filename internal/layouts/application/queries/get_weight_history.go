package queries

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	sharedApplication "github.com/felixgeelhaar/layoutrack/internal/shared/application"
)

// GetWeightHistoryQuery lists the weight entries of one task.
type GetWeightHistoryQuery struct {
	ProjectID string
	IPName    string
	Week      string // optional YYYY-Www
}

// QueryName implements application.Query.
func (GetWeightHistoryQuery) QueryName() string { return "layouts.weight_history" }

// WeightHistoryResult is the history plus the active entry of the requested week.
type WeightHistoryResult struct {
	ProjectID string      `json:"projectId"`
	IPName    string      `json:"ipName"`
	Week      string      `json:"week,omitempty"`
	Current   *WeightDTO  `json:"current,omitempty"`
	History   []WeightDTO `json:"history"`
}

// GetWeightHistoryHandler handles the GetWeightHistoryQuery.
type GetWeightHistoryHandler struct {
	repo domain.Repository
}

var _ sharedApplication.QueryHandler[GetWeightHistoryQuery, WeightHistoryResult] = (*GetWeightHistoryHandler)(nil)

// NewGetWeightHistoryHandler creates a new GetWeightHistoryHandler.
func NewGetWeightHistoryHandler(repo domain.Repository) *GetWeightHistoryHandler {
	return &GetWeightHistoryHandler{repo: repo}
}

// Handle executes the GetWeightHistoryQuery.
func (h *GetWeightHistoryHandler) Handle(ctx context.Context, query GetWeightHistoryQuery) (WeightHistoryResult, error) {
	key := domain.Key{ProjectID: strings.TrimSpace(query.ProjectID), IPName: strings.TrimSpace(query.IPName)}
	if err := key.Validate(); err != nil {
		return WeightHistoryResult{}, err
	}

	var (
		week    domain.ISOWeek
		hasWeek bool
	)
	if strings.TrimSpace(query.Week) != "" {
		w, err := domain.ParseISOWeek(query.Week)
		if err != nil {
			return WeightHistoryResult{}, err
		}
		week, hasWeek = w, true
	}

	task, err := h.repo.FindByKey(ctx, key)
	if err != nil {
		return WeightHistoryResult{}, err
	}

	res := WeightHistoryResult{ProjectID: key.ProjectID, IPName: key.IPName, History: []WeightDTO{}}
	var entries []domain.WeeklyWeight
	if hasWeek {
		res.Week = week.String()
		entries = domain.WeightHistory(task.WeeklyWeights, week)
		if cur, ok := task.CurrentWeight(week); ok {
			dto := ToWeightDTO(cur)
			res.Current = &dto
		}
	} else {
		entries = append(entries, task.WeeklyWeights...)
		domain.SortWeights(entries)
	}
	for _, w := range entries {
		res.History = append(res.History, ToWeightDTO(w))
	}
	return res, nil
}
