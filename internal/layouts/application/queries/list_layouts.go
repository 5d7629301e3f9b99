package queries

import (
	"context"
	"strings"
	"time"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	sharedApplication "github.com/felixgeelhaar/layoutrack/internal/shared/application"
)

// ListLayoutsQuery contains the parameters for listing layouts.
type ListLayoutsQuery struct {
	Filter        domain.Filter
	ReferenceDate time.Time // zero means today
}

// QueryName implements application.Query.
func (ListLayoutsQuery) QueryName() string { return "layouts.list" }

// ListLayoutsHandler handles the ListLayoutsQuery.
type ListLayoutsHandler struct {
	repo domain.Repository
	now  func() time.Time
}

var _ sharedApplication.QueryHandler[ListLayoutsQuery, []LayoutDTO] = (*ListLayoutsHandler)(nil)

// NewListLayoutsHandler creates a new ListLayoutsHandler.
func NewListLayoutsHandler(repo domain.Repository) *ListLayoutsHandler {
	return &ListLayoutsHandler{repo: repo, now: time.Now}
}

// Handle executes the ListLayoutsQuery.
func (h *ListLayoutsHandler) Handle(ctx context.Context, query ListLayoutsQuery) ([]LayoutDTO, error) {
	ref := referenceOrNow(query.ReferenceDate, h.now)
	tasks, err := loadTasks(ctx, h.repo, query.Filter.ProjectID)
	if err != nil {
		return nil, err
	}
	return toLayoutDTOs(query.Filter.Apply(tasks, ref), ref), nil
}

func loadTasks(ctx context.Context, repo domain.Repository, projectID string) ([]domain.Task, error) {
	if p := strings.TrimSpace(projectID); p != "" {
		return repo.FindByProject(ctx, p)
	}
	return repo.FindAll(ctx)
}

// GetProjectLayoutsQuery loads all layouts of one project.
type GetProjectLayoutsQuery struct {
	ProjectID     string
	ReferenceDate time.Time
}

// QueryName implements application.Query.
func (GetProjectLayoutsQuery) QueryName() string { return "layouts.get_project" }

// GetProjectLayoutsHandler handles the GetProjectLayoutsQuery.
type GetProjectLayoutsHandler struct {
	repo domain.Repository
	now  func() time.Time
}

var _ sharedApplication.QueryHandler[GetProjectLayoutsQuery, []LayoutDTO] = (*GetProjectLayoutsHandler)(nil)

// NewGetProjectLayoutsHandler creates a new GetProjectLayoutsHandler.
func NewGetProjectLayoutsHandler(repo domain.Repository) *GetProjectLayoutsHandler {
	return &GetProjectLayoutsHandler{repo: repo, now: time.Now}
}

// Handle returns ErrLayoutNotFound when the project has no layouts.
func (h *GetProjectLayoutsHandler) Handle(ctx context.Context, query GetProjectLayoutsQuery) ([]LayoutDTO, error) {
	projectID := strings.TrimSpace(query.ProjectID)
	if projectID == "" {
		return nil, domain.ErrEmptyProjectID
	}
	tasks, err := h.repo.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, domain.ErrLayoutNotFound
	}
	return toLayoutDTOs(tasks, referenceOrNow(query.ReferenceDate, h.now)), nil
}
