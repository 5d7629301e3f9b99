package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/commands"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/application/queries"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/infrastructure/calendar"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// LayoutHandler handles layout API requests.
type LayoutHandler struct {
	submit       *commands.SubmitLayoutsHandler
	updateWeight *commands.UpdateWeightHandler
	setClosed    *commands.SetLayoutClosedHandler
	list         *queries.ListLayoutsHandler
	project      *queries.GetProjectLayoutsHandler
	history      *queries.GetWeightHistoryHandler
	gantt        *queries.GetGanttHandler
	layoutRepo   domain.Repository
	logger       *slog.Logger
	now          func() time.Time
}

// LayoutHandlerConfig holds dependencies for the layout handler.
type LayoutHandlerConfig struct {
	SubmitLayouts     *commands.SubmitLayoutsHandler
	UpdateWeight      *commands.UpdateWeightHandler
	SetLayoutClosed   *commands.SetLayoutClosedHandler
	ListLayouts       *queries.ListLayoutsHandler
	GetProjectLayouts *queries.GetProjectLayoutsHandler
	GetWeightHistory  *queries.GetWeightHistoryHandler
	GetGantt          *queries.GetGanttHandler
	LayoutRepo        domain.Repository
	Logger            *slog.Logger
}

// NewLayoutHandler creates a new layout handler.
func NewLayoutHandler(cfg LayoutHandlerConfig) *LayoutHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &LayoutHandler{
		submit:       cfg.SubmitLayouts,
		updateWeight: cfg.UpdateWeight,
		setClosed:    cfg.SetLayoutClosed,
		list:         cfg.ListLayouts,
		project:      cfg.GetProjectLayouts,
		history:      cfg.GetWeightHistory,
		gantt:        cfg.GetGantt,
		layoutRepo:   cfg.LayoutRepo,
		logger:       cfg.Logger,
		now:          time.Now,
	}
}

// ListLayouts handles GET /api/layouts
func (h *LayoutHandler) ListLayouts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeAppError(w, r, h.logger, "list", err)
		return
	}
	ref, err := parseDateParam(r, "date")
	if err != nil {
		writeAppError(w, r, h.logger, "list", err)
		return
	}

	result, err := h.list.Handle(r.Context(), queries.ListLayoutsQuery{Filter: filter, ReferenceDate: ref})
	if err != nil {
		writeAppError(w, r, h.logger, "list", err)
		return
	}
	writeSuccess(w, r, http.StatusOK, Envelope{Data: result})
}

// GetProjectLayouts handles GET /api/layouts/{projectID}
func (h *LayoutHandler) GetProjectLayouts(w http.ResponseWriter, r *http.Request) {
	ref, err := parseDateParam(r, "date")
	if err != nil {
		writeAppError(w, r, h.logger, "get_project", err)
		return
	}
	result, err := h.project.Handle(r.Context(), queries.GetProjectLayoutsQuery{
		ProjectID:     r.PathValue("projectID"),
		ReferenceDate: ref,
	})
	if err != nil {
		writeAppError(w, r, h.logger, "get_project", err)
		return
	}
	writeSuccess(w, r, http.StatusOK, Envelope{Data: result})
}

// submitRequest is the body of POST /api/layouts/submit.
type submitRequest struct {
	ProjectID   string      `json:"projectId"`
	SubmittedBy string      `json:"submittedBy"`
	Rows        []submitRow `json:"rows"`
}

type submitRow struct {
	IPName                      string `json:"ipName"`
	Designer                    string `json:"designer"`
	LayoutOwner                 string `json:"layoutOwner"`
	SchematicFreeze             string `json:"schematicFreeze"`
	LVSClean                    string `json:"lvsClean"`
	LayoutLeaderSchematicFreeze string `json:"layoutLeaderSchematicFreeze"`
	LayoutLeaderLVSClean        string `json:"layoutLeaderLvsClean"`
	PlannedMandays              *int   `json:"plannedMandays"`
	ReworkNote                  string `json:"reworkNote"`
	LayoutClosed                *bool  `json:"layoutClosed"`
}

// SubmitLayouts handles POST /api/layouts/submit. Rejected rows are listed
// in errors while valid rows are saved.
func (h *LayoutHandler) SubmitLayouts(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, "submit", err)
		return
	}

	cmd := commands.SubmitLayoutsCommand{ProjectID: req.ProjectID, SubmittedBy: req.SubmittedBy}
	for _, row := range req.Rows {
		cmd.Rows = append(cmd.Rows, commands.LayoutRow{
			IPName:                      row.IPName,
			Designer:                    row.Designer,
			LayoutOwner:                 row.LayoutOwner,
			SchematicFreeze:             row.SchematicFreeze,
			LVSClean:                    row.LVSClean,
			LayoutLeaderSchematicFreeze: row.LayoutLeaderSchematicFreeze,
			LayoutLeaderLVSClean:        row.LayoutLeaderLVSClean,
			PlannedMandays:              row.PlannedMandays,
			ReworkNote:                  row.ReworkNote,
			LayoutClosed:                row.LayoutClosed,
		})
	}

	result, err := h.submit.Handle(r.Context(), cmd)
	if err != nil {
		writeAppError(w, r, h.logger, "submit", err)
		return
	}
	if len(result.Saved) == 0 && len(result.Errors) > 0 {
		writeError(w, r, http.StatusBadRequest, "No rows were saved", result.Errors)
		return
	}

	updated, err := h.project.Handle(r.Context(), queries.GetProjectLayoutsQuery{ProjectID: result.ProjectID})
	if err != nil && !errors.Is(err, domain.ErrLayoutNotFound) {
		writeAppError(w, r, h.logger, "submit", err)
		return
	}
	env := Envelope{
		UpdatedProjectData: updated,
		Message:            fmt.Sprintf("%d saved, %d rejected", len(result.Saved), len(result.Errors)),
	}
	if len(result.Errors) > 0 {
		env.Errors = result.Errors
	}
	writeSuccess(w, r, http.StatusOK, env)
}

// updateWeightRequest is the body of POST /api/layouts/update-weight.
type updateWeightRequest struct {
	ProjectID string   `json:"projectId"`
	IPName    string   `json:"ipName"`
	Week      string   `json:"week"`
	Value     *float64 `json:"value"`
	UpdatedBy string   `json:"updatedBy"`
	Role      string   `json:"role"`
}

// UpdateWeight handles POST /api/layouts/update-weight
func (h *LayoutHandler) UpdateWeight(w http.ResponseWriter, r *http.Request) {
	var req updateWeightRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, "update_weight", err)
		return
	}
	if req.Value == nil {
		writeAppError(w, r, h.logger, "update_weight", domain.ErrMalformedWeight)
		return
	}

	result, err := h.updateWeight.Handle(r.Context(), commands.UpdateWeightCommand{
		ProjectID: req.ProjectID,
		IPName:    req.IPName,
		Week:      req.Week,
		Value:     *req.Value,
		UpdatedBy: req.UpdatedBy,
		Role:      req.Role,
	})
	if err != nil {
		writeAppError(w, r, h.logger, "update_weight", err)
		return
	}

	history := make([]queries.WeightDTO, 0, len(result.History))
	for _, e := range result.History {
		history = append(history, queries.ToWeightDTO(e))
	}
	writeSuccess(w, r, http.StatusOK, Envelope{
		Data: map[string]any{
			"weight":  queries.ToWeightDTO(result.Weight),
			"history": history,
		},
		UpdatedProjectData: queries.ToLayoutDTO(result.Task, h.now()),
		Message:            "Weight updated",
	})
}

// GetWeightHistory handles GET /api/layouts/weight-history
func (h *LayoutHandler) GetWeightHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.history.Handle(r.Context(), queries.GetWeightHistoryQuery{
		ProjectID: q.Get("projectId"),
		IPName:    q.Get("ipName"),
		Week:      q.Get("week"),
	})
	if err != nil {
		writeAppError(w, r, h.logger, "weight_history", err)
		return
	}
	writeSuccess(w, r, http.StatusOK, Envelope{Data: result})
}

// GetGantt handles GET /api/layouts/gantt
func (h *LayoutHandler) GetGantt(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeAppError(w, r, h.logger, "gantt", err)
		return
	}
	start, err := parseDateParam(r, "start")
	if err != nil {
		writeAppError(w, r, h.logger, "gantt", err)
		return
	}
	ref, err := parseDateParam(r, "date")
	if err != nil {
		writeAppError(w, r, h.logger, "gantt", err)
		return
	}

	tl, err := h.gantt.Handle(r.Context(), queries.GetGanttQuery{
		Mode:          r.URL.Query().Get("mode"),
		Start:         start,
		ReferenceDate: ref,
		Filter:        filter,
	})
	if err != nil {
		writeAppError(w, r, h.logger, "gantt", err)
		return
	}
	writeSuccess(w, r, http.StatusOK, Envelope{Data: tl})
}

// closeRequest is the body of POST /api/layouts/close.
type closeRequest struct {
	ProjectID string `json:"projectId"`
	IPName    string `json:"ipName"`
	Closed    *bool  `json:"closed"`
}

// SetLayoutClosed handles POST /api/layouts/close. closed defaults to true.
func (h *LayoutHandler) SetLayoutClosed(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeAppError(w, r, h.logger, "close", err)
		return
	}
	closed := true
	if req.Closed != nil {
		closed = *req.Closed
	}

	task, err := h.setClosed.Handle(r.Context(), commands.SetLayoutClosedCommand{
		ProjectID: req.ProjectID,
		IPName:    req.IPName,
		Closed:    closed,
	})
	if err != nil {
		writeAppError(w, r, h.logger, "close", err)
		return
	}
	writeSuccess(w, r, http.StatusOK, Envelope{UpdatedProjectData: queries.ToLayoutDTO(task, h.now())})
}

// ExportCalendar handles GET /api/layouts/{projectID}/calendar.ics
func (h *LayoutHandler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(r.PathValue("projectID"))
	tasks, err := h.layoutRepo.FindByProject(r.Context(), projectID)
	if err != nil {
		writeAppError(w, r, h.logger, "calendar", err)
		return
	}
	if len(tasks) == 0 {
		writeAppError(w, r, h.logger, "calendar", domain.ErrLayoutNotFound)
		return
	}
	events := calendar.EventsFor(tasks)
	if len(events) == 0 {
		writeError(w, r, http.StatusNotFound, "No open layouts have schedule windows", nil)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", projectID+".ics"))
	if err := calendar.WriteICS(w, events, h.now()); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func parseFilter(r *http.Request) (domain.Filter, error) {
	q := r.URL.Query()
	f := domain.Filter{
		ProjectID: strings.TrimSpace(q.Get("projectId")),
		Owner:     strings.TrimSpace(q.Get("owner")),
		Designer:  strings.TrimSpace(q.Get("designer")),
		Keyword:   q.Get("q"),
	}
	if s := q.Get("status"); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			return domain.Filter{}, err
		}
		f.Status = status
	}
	return f, nil
}

// parseDateParam returns the zero time when the parameter is absent.
func parseDateParam(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
