package domain

import (
	sharedDomain "github.com/felixgeelhaar/layoutrack/internal/shared/domain"
)

const (
	// AggregateType is the aggregate name stamped on layout events.
	AggregateType = "layout"

	RoutingKeyLayoutsSubmitted = "layouts.submitted"
	RoutingKeyWeightUpdated    = "layouts.weight.updated"
	RoutingKeyLayoutClosed     = "layouts.closed"
	RoutingKeyLayoutReopened   = "layouts.reopened"
)

// LayoutsSubmitted is raised after a batch of rows was saved for a project.
type LayoutsSubmitted struct {
	sharedDomain.BaseEvent
	ProjectID   string   `json:"projectId"`
	IPNames     []string `json:"ipNames"`
	SubmittedBy string   `json:"submittedBy,omitempty"`
}

// NewLayoutsSubmitted creates a LayoutsSubmitted event.
func NewLayoutsSubmitted(projectID string, ipNames []string, by string) LayoutsSubmitted {
	return LayoutsSubmitted{
		BaseEvent:   sharedDomain.NewBaseEvent(projectID, AggregateType, RoutingKeyLayoutsSubmitted),
		ProjectID:   projectID,
		IPNames:     ipNames,
		SubmittedBy: by,
	}
}

// WeightUpdated is raised when a layout owner records a weekly weight.
type WeightUpdated struct {
	sharedDomain.BaseEvent
	ProjectID string  `json:"projectId"`
	IPName    string  `json:"ipName"`
	Week      string  `json:"week"`
	Value     float64 `json:"value"`
	Version   int     `json:"version"`
	UpdatedBy string  `json:"updatedBy,omitempty"`
}

// NewWeightUpdated creates a WeightUpdated event.
func NewWeightUpdated(key Key, w WeeklyWeight) WeightUpdated {
	return WeightUpdated{
		BaseEvent: sharedDomain.NewBaseEvent(key.String(), AggregateType, RoutingKeyWeightUpdated),
		ProjectID: key.ProjectID,
		IPName:    key.IPName,
		Week:      w.Week,
		Value:     w.Value,
		Version:   w.Version,
		UpdatedBy: w.UpdatedBy,
	}
}

// LayoutClosedChanged is raised when a layout is closed or reopened.
type LayoutClosedChanged struct {
	sharedDomain.BaseEvent
	ProjectID string `json:"projectId"`
	IPName    string `json:"ipName"`
	Closed    bool   `json:"closed"`
}

// NewLayoutClosedChanged creates a LayoutClosedChanged event.
func NewLayoutClosedChanged(key Key, closed bool) LayoutClosedChanged {
	routingKey := RoutingKeyLayoutReopened
	if closed {
		routingKey = RoutingKeyLayoutClosed
	}
	return LayoutClosedChanged{
		BaseEvent: sharedDomain.NewBaseEvent(key.String(), AggregateType, routingKey),
		ProjectID: key.ProjectID,
		IPName:    key.IPName,
		Closed:    closed,
	}
}
