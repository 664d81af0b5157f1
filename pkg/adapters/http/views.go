package http

import (
	"context"
	"time"

	"github.com/aretw0/vanity/pkg/definition"
	"github.com/aretw0/vanity/pkg/domain"
)

// ExperimentView is the JSON shape of an experiment.
type ExperimentView struct {
	ID           domain.Identifier   `json:"id"`
	Name         string              `json:"name"`
	Type         string              `json:"type"`
	Description  string              `json:"description,omitempty"`
	Alternatives []string            `json:"alternatives"`
	Metrics      []domain.Identifier `json:"metrics"`
	CreatedAt    *time.Time          `json:"created_at,omitempty"`
}

// MetricView is the JSON shape of a metric.
type MetricView struct {
	ID           domain.Identifier `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	LastUpdateAt *time.Time        `json:"last_update_at,omitempty"`
	Values       []DayValue        `json:"values,omitempty"`
}

// DayValue is one day of a metric's totals.
type DayValue struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

func experimentView(ctx context.Context, e *definition.Experiment) (ExperimentView, error) {
	created, err := e.CreatedAt(ctx)
	if err != nil {
		return ExperimentView{}, err
	}
	return ExperimentView{
		ID:           e.ID(),
		Name:         e.Name(),
		Type:         e.Type(),
		Description:  e.Description(),
		Alternatives: e.Alternatives(),
		Metrics:      e.Metrics(),
		CreatedAt:    nonZero(created),
	}, nil
}

func metricView(ctx context.Context, m *definition.Metric) (MetricView, error) {
	last, err := m.LastUpdateAt(ctx)
	if err != nil {
		return MetricView{}, err
	}
	return MetricView{
		ID:           m.ID(),
		Name:         m.Name(),
		Description:  m.Description(),
		LastUpdateAt: nonZero(last),
	}, nil
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
