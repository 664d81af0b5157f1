package definition

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/vanity/pkg/domain"
	"github.com/aretw0/vanity/pkg/ports"
)

// Experiment is a loaded experiment definition.
type Experiment struct {
	id           domain.Identifier
	name         string
	typ          string
	description  string
	alternatives []string
	metrics      []domain.Identifier
	conn         ports.Connector
	opts         options
}

// NewExperiment validates an experiment definition and builds its handle.
func NewExperiment(id domain.Identifier, def *domain.Definition, conn ports.Connector, opts ...Option) (*Experiment, error) {
	typ := def.Type
	if typ == "" {
		typ = domain.DefaultExperimentType
	}
	et, ok := LookupType(typ)
	if !ok {
		return nil, &domain.DefinitionError{ID: id, Msg: fmt.Sprintf("unknown experiment type %q", typ)}
	}

	alternatives := def.Alternatives
	if len(alternatives) == 0 {
		alternatives = et.DefaultAlternatives
	}
	if len(alternatives) < et.MinAlternatives {
		return nil, &domain.DefinitionError{ID: id, Msg: fmt.Sprintf("%s needs at least %d alternatives", typ, et.MinAlternatives)}
	}
	seen := make(map[string]bool, len(alternatives))
	for _, alt := range alternatives {
		if seen[alt] {
			return nil, &domain.DefinitionError{ID: id, Msg: fmt.Sprintf("alternative %q listed twice", alt)}
		}
		seen[alt] = true
	}

	metrics := make([]domain.Identifier, 0, len(def.Metrics))
	for _, m := range def.Metrics {
		metrics = append(metrics, domain.Normalize(m))
	}

	name := def.Name
	if name == "" {
		name = string(id)
	}
	return &Experiment{
		id:           id,
		name:         name,
		typ:          typ,
		description:  def.Description,
		alternatives: append([]string(nil), alternatives...),
		metrics:      metrics,
		conn:         conn,
		opts:         newOptions(opts),
	}, nil
}

func (e *Experiment) ID() domain.Identifier { return e.id }
func (e *Experiment) Name() string          { return e.name }
func (e *Experiment) Family() domain.Family { return domain.FamilyExperiments }
func (e *Experiment) Type() string          { return e.typ }
func (e *Experiment) Description() string   { return e.description }

// Alternatives returns a copy of the experiment's alternatives.
func (e *Experiment) Alternatives() []string {
	return append([]string(nil), e.alternatives...)
}

// Metrics returns the identifiers of the metrics the experiment measures.
func (e *Experiment) Metrics() []domain.Identifier {
	return append([]domain.Identifier(nil), e.metrics...)
}

// Save stamps the experiment's creation time. Later saves keep the first stamp.
func (e *Experiment) Save(ctx context.Context) error {
	adapter, err := e.conn.Connection(ctx)
	if err != nil {
		return fmt.Errorf("save %s: %w", e.id, err)
	}
	if err := adapter.SetExperimentCreatedAt(ctx, string(e.id), e.opts.now().UTC()); err != nil {
		return fmt.Errorf("save %s: %w", e.id, err)
	}
	return nil
}

// CreatedAt returns the stored creation time, or the zero time if never saved.
func (e *Experiment) CreatedAt(ctx context.Context) (time.Time, error) {
	adapter, err := e.conn.Connection(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return adapter.ExperimentCreatedAt(ctx, string(e.id))
}
