package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/aretw0/vanity/internal/logging"
	"github.com/aretw0/vanity/pkg/domain"
)

// MetricsDir is the subdirectory of the load path holding metric definitions.
const MetricsDir = "metrics"

// Registrar receives the definitions of one load pass.
type Registrar interface {
	// Define builds and records the handle for a decoded definition.
	Define(ctx context.Context, family domain.Family, id domain.Identifier, def *domain.Definition) error

	// Defined reports whether id has been recorded during the pass.
	Defined(family domain.Family, id domain.Identifier) bool
}

// Loader loads definition files from a Source.
type Loader struct {
	source Source
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used to report each file.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader reading from source.
func New(source Source, opts ...Option) *Loader {
	l := &Loader{
		source: source,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the directory, relative to the source root, holding a family.
func Dir(family domain.Family) string {
	if family == domain.FamilyMetrics {
		return MetricsDir
	}
	return "."
}

// Files lists the definition files of a family.
func (l *Loader) Files(family domain.Family) ([]string, error) {
	entries, err := l.source.List(Dir(family))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", family, err)
	}
	files := entries[:0:0]
	for _, f := range entries {
		if IsDefinitionFile(f) {
			files = append(files, f)
		}
	}
	return files, nil
}

// LoadAll loads every definition file of a family not already loaded in this pass.
// It returns the number of files loaded, including those pulled in through requires.
func (l *Loader) LoadAll(ctx context.Context, family domain.Family, guard *Guard, reg Registrar) (int, error) {
	files, err := l.Files(family)
	if err != nil {
		return 0, err
	}
	before := len(guard.done)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return len(guard.done) - before, err
		}
		if guard.Loading(file) || guard.Done(file) {
			continue
		}
		if err := l.LoadOne(ctx, family, file, guard, reg); err != nil {
			return len(guard.done) - before, err
		}
	}
	return len(guard.done) - before, nil
}

// LoadOne loads a single file, loading its requirements first.
// The file must define the identifier derived from its name.
func (l *Loader) LoadOne(ctx context.Context, family domain.Family, file string, guard *Guard, reg Registrar) error {
	if err := guard.Enter(file); err != nil {
		return err
	}
	defer guard.Leave(file)

	id := IdentifierFor(file)
	l.logger.Debug("loading definition", "family", family, "path", file, "id", id)

	data, err := l.source.Read(file)
	if err != nil {
		return wrapFile(file, err)
	}
	def, err := decode(file, data)
	if err != nil {
		return err
	}

	for _, name := range def.Requires {
		req, err := l.find(family, domain.Normalize(name))
		if err != nil {
			return wrapFile(file, err)
		}
		if req == "" {
			return &domain.DefinitionError{Path: file, ID: id, Msg: fmt.Sprintf("requires unknown %s %s", family.Singular(), name)}
		}
		if guard.Done(req) {
			continue
		}
		if err := l.LoadOne(ctx, family, req, guard, reg); err != nil {
			return err
		}
	}

	if err := reg.Define(ctx, family, id, def); err != nil {
		return wrapFile(file, err)
	}
	if !reg.Defined(family, id) {
		return &domain.DefinitionError{Path: file, ID: id, Msg: fmt.Sprintf("expected %s to define %s %s", path.Base(file), family.Singular(), id)}
	}
	guard.markDone(file)
	return nil
}

func (l *Loader) find(family domain.Family, id domain.Identifier) (string, error) {
	files, err := l.Files(family)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if IdentifierFor(f) == id {
			return f, nil
		}
	}
	return "", nil
}

// FileError attaches the file being loaded to an error.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e *FileError) Unwrap() error { return e.Err }

func wrapFile(file string, err error) error {
	var fe *FileError
	var de *domain.DefinitionError
	var ce *domain.CircularLoadError
	if errors.As(err, &fe) || errors.As(err, &de) || errors.As(err, &ce) {
		return err
	}
	return &FileError{Path: file, Err: err}
}
