// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/algorist/algorist/internal/project"
	"github.com/algorist/algorist/internal/registry"
	"github.com/algorist/algorist/internal/scaffold"
)

// ErrNoProblems is returned when there is nothing to bundle.
var ErrNoProblems = errors.New("no problems to bundle")

type (
	// Formatter rewrites files in place. *runner.Runner satisfies it.
	Formatter interface {
		Format(ctx context.Context, dir string, files ...string) error
	}

	// Service bundles the problems of one contest project. The registry is
	// rebuilt on every call; the parse cache keeps rebuilds cheap.
	Service struct {
		project   *project.Project
		cache     *registry.ParseCache
		logger    *log.Logger
		header    bool
		formatter Formatter
		limit     int
	}

	// Option configures a Service.
	Option func(*Service)

	// Written describes one bundle written to disk.
	Written struct {
		ID string
		// Path is relative to the project root, slash-separated.
		Path    string
		Modules int
		Bytes   int
	}

	// ProblemError attaches the problem id to a bundling failure.
	ProblemError struct {
		ID  string
		Err error
	}
)

func (e *ProblemError) Error() string {
	return fmt.Sprintf("problem %s: %v", e.ID, e.Err)
}

func (e *ProblemError) Unwrap() error { return e.Err }

// WithLogger sets the logger; the default discards.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithHeader toggles the comment header naming the source problem.
func WithHeader(on bool) Option {
	return func(s *Service) { s.header = on }
}

// WithFormatter runs f over every written bundle.
func WithFormatter(f Formatter) Option {
	return func(s *Service) { s.formatter = f }
}

// WithParseCache shares a parse cache across services.
func WithParseCache(c *registry.ParseCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithConcurrency bounds the number of problems bundled at once.
func WithConcurrency(n int) Option {
	return func(s *Service) { s.limit = n }
}

// NewService returns a Service for p.
func NewService(p *project.Project, opts ...Option) (*Service, error) {
	s := &Service{project: p, header: true}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.limit <= 0 {
		s.limit = runtime.GOMAXPROCS(0)
	}
	if s.cache == nil {
		c, err := registry.NewParseCache(registry.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = c
	}
	return s, nil
}

// Project returns the project the service bundles.
func (s *Service) Project() *project.Project { return s.project }

// Registry discovers the project's crates and builds their registry.
func (s *Service) Registry() (*registry.Registry, error) {
	crates, err := s.project.Crates()
	if err != nil {
		return nil, err
	}
	for _, c := range crates {
		s.logger.Debug("crate", "name", c.Name, "dir", s.project.Rel(c.Dir))
	}
	files, err := s.project.LoadSources(crates)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Build(files, registry.WithParseCache(s.cache))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("registry built", "crates", len(crates), "modules", reg.Len(), "cached", s.cache.Len())
	return reg, nil
}

// Targets normalizes ids, or lists every problem when all is set.
func (s *Service) Targets(ids []string, all bool) ([]string, error) {
	if all {
		problems, err := s.project.Problems()
		if err != nil {
			return nil, err
		}
		ids = problems
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSuffix(id, project.ProblemExt)
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoProblems
	}
	return out, nil
}

// Render bundles one problem without writing it.
func (s *Service) Render(reg *registry.Registry, id string) (*Result, error) {
	src, err := s.project.ReadProblem(id)
	if err != nil {
		return nil, err
	}
	var opts Options
	if s.header {
		opts.Header = []string{
			fmt.Sprintf("Problem %s, bundled by algorist from %s.", id, s.project.Rel(s.project.ProblemFile(id))),
		}
	}
	res, err := Bundle(s.project.Rel(s.project.ProblemFile(id)), src, reg, opts)
	if err != nil {
		return nil, &ProblemError{ID: id, Err: err}
	}
	if s.logger.GetLevel() <= log.DebugLevel {
		order := make([]string, len(res.Order))
		for i, p := range res.Order {
			order[i] = p.String()
		}
		s.logger.Debug("closure", "problem", id, "order", strings.Join(order, " "))
		for _, n := range reg.Modules() {
			status := "pruned"
			if slices.ContainsFunc(res.Required, n.Path.Equal) {
				status = "used"
			}
			s.logger.Debug("module", "problem", id, "path", n.Path.String(), "status", status)
		}
	}
	return res, nil
}

// BundleProblem renders one problem and writes it atomically to its bundled
// path. Nothing is written on failure.
func (s *Service) BundleProblem(reg *registry.Registry, id string) (*Written, error) {
	res, err := s.Render(reg, id)
	if err != nil {
		return nil, err
	}
	dst := s.project.BundledFile(id)
	if err := writeAtomic(dst, []byte(res.Output)); err != nil {
		return nil, &ProblemError{ID: id, Err: err}
	}
	w := &Written{ID: id, Path: s.project.Rel(dst), Modules: len(res.Required), Bytes: len(res.Output)}
	s.logger.Info("bundled", "problem", id, "output", w.Path, "modules", w.Modules)
	return w, nil
}

// BundleProblems builds the registry once and bundles ids concurrently.
// Results keep the order of ids. The first failure cancels the problems
// not yet started; bundles already written stay and are returned with the
// error.
func (s *Service) BundleProblems(ctx context.Context, ids []string) ([]Written, error) {
	if len(ids) == 0 {
		return nil, ErrNoProblems
	}
	reg, err := s.Registry()
	if err != nil {
		return nil, err
	}
	if err := s.writeManifest(); err != nil {
		return nil, err
	}

	written := make([]Written, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w, err := s.BundleProblem(reg, id)
			if err != nil {
				return err
			}
			written[i] = *w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return slices.DeleteFunc(written, func(w Written) bool { return w.ID == "" }), err
	}

	if s.formatter != nil {
		paths := make([]string, len(written))
		for i, w := range written {
			paths[i] = filepath.FromSlash(w.Path)
		}
		if err := s.formatter.Format(ctx, s.project.Root, paths...); err != nil {
			return written, fmt.Errorf("formatting bundles: %w", err)
		}
	}
	return written, nil
}

// writeManifest writes bundled/Cargo.toml so the bundled directory builds
// as a standalone package.
func (s *Service) writeManifest() error {
	data, err := scaffold.BundledManifest(filepath.Base(s.project.Root))
	if err != nil {
		return err
	}
	return writeAtomic(filepath.Join(s.project.BundledDir(), project.ManifestFile), data)
}
