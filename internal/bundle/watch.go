// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"context"
	"errors"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/algorist/algorist/internal/project"
	"github.com/algorist/algorist/internal/watch"
)

type (
	// WatchOptions configures Service.Watch.
	WatchOptions struct {
		IDs []string
		// All follows every problem in the source directory, including ones
		// added while watching.
		All      bool
		Debounce time.Duration
		// Report receives the outcome of every bundling round.
		Report func(written []Written, err error)
	}
)

// Watch bundles the targets once, then again whenever a problem file or a
// library source changes, until ctx is canceled. A library change rebundles
// every target; a problem change rebundles only that problem.
func (s *Service) Watch(ctx context.Context, opts WatchOptions) error {
	report := opts.Report
	if report == nil {
		report = func([]Written, error) {}
	}

	targets, err := s.Targets(opts.IDs, opts.All)
	if err != nil && !(opts.All && errors.Is(err, ErrNoProblems)) {
		return err
	}
	if len(targets) > 0 {
		report(s.BundleProblems(ctx, targets))
	}

	layout := s.project.Layout
	w, err := watch.New(watch.Config{
		BaseDir: s.project.Root,
		Patterns: []string{
			path.Join(layout.SrcDir, "*"+project.ProblemExt),
			path.Join(layout.CratesDir, "**", "*.rs"),
			path.Join(layout.CratesDir, "**", project.ManifestFile),
		},
		Ignore:   []string{path.Join(layout.BundledDir, "**")},
		Debounce: opts.Debounce,
		Logger:   s.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			ids, err := s.affected(changed, opts)
			if err != nil {
				report(nil, err)
				return nil
			}
			if len(ids) == 0 {
				return nil
			}
			s.logger.Debug("rebundling", "problems", ids, "changed", changed)
			report(s.BundleProblems(ctx, ids))
			return nil
		},
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// affected maps changed paths to the problems to rebundle.
func (s *Service) affected(changed []string, opts WatchOptions) ([]string, error) {
	layout := s.project.Layout
	targets, err := s.Targets(opts.IDs, opts.All)
	if err != nil {
		if errors.Is(err, ErrNoProblems) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, rel := range changed {
		if strings.HasPrefix(rel, layout.CratesDir+"/") {
			return targets, nil
		}
		if path.Dir(rel) != path.Clean(layout.SrcDir) {
			continue
		}
		id := strings.TrimSuffix(path.Base(rel), project.ProblemExt)
		if slices.Contains(targets, id) && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
