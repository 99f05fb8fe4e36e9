// Package allowlist loads standards codes and slide types from a YAML file.
//
// Example file:
//
//	standards:
//	  - CCSS.MATH.CONTENT.3.NF.A.1
//	  - NGSS.5-PS1-1
//	slide_types:
//	  - title
//	  - content
package allowlist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.AllowListSource = (*Source)(nil)

// Source reads the allow-list file on every Load so edits apply without a restart.
type Source struct {
	path              string
	defaultSlideTypes []string
}

// New creates a source for path. An empty path yields no standards and
// the default slide types.
func New(path string, defaultSlideTypes []string) *Source {
	return &Source{path: path, defaultSlideTypes: defaultSlideTypes}
}

// Load reads and normalises the lists.
func (s *Source) Load(ctx context.Context) (*domain.AllowLists, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == "" {
		return &domain.AllowLists{SlideTypes: clone(s.defaultSlideTypes)}, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: allow-list %s", domain.ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("read allow-list %s: %w", s.path, err)
	}

	var lists domain.AllowLists
	if err := yaml.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("%w: parse allow-list %s: %w", domain.ErrInvalidInput, s.path, err)
	}

	lists.Standards = normalise(lists.Standards)
	lists.SlideTypes = normalise(lists.SlideTypes)
	if len(lists.SlideTypes) == 0 {
		lists.SlideTypes = clone(s.defaultSlideTypes)
	}
	return &lists, nil
}

// normalise trims entries and drops blanks and duplicates, keeping order.
func normalise(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func clone(items []string) []string {
	if items == nil {
		return nil
	}
	return append([]string(nil), items...)
}
