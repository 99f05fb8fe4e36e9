// Package archive expands zip containers into their file members.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure Expander implements the interface.
var _ driven.ArchiveExpander = (*Expander)(nil)

// Default limits on what one archive may expand to.
const (
	DefaultMaxMembers     = 500
	DefaultMaxMemberBytes = 256 << 20
)

// Expander lists the files of a zip archive.
type Expander struct {
	maxMembers     int
	maxMemberBytes int64
}

// Option configures an Expander.
type Option func(*Expander)

// WithMaxMembers bounds the number of members returned.
func WithMaxMembers(n int) Option {
	return func(e *Expander) {
		if n > 0 {
			e.maxMembers = n
		}
	}
}

// WithMaxMemberBytes bounds the decompressed size of a single member.
func WithMaxMemberBytes(n int64) Option {
	return func(e *Expander) {
		if n > 0 {
			e.maxMemberBytes = n
		}
	}
}

// New creates a zip expander.
func New(opts ...Option) *Expander {
	e := &Expander{
		maxMembers:     DefaultMaxMembers,
		maxMemberBytes: DefaultMaxMemberBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand returns the file members in archive order. Directory entries,
// macOS resource forks and dot-files are skipped. A member that cannot be
// read, is too large, or lies past the member limit is returned with Err
// set; only an unreadable container fails the whole call.
func (e *Expander) Expand(ctx context.Context, data []byte) ([]driven.ArchiveMember, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	var members []driven.ArchiveMember
	read := 0
	for _, f := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if Skip(f.Name) || f.FileInfo().IsDir() {
			continue
		}
		if read >= e.maxMembers {
			members = append(members, driven.ArchiveMember{
				Path: f.Name,
				Err:  fmt.Errorf("%w: archive has more than %d files", domain.ErrInvalidInput, e.maxMembers),
			})
			continue
		}
		read++

		content, err := e.read(f)
		if err != nil {
			members = append(members, driven.ArchiveMember{
				Path: f.Name,
				Err:  fmt.Errorf("read %s: %w", f.Name, err),
			})
			continue
		}
		members = append(members, driven.ArchiveMember{
			Path:    f.Name,
			Content: content,
		})
	}
	return members, nil
}

func (e *Expander) read(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, e.maxMemberBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(content)) > e.maxMemberBytes {
		return nil, fmt.Errorf("%w: member larger than %d bytes", domain.ErrInvalidInput, e.maxMemberBytes)
	}
	return content, nil
}

// Skip reports whether an archive path is a directory entry or metadata
// that should never be ingested.
func Skip(name string) bool {
	if name == "" || strings.HasSuffix(name, "/") {
		return true
	}
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	for _, part := range strings.Split(clean, "/") {
		if part == "__MACOSX" || strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
