// Package pdfinfo validates PDFs with pdfcpu before they are rendered.
package pdfinfo

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// Ensure Inspector implements the interface.
var _ driven.PDFInspector = (*Inspector)(nil)

// Inspector reads page counts and document info.
type Inspector struct {
	conf *model.Configuration
}

// New creates an inspector with pdfcpu's default configuration.
func New() *Inspector {
	return &Inspector{conf: model.NewDefaultConfiguration()}
}

// Inspect validates the PDF and returns its page count and info.
func (i *Inspector) Inspect(data []byte) (*driven.PDFInfo, error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-")) {
		return nil, fmt.Errorf("%w: missing pdf header", domain.ErrInvalidInput)
	}

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), i.conf)
	if err != nil {
		if isEncryptionError(err) {
			return &driven.PDFInfo{Encrypted: true}, nil
		}
		return nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	info := &driven.PDFInfo{
		PageCount: ctx.PageCount,
		Encrypted: ctx.Encrypt != nil,
	}
	if ctx.XRefTable != nil {
		info.Title = strings.TrimSpace(ctx.XRefTable.Title)
		info.Author = strings.TrimSpace(ctx.XRefTable.Author)
	}
	return info, nil
}

// isEncryptionError reports pdfcpu failures caused by a missing password.
func isEncryptionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}
