package tesseract

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
)

// wordLevel is the TSV level of a single recognised word.
const wordLevel = 5

// tsvColumns are the columns tesseract writes, in order.
var tsvColumns = []string{
	"level", "page_num", "block_num", "par_num", "line_num", "word_num",
	"left", "top", "width", "height", "conf", "text",
}

type lineKey struct {
	block, par, line int
}

// ParseTSV reads tesseract TSV output. Words on the same line are joined
// with spaces, lines with newlines and paragraphs with a blank line.
// Confidence is the mean word confidence scaled to [0, 1].
func ParseTSV(data []byte) (*driven.Recognition, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		return &driven.Recognition{}, nil
	}
	header := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
	if len(header) < len(tsvColumns) || header[0] != tsvColumns[0] || header[11] != tsvColumns[11] {
		return nil, fmt.Errorf("%w: unexpected tsv header %q", domain.ErrInvalidInput, scanner.Text())
	}

	var (
		sb       strings.Builder
		last     lineKey
		started  bool
		words    int
		confSum  float64
		confSeen int
	)

	for scanner.Scan() {
		fields := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
		if len(fields) < len(tsvColumns) {
			continue
		}
		level, err := strconv.Atoi(fields[0])
		if err != nil || level != wordLevel {
			continue
		}
		text := strings.TrimSpace(fields[11])
		if text == "" {
			continue
		}

		key := lineKey{atoi(fields[2]), atoi(fields[3]), atoi(fields[4])}
		switch {
		case !started:
		case key.block != last.block || key.par != last.par:
			sb.WriteString("\n\n")
		case key.line != last.line:
			sb.WriteByte('\n')
		default:
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
		started = true
		last = key
		words++

		if conf, err := strconv.ParseFloat(fields[10], 64); err == nil && conf >= 0 {
			confSum += conf
			confSeen++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading tsv: %w", err)
	}

	var confidence float64
	if confSeen > 0 {
		confidence = clamp(confSum / float64(confSeen) / 100)
	}

	return &driven.Recognition{
		Text:       strings.TrimSpace(sb.String()),
		Confidence: confidence,
		Words:      words,
	}, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
