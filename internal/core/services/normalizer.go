package services

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lessonkit/refpipe/internal/core/domain"
	"github.com/lessonkit/refpipe/internal/core/ports/driven"
	"github.com/lessonkit/refpipe/internal/logger"
)

// chunkNamespace scopes chunk IDs so they cannot collide with other UUIDv5 users.
var chunkNamespace = uuid.MustParse("8d5e1f3a-52c4-4b7e-9f06-3a1c2e7d4b90")

// ContentHash returns the SHA-256 hex digest of raw file bytes.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ChunkID derives a stable chunk identifier from file identity,
// unit index and source kind.
func ChunkID(fileID string, index int, source domain.SourceKind) string {
	name := fileID + "|" + strconv.Itoa(index) + "|" + string(source)
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

// ChunkNormalizer converts extractor output into reference chunks and cache entries.
type ChunkNormalizer struct{}

// NewChunkNormalizer creates a chunk normalizer.
func NewChunkNormalizer() *ChunkNormalizer {
	return &ChunkNormalizer{}
}

// Normalize builds one chunk per unit with non-empty text.
// Units repeating an index and source already seen are dropped.
func (n *ChunkNormalizer) Normalize(fileID, lessonID string, out *driven.ExtractionOutput) []domain.ReferenceChunk {
	if out == nil {
		return []domain.ReferenceChunk{}
	}

	chunks := make([]domain.ReferenceChunk, 0, len(out.Units))
	seen := make(map[string]bool, len(out.Units))

	for _, unit := range out.Units {
		text := strings.TrimSpace(unit.Text)
		if text == "" {
			continue
		}

		id := ChunkID(fileID, unit.Index, unit.Source)
		if seen[id] {
			logger.Warn("duplicate unit %d (%s) in %s dropped", unit.Index, unit.Source, fileID)
			continue
		}
		seen[id] = true

		metadata := make(map[string]any, len(unit.Metadata)+1)
		maps.Copy(metadata, unit.Metadata)
		if out.TotalPages > 0 {
			metadata["totalPages"] = out.TotalPages
		}

		chunks = append(chunks, domain.ReferenceChunk{
			ChunkID:     id,
			FileID:      fileID,
			LessonID:    lessonID,
			PageOrSlide: unit.Index,
			Source:      unit.Source,
			Text:        text,
			Metadata:    metadata,
		})
	}

	return chunks
}

// CacheEntry builds the cache value for a completed result.
func (n *ChunkNormalizer) CacheEntry(result *domain.ExtractionResult) *domain.CacheEntry {
	entry := &domain.CacheEntry{
		Chunks:        cloneChunks(result.Chunks),
		LowConfidence: result.Metadata.LowConfidence,
		ProcessTimeMs: result.ExtractionTimeMs,
		TotalPages:    result.Metadata.TotalPages,
		CreatedAt:     time.Now(),
	}
	if result.Metadata.OCRConfidence != nil {
		c := *result.Metadata.OCRConfidence
		entry.Confidence = &c
	}
	return entry
}

// FromCache fills a pending result from a cache entry and completes it.
// The cached chunks are returned exactly as first extracted.
func (n *ChunkNormalizer) FromCache(result *domain.ExtractionResult, entry *domain.CacheEntry) error {
	if err := result.Start(); err != nil {
		return err
	}
	result.Metadata.CacheHit = true
	result.Metadata.TotalPages = entry.TotalPages
	if entry.Confidence != nil {
		result.SetConfidence(*entry.Confidence)
	}
	return result.Complete(cloneChunks(entry.Chunks))
}

func cloneChunks(chunks []domain.ReferenceChunk) []domain.ReferenceChunk {
	out := make([]domain.ReferenceChunk, len(chunks))
	for i, c := range chunks {
		out[i] = c
		out[i].Metadata = maps.Clone(c.Metadata)
	}
	return out
}
