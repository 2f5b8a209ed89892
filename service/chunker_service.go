package service

import (
	"strings"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/types"
)

const (
	DEFAULT_MAX_CHUNK_SIZE = 1000
	DEFAULT_OVERLAP_SIZE   = 100
)

// ChunkerService splits document content into passage drafts. Chunking is
// deterministic: the same content and config always yield the same chunks,
// which keeps rebuilds reproducible.
//
// Structure is respected first: markdown headings and blank lines delimit
// blocks, and consecutive blocks are merged while they fit the size limit.
// Only a single oversized block falls back to a sliding window with
// overlap.
type ChunkerService struct {
	maxChunkSize int
	overlapSize  int
}

func NewChunkerService(cfg config.ChunkerConfig) *ChunkerService {
	maxSize := cfg.MaxChunkSize
	if maxSize <= 0 {
		maxSize = DEFAULT_MAX_CHUNK_SIZE
	}
	overlap := cfg.OverlapSize
	if overlap < 0 || overlap >= maxSize {
		overlap = DEFAULT_OVERLAP_SIZE
		if overlap >= maxSize {
			overlap = maxSize / 4
		}
	}
	return &ChunkerService{
		maxChunkSize: maxSize,
		overlapSize:  overlap,
	}
}

// Chunk returns passage drafts in document order. ID and DocumentID are
// left empty; the indexing layer assigns them once the document id is
// known.
func (s *ChunkerService) Chunk(content string, meta types.Metadata) []types.Passage {
	blocks := splitBlocks(content)
	if len(blocks) == 0 {
		return nil
	}

	var texts []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			texts = append(texts, current.String())
			current.Reset()
		}
	}

	for _, block := range blocks {
		if len([]rune(block)) > s.maxChunkSize {
			flush()
			texts = append(texts, s.splitOversized(block)...)
			continue
		}
		joined := len([]rune(block))
		if current.Len() > 0 {
			joined += len([]rune(current.String())) + 2
		}
		if joined > s.maxChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
	}
	flush()

	passages := make([]types.Passage, 0, len(texts))
	for i, text := range texts {
		passages = append(passages, types.Passage{
			Text:       text,
			ChunkIndex: i,
			Metadata:   meta,
			Source:     meta.Source,
		})
	}
	return passages
}

// splitOversized falls back to a fixed-size sliding window with overlap
// for a block that has no usable internal structure.
func (s *ChunkerService) splitOversized(block string) []string {
	runes := []rune(block)
	step := s.maxChunkSize - s.overlapSize
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.maxChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, strings.TrimSpace(string(runes[start:end])))
		if end == len(runes) {
			break
		}
	}
	return out
}

// splitBlocks breaks content into structural blocks: a markdown heading
// always starts a new block, blank lines separate paragraphs.
func splitBlocks(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	var blocks []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			block := strings.TrimSpace(strings.Join(current, "\n"))
			if block != "" {
				blocks = append(blocks, block)
			}
			current = nil
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return blocks
}
