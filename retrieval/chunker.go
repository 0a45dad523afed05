package retrieval

import (
	"strconv"
	"strings"
)

// ChunkerConfig configures an overlapping splitter: Size and Overlap are in
// characters, MinSize discards trailing fragments smaller than it (folding
// them into the previous chunk instead), and Separators lists the
// break-preferred boundaries tried in order (paragraph, then line, then
// word, then hard cut).
type ChunkerConfig struct {
	Size       int
	Overlap    int
	MinSize    int
	Separators []string
}

// DefaultChunkerConfig matches the teacher's defaults for the simple
// overlapping strategy.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		Size:       1000,
		Overlap:    200,
		MinSize:    100,
		Separators: []string{"\n\n", "\n", " "},
	}
}

func (c *ChunkerConfig) setDefaults() {
	if c.Size <= 0 {
		c.Size = 1000
	}
	if c.Overlap < 0 || c.Overlap >= c.Size {
		c.Overlap = c.Size / 5
	}
	if c.MinSize <= 0 {
		c.MinSize = c.Size / 10
	}
	if len(c.Separators) == 0 {
		c.Separators = []string{"\n\n", "\n", " "}
	}
}

// splitSpan is a content range before chunk IDs/embeddings are attached.
type splitSpan struct {
	content    string
	start, end int
}

// Split divides content into overlapping spans bounded by cfg.Size,
// preferring to break on cfg.Separators so chunks don't sever mid-word.
// Concatenating the returned spans with overlaps trimmed reproduces content
// verbatim — Split itself returns the raw (overlapping) spans; callers that
// need the round-trip invariant trim using Start/End against the previous
// span's End.
func Split(content string, cfg ChunkerConfig) []splitSpan {
	cfg.setDefaults()
	if content == "" {
		return nil
	}

	var spans []splitSpan
	pos := 0
	n := len(content)

	for pos < n {
		end := pos + cfg.Size
		if end >= n {
			end = n
		} else {
			end = bestBreak(content, pos, end, cfg.Separators)
		}
		if end <= pos {
			end = pos + 1
		}

		spans = append(spans, splitSpan{content: content[pos:end], start: pos, end: end})

		if end >= n {
			break
		}
		next := end - cfg.Overlap
		if next <= pos {
			next = end
		}
		pos = next
	}

	// Fold a final fragment smaller than MinSize into the previous span.
	if len(spans) > 1 {
		last := spans[len(spans)-1]
		if last.end-last.start < cfg.MinSize {
			prev := spans[len(spans)-2]
			spans = spans[:len(spans)-2]
			spans = append(spans, splitSpan{content: content[prev.start:last.end], start: prev.start, end: last.end})
		}
	}

	return spans
}

// bestBreak searches backward from end (within pos+size/2 of it) for the
// earliest-listed separator, falling back to a hard cut at end.
func bestBreak(content string, pos, end int, separators []string) int {
	minBound := pos + (end-pos)/2
	for _, sep := range separators {
		if idx := strings.LastIndex(content[minBound:end], sep); idx >= 0 {
			cut := minBound + idx + len(sep)
			if cut > pos {
				return cut
			}
		}
	}
	return end
}

// NewChunks splits a document and attaches IDs/metadata, producing the
// Chunk values the store upserts. Lexical terms are filled in by the
// caller's lexical index, not here.
func NewChunks(doc Document, cfg ChunkerConfig) []Chunk {
	spans := Split(doc.Content, cfg)
	chunks := make([]Chunk, len(spans))
	for i, s := range spans {
		chunks[i] = Chunk{
			ID:         chunkID(doc.ID, i),
			DocumentID: doc.ID,
			Content:    s.content,
			Metadata:   doc.Metadata,
			Start:      s.start,
			End:        s.end,
		}
	}
	return chunks
}

func chunkID(docID string, index int) string {
	return docID + ":chunk:" + strconv.Itoa(index)
}
