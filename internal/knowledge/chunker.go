// Package knowledge builds and queries the coaching knowledge index: corpus
// files are split into overlapping chunks, embedded, and stored in a vector
// store for retrieval at conversation time.
package knowledge

import (
	"strings"
	"unicode/utf8"
)

// ChunkerConfig configures the recursive text splitter.
type ChunkerConfig struct {
	ChunkSize    int    // target chunk size in characters
	ChunkOverlap int    // characters carried over between adjacent chunks
	Separator    string // preferred separator, tried before the built-in ladder
}

// DefaultChunkerConfig returns the splitter defaults used for the coaching
// corpus. Articles are prose; paragraph-first splitting keeps advice intact.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Separator:    "\n\n",
	}
}

// Chunk is a single split of a source document.
type Chunk struct {
	Text  string
	Index int // 0-based position within the source document
}

// ChunkText splits text into overlapping chunks by trying separators from
// coarsest to finest until segments fit the target size.
func ChunkText(text string, config ChunkerConfig) []Chunk {
	if config.ChunkSize <= 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap < 0 {
		config.ChunkOverlap = 0
	}

	if utf8.RuneCountInString(text) <= config.ChunkSize {
		return []Chunk{{Text: text, Index: 0}}
	}

	separators := []string{"\n\n", "\n", ". ", " ", ""}
	if config.Separator != "" {
		separators = append([]string{config.Separator}, separators...)
	}

	chunks := recursiveSplit(text, separators, config.ChunkSize, config.ChunkOverlap)
	for i := range chunks {
		chunks[i].Index = i
	}
	return chunks
}

func recursiveSplit(text string, separators []string, chunkSize, overlap int) []Chunk {
	if utf8.RuneCountInString(text) <= chunkSize {
		return []Chunk{{Text: text}}
	}

	// First separator that actually produces segments wins.
	var segments []string
	var usedSep string
	for _, sep := range separators {
		if sep == "" {
			segments = splitByRunes(text, chunkSize)
			usedSep = ""
			break
		}
		parts := strings.Split(text, sep)
		if len(parts) > 1 {
			segments = parts
			usedSep = sep
			break
		}
	}

	if len(segments) == 0 {
		return []Chunk{{Text: text}}
	}

	// Merge segments back into chunks of target size, carrying an overlap
	// tail from each flushed chunk into the next.
	var chunks []Chunk
	var current strings.Builder
	for _, seg := range segments {
		candidate := current.String()
		if candidate != "" {
			candidate += usedSep
		}
		candidate += seg

		if utf8.RuneCountInString(candidate) > chunkSize && current.Len() > 0 {
			chunks = append(chunks, Chunk{Text: current.String()})

			tail := overlapTail(current.String(), overlap)
			current.Reset()
			if tail != "" {
				current.WriteString(tail)
				current.WriteString(usedSep)
			}
			current.WriteString(seg)
		} else {
			if current.Len() > 0 {
				current.WriteString(usedSep)
			}
			current.WriteString(seg)
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, Chunk{Text: current.String()})
	}
	return chunks
}

// overlapTail returns the last n runes of s.
func overlapTail(s string, n int) string {
	runes := []rune(s)
	if n >= len(runes) {
		return s
	}
	return string(runes[len(runes)-n:])
}

func splitByRunes(text string, n int) []string {
	runes := []rune(text)
	var segments []string
	for i := 0; i < len(runes); i += n {
		end := i + n
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[i:end]))
	}
	return segments
}
