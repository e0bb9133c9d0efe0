package chunking

import "strings"

// Splitter packs paragraphs into chunks of roughly ChunkSize runes, carrying
// Overlap runes of trailing context into the next chunk so neighboring
// chunks stay searchable across a boundary.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 3200
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	paragraphs := strings.Split(text, "\n\n")
	var out []string
	var current strings.Builder

	flush := func() string {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		if chunk != "" {
			out = append(out, chunk)
		}
		return chunk
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// A single paragraph longer than the chunk size is split hard.
		if runeLen(para) > s.ChunkSize {
			flush()
			for _, piece := range s.splitLong(para) {
				out = append(out, piece)
			}
			continue
		}

		if runeLen(current.String())+runeLen(para)+2 > s.ChunkSize {
			chunk := flush()
			if tail := s.overlapTail(chunk); tail != "" {
				current.WriteString(tail)
				current.WriteString("\n\n")
			}
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return out
}

func (s *Splitter) splitLong(text string) []string {
	runes := []rune(text)
	step := s.ChunkSize - s.Overlap
	if step <= 0 {
		step = s.ChunkSize
	}

	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + s.ChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}

// overlapTail returns the last Overlap runes of a chunk, aligned to a word
// boundary where possible.
func (s *Splitter) overlapTail(chunk string) string {
	if s.Overlap == 0 || chunk == "" {
		return ""
	}
	runes := []rune(chunk)
	if len(runes) <= s.Overlap {
		return chunk
	}
	tail := string(runes[len(runes)-s.Overlap:])
	if idx := strings.IndexAny(tail, " \n\t"); idx >= 0 && idx < len(tail)-1 {
		tail = tail[idx+1:]
	}
	return strings.TrimSpace(tail)
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
