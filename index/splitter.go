package index

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order: paragraphs, lines, words, characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts text into chunks of at most ChunkSize characters, with
// ChunkOverlap characters shared between neighbours. It splits on the first
// separator that occurs in the text and recurses with finer separators only
// for pieces that are still too long, so chunks break on paragraph, line or
// word boundaries where possible.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

// NewSplitter creates a Splitter with DefaultSeparators.
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Splitter{
		ChunkSize:    size,
		ChunkOverlap: overlap,
		Separators:   DefaultSeparators,
	}
}

// Split returns the chunks of text. Blank chunks are dropped.
func (s *Splitter) Split(text string) []string {
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}
	return s.split(text, seps)
}

func (s *Splitter) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	var rest []string
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = seps[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, sep)
	}

	var (
		chunks []string
		short  []string
	)
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if length(p) <= s.ChunkSize {
			short = append(short, p)
			continue
		}
		if len(short) > 0 {
			chunks = append(chunks, s.merge(short, sep)...)
			short = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, strings.TrimSpace(p))
			continue
		}
		chunks = append(chunks, s.split(p, rest)...)
	}
	if len(short) > 0 {
		chunks = append(chunks, s.merge(short, sep)...)
	}
	return chunks
}

// merge packs pieces into chunks joined by sep, carrying up to ChunkOverlap
// characters of trailing pieces into the next chunk.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := length(sep)

	var (
		chunks  []string
		current []string
		total   int
	)
	emit := func() {
		if chunk := strings.TrimSpace(strings.Join(current, sep)); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, p := range pieces {
		n := length(p)
		joined := 0
		if len(current) > 0 {
			joined = sepLen
		}

		if total+n+joined > s.ChunkSize && len(current) > 0 {
			emit()
			for len(current) > 0 && (total > s.ChunkOverlap || total+n+sepLenIf(len(current) > 0, sepLen) > s.ChunkSize) {
				total -= length(current[0]) + sepLenIf(len(current) > 1, sepLen)
				current = current[1:]
			}
		}

		current = append(current, p)
		total += n + sepLenIf(len(current) > 1, sepLen)
	}
	if len(current) > 0 {
		emit()
	}
	return chunks
}

func sepLenIf(cond bool, n int) int {
	if cond {
		return n
	}
	return 0
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
