package script

import (
	"fmt"
	"strings"
)

// SegmentTooLargeError means a segment holds a sentence longer than the
// synthesis limit, so it cannot be split without breaking intonation
// mid-sentence. That is an upstream generation defect and is fatal for
// the run.
type SegmentTooLargeError struct {
	SequenceIndex int
	Length        int
	MaxChars      int
}

func (e *SegmentTooLargeError) Error() string {
	return fmt.Sprintf("segment %d: sentence of %d chars exceeds synthesis limit %d and has no sentence boundary to split at",
		e.SequenceIndex, e.Length, e.MaxChars)
}

// Batch is one synthesis call's worth of segments.
type Batch struct {
	Index    int
	Segments []Segment
}

// Chars is the total text length of the batch.
func (b Batch) Chars() int {
	n := 0
	for _, s := range b.Segments {
		n += len(s.Text)
	}
	return n
}

// Plan packs segments into batches no larger than maxChars each. A
// segment always lands whole in one batch, even when that leaves the
// previous batch short; splitting a segment's audio across synthesis
// calls is audible. A segment that alone exceeds maxChars is split at
// sentence boundaries first. Delimiters are preserved during splitting,
// so concatenating every batch's text in order reconstructs the script
// byte for byte. Sequence indexes are renumbered consecutively across
// the returned batches.
func Plan(segments []Segment, maxChars int) ([]Batch, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("maxChars must be positive, got %d", maxChars)
	}

	var batches []Batch
	current := Batch{}
	seq := 0

	flush := func() {
		if len(current.Segments) > 0 {
			current.Index = len(batches)
			batches = append(batches, current)
			current = Batch{}
		}
	}

	for _, seg := range segments {
		parts := []string{seg.Text}
		if len(seg.Text) > maxChars {
			split, err := splitSentences(seg.Text, maxChars)
			if err != nil {
				return nil, &SegmentTooLargeError{
					SequenceIndex: seg.SequenceIndex,
					Length:        len(seg.Text),
					MaxChars:      maxChars,
				}
			}
			parts = split
		}

		for _, part := range parts {
			if current.Chars()+len(part) > maxChars {
				flush()
			}
			current.Segments = append(current.Segments, Segment{
				Speaker:       seg.Speaker,
				Text:          part,
				SequenceIndex: seq,
				ThemeIndex:    seg.ThemeIndex,
			})
			seq++
		}
	}
	flush()

	return batches, nil
}

// Flatten returns the segments of all batches in sequence order.
func Flatten(batches []Batch) []Segment {
	var out []Segment
	for _, b := range batches {
		out = append(out, b.Segments...)
	}
	return out
}

var sentenceDelimiters = []string{". ", "! ", "? ", "\n"}

// splitSentences cuts text into pieces no longer than limit, each ending
// at a sentence boundary. Delimiters stay attached to the preceding
// piece. Errors if any single sentence exceeds the limit.
func splitSentences(text string, limit int) ([]string, error) {
	sentences := splitKeepingDelimiters(text, sentenceDelimiters)

	var parts []string
	current := ""
	for _, sentence := range sentences {
		if len(sentence) > limit {
			return nil, fmt.Errorf("sentence of %d chars exceeds limit %d", len(sentence), limit)
		}
		if len(current)+len(sentence) > limit {
			parts = append(parts, current)
			current = sentence
			continue
		}
		current += sentence
	}
	if current != "" {
		parts = append(parts, current)
	}
	return parts, nil
}

// splitKeepingDelimiters splits on each delimiter while keeping the
// delimiter attached to the preceding part, so joining the parts
// reproduces the input exactly.
func splitKeepingDelimiters(text string, delimiters []string) []string {
	parts := []string{text}
	for _, delim := range delimiters {
		var next []string
		for _, part := range parts {
			pieces := strings.Split(part, delim)
			for i, p := range pieces {
				if i < len(pieces)-1 {
					next = append(next, p+delim)
				} else if p != "" {
					next = append(next, p)
				}
			}
		}
		parts = next
	}
	return parts
}
