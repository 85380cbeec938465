// Package script models the two-speaker episode script and plans its
// synthesis batches.
package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Speaker is one of the fixed voice roles.
type Speaker string

const (
	Interviewer Speaker = "interviewer"
	Expert      Speaker = "expert"
)

// Segment is one speaker's line of dialogue, the atomic unit of
// synthesis. Concatenating all segments' text in SequenceIndex order
// reconstructs the script exactly.
type Segment struct {
	Speaker       Speaker
	Text          string
	SequenceIndex int
	// ThemeIndex says which theme this line discusses; gap planning and
	// chapter markers use it.
	ThemeIndex int
}

// Transcript tags: [INTERVIEWER]: and [EXPERT]: open a speaker line,
// [THEME n] marks the transition to the nth theme (1-based in the
// transcript, 0-based in segments).
var tagPattern = regexp.MustCompile(`\[(INTERVIEWER|EXPERT)\]:|\[THEME (\d+)\]`)

// Parse extracts segments from generated transcript text. A transcript
// with fewer than four segments is rejected as a generation defect.
func Parse(raw string) ([]Segment, error) {
	tags := tagPattern.FindAllStringSubmatchIndex(raw, -1)

	var segments []Segment
	theme := 0
	for i, tag := range tags {
		// Theme marker: group 2 matched.
		if tag[4] >= 0 {
			if n, err := strconv.Atoi(raw[tag[4]:tag[5]]); err == nil && n > 0 {
				theme = n - 1
			}
			continue
		}

		end := len(raw)
		if i+1 < len(tags) {
			end = tags[i+1][0]
		}
		speaker := Interviewer
		if raw[tag[2]:tag[3]] == "EXPERT" {
			speaker = Expert
		}
		text := strings.TrimSpace(raw[tag[1]:end])
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Speaker:       speaker,
			Text:          text,
			SequenceIndex: len(segments),
			ThemeIndex:    theme,
		})
	}

	if len(segments) < 4 {
		return nil, fmt.Errorf("only %d segments parsed (minimum 4 required); transcript starts with: %.200s", len(segments), raw)
	}
	return segments, nil
}
