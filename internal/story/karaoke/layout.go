// Package karaoke estimates which narration word is being spoken and moves an
// indicator over it. The speech models give no word timestamps, so timing is a
// linear map from elapsed playback time onto character offsets.
package karaoke

import (
	"time"
	"unicode/utf8"

	"storyquest/internal/domain/story"
)

// Span is a word's half-open interval of character offsets
type Span struct {
	Start int
	End   int
}

// Layout is narration text broken into timed words
type Layout struct {
	Words      []string
	Spans      []Span
	TotalChars int
}

// NewLayout splits text on whitespace. Every word counts one extra character for
// the space after it so consecutive spans touch with no gap.
func NewLayout(text string) *Layout {
	words := story.Words(text)
	l := &Layout{
		Words: words,
		Spans: make([]Span, len(words)),
	}

	for i, w := range words {
		length := utf8.RuneCountInString(w) + 1
		l.Spans[i] = Span{Start: l.TotalChars, End: l.TotalChars + length}
		l.TotalChars += length
	}
	return l
}

// IndexAt returns the word covering a fractional character offset, or -1
func (l *Layout) IndexAt(target float64) int {
	if len(l.Words) == 0 {
		return -1
	}
	for i, s := range l.Spans {
		if target < float64(s.End) {
			return i
		}
	}
	// rounding at the very end of the text
	if target >= float64(l.TotalChars) {
		return len(l.Words) - 1
	}
	return -1
}

// ActiveIndex estimates the word being spoken after elapsed of a narration
// lasting duration. It is -1 when playback is not running.
func (l *Layout) ActiveIndex(elapsed, duration time.Duration) int {
	if duration <= 0 || elapsed < 0 || elapsed >= duration {
		return -1
	}
	progress := elapsed.Seconds() / duration.Seconds()
	return l.IndexAt(progress * float64(l.TotalChars))
}
