package karaoke

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"storyquest/internal/cli/scheme/colours"
)

// TerminalSurface draws narration as wrapped lines, each with an indicator row
// above it. Positions are in character cells. Lines printed after the block go
// through Append so the block can still be redrawn in place.
type TerminalSurface struct {
	mu    sync.Mutex
	out   io.Writer
	width int
	glyph string

	words []string
	boxes []Box
	rows  int
	below int
	drawn bool
	frame Frame
}

// NewTerminalSurface creates a surface wrapping text at width columns
func NewTerminalSurface(out io.Writer, width int, glyph string) *TerminalSurface {
	if width < 10 {
		width = 10
	}
	if glyph == "" {
		glyph = "*"
	}
	return &TerminalSurface{
		out:   out,
		width: width,
		glyph: glyph,
		frame: Hidden(),
	}
}

// SetWords lays out words. Laying out the words already on screen keeps the
// existing block so tracking can start after the text was shown.
func (s *TerminalSurface) SetWords(words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setWordsLocked(words)
}

// Show lays out text and prints it if it is not on screen yet
func (s *TerminalSurface) Show(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setWordsLocked(strings.Fields(text))
	if !s.drawn {
		s.render()
	}
}

func (s *TerminalSurface) setWordsLocked(words []string) {
	if s.drawn && slices.Equal(words, s.words) {
		return
	}

	s.words = words
	s.boxes = make([]Box, len(words))
	s.rows = 0
	s.below = 0
	s.drawn = false
	s.frame = Hidden()

	col, row := 0, 0
	for i, w := range words {
		n := utf8.RuneCountInString(w)
		if col > 0 && col+n > s.width {
			row++
			col = 0
		}
		s.boxes[i] = Box{X: float64(col), Y: float64(row*2 + 1), W: float64(n), H: 1}
		col += n + 1
	}
	if len(words) > 0 {
		s.rows = row + 1
	}
}

func (s *TerminalSurface) WordBox(i int) (Box, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.boxes) {
		return Box{}, false
	}
	return s.boxes[i], true
}

func (s *TerminalSurface) Draw(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frame = f
	s.render()
}

// Append prints full lines below the block
func (s *TerminalSurface) Append(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range lines {
		io.WriteString(s.out, l+"\n")
	}
	if s.drawn {
		s.below += len(lines)
	}
}

// Prompt prints text without a line break, leaving the cursor after it
func (s *TerminalSurface) Prompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.out, text)
}

// Advance records n lines the terminal printed on its own, such as echoed input
func (s *TerminalSurface) Advance(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn {
		s.below += n
	}
}

// render writes the block; once drawn it is rewritten in place and the cursor restored
func (s *TerminalSurface) render() {
	if s.rows == 0 {
		return
	}

	var b strings.Builder
	if s.drawn {
		fmt.Fprintf(&b, "\0337\033[%dA", s.rows*2+s.below)
	}

	visible := s.frame.Opacity > 0 && s.frame.ActiveIndex >= 0
	for r := 0; r < s.rows; r++ {
		b.WriteString("\r\033[K")
		if visible && int(s.frame.Y) == r*2 {
			b.WriteString(strings.Repeat(" ", max(int(s.frame.X), 0)))
			if s.frame.Lifted {
				b.WriteString(colours.Bounce.Sprint(s.glyph))
			} else {
				b.WriteString(colours.Rest.Sprint(s.glyph))
			}
		}
		b.WriteString("\n\r\033[K")

		first := true
		for i, box := range s.boxes {
			if int(box.Y) != r*2+1 {
				continue
			}
			if !first {
				b.WriteString(" ")
			}
			first = false
			if visible && i == s.frame.ActiveIndex {
				b.WriteString(colours.Highlight.Sprint(s.words[i]))
			} else {
				b.WriteString(colours.Narrator.Sprint(s.words[i]))
			}
		}
		b.WriteString("\n")
	}

	if s.drawn {
		b.WriteString("\0338")
	}
	s.drawn = true
	io.WriteString(s.out, b.String())
}

// Lines returns the plain narration lines without the indicator rows
func (s *TerminalSurface) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, s.rows)
	for i, box := range s.boxes {
		r := int(box.Y) / 2
		if lines[r] != "" {
			lines[r] += " "
		}
		lines[r] += s.words[i]
	}
	return lines
}
