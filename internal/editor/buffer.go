// Package editor implements the keystroke-level input buffer behind
// the terminal: cursor-addressed editing, history navigation, and tab
// completion. Every mutation returns the ANSI byte string the widget
// must echo so the displayed line stays consistent with the buffer
// and the logical cursor.
package editor

import (
	"fmt"
	"strings"
)

// CompleteFunc supplies completion candidates for the partial token
// before the cursor. isCommand is true when the partial is the first
// token of the line.
type CompleteFunc func(partial string, isCommand bool) []string

// InputBuffer holds one line under edit plus the session's command
// history. The cursor invariant 0 <= cursor <= len(buffer) holds
// after every operation.
type InputBuffer struct {
	buf     []rune
	cursor  int
	history []string
	histIdx int // -1 = editing a fresh line
	tempBuf string
	complete CompleteFunc
}

// New returns an empty buffer.
func New() *InputBuffer {
	return &InputBuffer{histIdx: -1}
}

// SetCompletionProvider installs the candidate source used by Tab.
func (b *InputBuffer) SetCompletionProvider(f CompleteFunc) { b.complete = f }

// Buffer returns the current line.
func (b *InputBuffer) Buffer() string { return string(b.buf) }

// Cursor returns the logical cursor position in runes.
func (b *InputBuffer) Cursor() int { return b.cursor }

// History returns the submitted command history, oldest first.
func (b *InputBuffer) History() []string {
	out := make([]string, len(b.history))
	copy(out, b.history)
	return out
}

// tail returns the runes after the cursor.
func (b *InputBuffer) tail() string { return string(b.buf[b.cursor:]) }

// Insert places a printable rune at the cursor. Mid-line inserts
// rewrite the tail and step the cursor back over it.
func (b *InputBuffer) Insert(r rune) string {
	b.buf = append(b.buf[:b.cursor], append([]rune{r}, b.buf[b.cursor:]...)...)
	b.cursor++
	tail := b.tail()
	if tail == "" {
		return string(r)
	}
	return string(r) + tail + cursorLeft(len([]rune(tail)))
}

// InsertString inserts a run of printables as one block.
func (b *InputBuffer) InsertString(s string) string {
	var echo strings.Builder
	for _, r := range s {
		echo.WriteString(b.Insert(r))
	}
	return echo.String()
}

// Backspace deletes the rune left of the cursor.
func (b *InputBuffer) Backspace() string {
	if b.cursor == 0 {
		return ""
	}
	b.buf = append(b.buf[:b.cursor-1], b.buf[b.cursor:]...)
	b.cursor--
	tail := b.tail()
	return "\x1b[D" + tail + " " + cursorLeft(len([]rune(tail))+1)
}

// Delete removes the rune under the cursor (ESC[3~).
func (b *InputBuffer) Delete() string {
	if b.cursor >= len(b.buf) {
		return ""
	}
	b.buf = append(b.buf[:b.cursor], b.buf[b.cursor+1:]...)
	tail := b.tail()
	return tail + " " + cursorLeft(len([]rune(tail))+1)
}

// CursorLeft moves one column left, bounded at the line start.
func (b *InputBuffer) CursorLeft() string {
	if b.cursor == 0 {
		return ""
	}
	b.cursor--
	return "\x1b[D"
}

// CursorRight moves one column right, bounded at the line end.
func (b *InputBuffer) CursorRight() string {
	if b.cursor >= len(b.buf) {
		return ""
	}
	b.cursor++
	return "\x1b[C"
}

// Home jumps to the start of the line.
func (b *InputBuffer) Home() string {
	if b.cursor == 0 {
		return ""
	}
	n := b.cursor
	b.cursor = 0
	return cursorLeft(n)
}

// End jumps past the last rune.
func (b *InputBuffer) End() string {
	n := len(b.buf) - b.cursor
	if n <= 0 {
		return ""
	}
	b.cursor = len(b.buf)
	return fmt.Sprintf("\x1b[%dC", n)
}

// KillToEnd truncates from the cursor to the end of line (Ctrl-K).
func (b *InputBuffer) KillToEnd() string {
	n := len(b.buf) - b.cursor
	if n <= 0 {
		return ""
	}
	b.buf = b.buf[:b.cursor]
	return strings.Repeat(" ", n) + cursorLeft(n)
}

// KillToStart removes everything before the cursor (Ctrl-U).
func (b *InputBuffer) KillToStart() string {
	if b.cursor == 0 {
		return ""
	}
	removed := b.cursor
	tail := b.tail()
	b.buf = []rune(tail)
	b.cursor = 0
	return cursorLeft(removed) + tail + strings.Repeat(" ", removed) +
		cursorLeft(len([]rune(tail))+removed)
}

// DeleteWord removes the word before the cursor: trailing spaces
// first, then the run of non-spaces (Ctrl-W).
func (b *InputBuffer) DeleteWord() string {
	if b.cursor == 0 {
		return ""
	}
	start := b.cursor
	for start > 0 && b.buf[start-1] == ' ' {
		start--
	}
	for start > 0 && b.buf[start-1] != ' ' {
		start--
	}
	removed := b.cursor - start
	if removed == 0 {
		return ""
	}
	b.buf = append(b.buf[:start], b.buf[b.cursor:]...)
	b.cursor = start
	tail := b.tail()
	return cursorLeft(removed) + tail + strings.Repeat(" ", removed) +
		cursorLeft(len([]rune(tail))+removed)
}

// replaceLine swaps the visible line for content: the echo clears the
// input area from its start and rewrites it.
func (b *InputBuffer) replaceLine(content string) string {
	echo := cursorLeft(b.cursor) + "\x1b[K" + content
	b.buf = []rune(content)
	b.cursor = len(b.buf)
	return echo
}

// HistoryUp recalls the previous command, preserving the fresh line
// in tempBuf on the first step.
func (b *InputBuffer) HistoryUp() string {
	if len(b.history) == 0 {
		return ""
	}
	if b.histIdx == -1 {
		b.tempBuf = string(b.buf)
		b.histIdx = len(b.history) - 1
	} else if b.histIdx > 0 {
		b.histIdx--
	}
	return b.replaceLine(b.history[b.histIdx])
}

// HistoryDown walks back toward the fresh line, restoring tempBuf
// when it steps past the newest entry.
func (b *InputBuffer) HistoryDown() string {
	if b.histIdx == -1 {
		return ""
	}
	if b.histIdx < len(b.history)-1 {
		b.histIdx++
		return b.replaceLine(b.history[b.histIdx])
	}
	b.histIdx = -1
	return b.replaceLine(b.tempBuf)
}

// Tab runs completion on the partial token before the cursor. redraw
// is true when candidates were listed and the caller must repaint the
// prompt and buffer.
func (b *InputBuffer) Tab() (echo string, redraw bool) {
	if b.complete == nil {
		return "", false
	}
	text := string(b.buf[:b.cursor])
	idx := strings.LastIndex(text, " ")
	partial := text[idx+1:]
	isCommand := idx == -1 || strings.TrimSpace(text[:idx+1]) == ""

	candidates := b.complete(partial, isCommand)
	switch len(candidates) {
	case 0:
		return "", false
	case 1:
		suffix := strings.TrimPrefix(candidates[0], partial)
		if !strings.HasSuffix(candidates[0], "/") {
			suffix += " "
		}
		return b.InsertString(suffix), false
	default:
		lcp := longestCommonPrefix(candidates)
		if len(lcp) > len(partial) {
			return b.InsertString(lcp[len(partial):]), false
		}
		return "\r\n" + strings.Join(candidates, "  ") + "\r\n", true
	}
}

// Submit finalises the line: the trimmed content is pushed to history
// when non-empty, the buffer resets, and the command string returns
// to the caller.
func (b *InputBuffer) Submit() string {
	line := strings.TrimSpace(string(b.buf))
	if line != "" {
		b.history = append(b.history, line)
	}
	b.reset()
	return line
}

// Abandon discards the line under edit (Ctrl-C).
func (b *InputBuffer) Abandon() {
	b.reset()
}

func (b *InputBuffer) reset() {
	b.buf = b.buf[:0]
	b.cursor = 0
	b.histIdx = -1
	b.tempBuf = ""
}

func cursorLeft(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("\x1b[%dD", n)
}

func longestCommonPrefix(items []string) string {
	if len(items) == 0 {
		return ""
	}
	prefix := items[0]
	for _, item := range items[1:] {
		for !strings.HasPrefix(item, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}
