package editor

import (
	"reflect"
	"strings"
	"testing"
)

// typeString feeds printables one keystroke at a time.
func typeString(b *InputBuffer, s string) {
	for _, r := range s {
		b.Insert(r)
	}
}

func TestInsertAndCursorInvariant(t *testing.T) {
	b := New()
	typeString(b, "hello")
	if b.Buffer() != "hello" || b.Cursor() != 5 {
		t.Fatalf("buffer = %q cursor = %d", b.Buffer(), b.Cursor())
	}

	// The invariant 0 <= cursor <= len holds after arbitrary motion.
	ops := []func() string{
		b.CursorLeft, b.CursorLeft, b.CursorRight, b.Home, b.End,
		b.Backspace, b.Delete, b.KillToEnd, b.KillToStart, b.DeleteWord,
	}
	for i, op := range ops {
		op()
		if b.Cursor() < 0 || b.Cursor() > len(b.Buffer()) {
			t.Fatalf("op %d broke the cursor invariant: cursor=%d len=%d", i, b.Cursor(), len(b.Buffer()))
		}
	}
}

func TestBlockEqualsKeystrokes(t *testing.T) {
	// Feeding a string as one block produces the same state as
	// keystroke-by-keystroke.
	const input = "git commit -m wip"
	a, bb := New(), New()
	typeString(a, input)
	bb.InsertString(input)
	if a.Buffer() != bb.Buffer() || a.Cursor() != bb.Cursor() {
		t.Errorf("block insert diverged: %q/%d vs %q/%d",
			a.Buffer(), a.Cursor(), bb.Buffer(), bb.Cursor())
	}
}

func TestInsertEcho(t *testing.T) {
	b := New()
	if echo := b.Insert('a'); echo != "a" {
		t.Errorf("append echo = %q", echo)
	}
	b.Insert('c')
	b.CursorLeft()
	// Inserting mid-line echoes the char, the tail, and a cursor-back.
	if echo := b.Insert('b'); echo != "bc\x1b[1D" {
		t.Errorf("mid-line echo = %q", echo)
	}
	if b.Buffer() != "abc" || b.Cursor() != 2 {
		t.Errorf("state = %q/%d", b.Buffer(), b.Cursor())
	}
}

func TestBackspaceEcho(t *testing.T) {
	b := New()
	typeString(b, "ab")
	if echo := b.Backspace(); echo != "\x1b[D \x1b[1D" {
		t.Errorf("end backspace echo = %q", echo)
	}
	if b.Buffer() != "a" {
		t.Errorf("buffer = %q", b.Buffer())
	}
	// Mid-line backspace rewrites the tail.
	b2 := New()
	typeString(b2, "abc")
	b2.CursorLeft()
	if echo := b2.Backspace(); echo != "\x1b[Dc \x1b[2D" {
		t.Errorf("mid backspace echo = %q", echo)
	}
	if b2.Buffer() != "ac" || b2.Cursor() != 1 {
		t.Errorf("state = %q/%d", b2.Buffer(), b2.Cursor())
	}
	// At line start it is a no-op.
	b3 := New()
	if echo := b3.Backspace(); echo != "" {
		t.Errorf("empty backspace echo = %q", echo)
	}
}

func TestDeleteUnderCursor(t *testing.T) {
	b := New()
	typeString(b, "abc")
	b.Home()
	if echo := b.Delete(); echo != "bc \x1b[3D" {
		t.Errorf("delete echo = %q", echo)
	}
	if b.Buffer() != "bc" || b.Cursor() != 0 {
		t.Errorf("state = %q/%d", b.Buffer(), b.Cursor())
	}
}

func TestKillOperations(t *testing.T) {
	t.Run("ctrl-k", func(t *testing.T) {
		b := New()
		typeString(b, "abcdef")
		b.Home()
		b.CursorRight()
		b.CursorRight()
		echo := b.KillToEnd()
		if b.Buffer() != "ab" || b.Cursor() != 2 {
			t.Errorf("state = %q/%d", b.Buffer(), b.Cursor())
		}
		if echo != "    \x1b[4D" {
			t.Errorf("echo = %q", echo)
		}
	})
	t.Run("ctrl-u", func(t *testing.T) {
		b := New()
		typeString(b, "abcdef")
		b.Home()
		b.CursorRight()
		b.CursorRight()
		b.KillToStart()
		if b.Buffer() != "cdef" || b.Cursor() != 0 {
			t.Errorf("state = %q/%d", b.Buffer(), b.Cursor())
		}
	})
	t.Run("ctrl-w", func(t *testing.T) {
		b := New()
		typeString(b, "git commit  ")
		b.DeleteWord()
		if b.Buffer() != "git " {
			t.Errorf("buffer = %q", b.Buffer())
		}
		b2 := New()
		typeString(b2, "single")
		b2.DeleteWord()
		if b2.Buffer() != "" {
			t.Errorf("buffer = %q", b2.Buffer())
		}
	})
}

func TestHistoryNavigation(t *testing.T) {
	b := New()
	typeString(b, "ls")
	b.Submit()
	typeString(b, "pwd")
	b.Submit()

	// Start a fresh line, then walk history:
	// up -> pwd, up -> ls, down -> pwd, down -> fresh content.
	typeString(b, "draft")
	b.HistoryUp()
	if b.Buffer() != "pwd" {
		t.Errorf("after up: %q", b.Buffer())
	}
	b.HistoryUp()
	if b.Buffer() != "ls" {
		t.Errorf("after up up: %q", b.Buffer())
	}
	b.HistoryDown()
	if b.Buffer() != "pwd" {
		t.Errorf("after down: %q", b.Buffer())
	}
	b.HistoryDown()
	if b.Buffer() != "draft" {
		t.Errorf("fresh line lost: %q", b.Buffer())
	}
	// Up at the oldest entry stays there.
	b.HistoryUp()
	b.HistoryUp()
	b.HistoryUp()
	if b.Buffer() != "ls" {
		t.Errorf("beyond oldest: %q", b.Buffer())
	}
}

func TestSubmit(t *testing.T) {
	b := New()
	typeString(b, "  ls -la  ")
	line := b.Submit()
	if line != "ls -la" {
		t.Errorf("submit = %q", line)
	}
	if b.Buffer() != "" || b.Cursor() != 0 {
		t.Errorf("buffer not cleared: %q/%d", b.Buffer(), b.Cursor())
	}
	if !reflect.DeepEqual(b.History(), []string{"ls -la"}) {
		t.Errorf("history = %v", b.History())
	}
	// Empty submissions do not enter history; duplicates do.
	b.Submit()
	typeString(b, "ls -la")
	b.Submit()
	if got := b.History(); len(got) != 2 {
		t.Errorf("history = %v", got)
	}
}

func TestTabCompletion(t *testing.T) {
	newWith := func(candidates ...string) *InputBuffer {
		b := New()
		b.SetCompletionProvider(func(partial string, isCommand bool) []string {
			var out []string
			for _, c := range candidates {
				if strings.HasPrefix(c, partial) {
					out = append(out, c)
				}
			}
			return out
		})
		return b
	}

	t.Run("no candidates", func(t *testing.T) {
		b := newWith()
		typeString(b, "zz")
		echo, redraw := b.Tab()
		if echo != "" || redraw || b.Buffer() != "zz" {
			t.Errorf("echo=%q redraw=%v buffer=%q", echo, redraw, b.Buffer())
		}
	})
	t.Run("single candidate appends space", func(t *testing.T) {
		b := newWith("grep")
		typeString(b, "gr")
		echo, _ := b.Tab()
		if b.Buffer() != "grep " {
			t.Errorf("buffer = %q", b.Buffer())
		}
		if echo != "ep " {
			t.Errorf("echo = %q", echo)
		}
	})
	t.Run("directory candidate keeps slash", func(t *testing.T) {
		b := newWith("src/")
		typeString(b, "sr")
		b.Tab()
		if b.Buffer() != "src/" {
			t.Errorf("buffer = %q", b.Buffer())
		}
	})
	t.Run("common prefix extension", func(t *testing.T) {
		b := newWith("docker", "docker-compose")
		typeString(b, "doc")
		echo, redraw := b.Tab()
		if b.Buffer() != "docker" || redraw {
			t.Errorf("buffer = %q redraw = %v", b.Buffer(), redraw)
		}
		if echo != "ker" {
			t.Errorf("echo = %q", echo)
		}
	})
	t.Run("no extension lists candidates", func(t *testing.T) {
		b := newWith("docker", "docker-compose")
		typeString(b, "docker")
		echo, redraw := b.Tab()
		if !redraw {
			t.Error("redraw = false")
		}
		if echo != "\r\ndocker  docker-compose\r\n" {
			t.Errorf("echo = %q", echo)
		}
		if b.Buffer() != "docker" {
			t.Errorf("buffer changed: %q", b.Buffer())
		}
	})
	t.Run("second token completes as path", func(t *testing.T) {
		var gotPartial string
		var gotIsCommand bool
		b := New()
		b.SetCompletionProvider(func(partial string, isCommand bool) []string {
			gotPartial, gotIsCommand = partial, isCommand
			return nil
		})
		typeString(b, "cat fl")
		b.Tab()
		if gotPartial != "fl" || gotIsCommand {
			t.Errorf("partial=%q isCommand=%v", gotPartial, gotIsCommand)
		}
	})
}
