package challenge

import (
	"reflect"
	"testing"
	"time"

	"proctord/internal/vfs"
)

func testCatalogue() *Catalogue {
	return &Catalogue{Levels: []Level{
		{
			Number: 1, Name: "One", Rank: "junior",
			Objectives: []Objective{
				{ID: "run-ls", CommandPattern: `^ls\b`, RequireZeroExit: true, Hint: "try ls"},
				{ID: "make-note", FileExists: "/note", FilePath: "/note", FilePattern: "done"},
			},
		},
		{
			Number: 2, Name: "Two", Rank: "mid",
			Objectives: []Objective{
				{ID: "later", CommandPattern: `^whoami$`},
			},
		},
	}}
}

func TestEvaluatorCommandPattern(t *testing.T) {
	cat := testCatalogue()
	state := NewState(cat, time.UnixMilli(0))
	eval := NewEvaluator(cat, state)
	fs := vfs.New()

	if ids := eval(fs, "/", "pwd", 0); ids != nil {
		t.Errorf("pwd completed %v", ids)
	}
	// Exit code gates completion.
	if ids := eval(fs, "/", "ls -la", 2); ids != nil {
		t.Errorf("failed ls completed %v", ids)
	}
	ids := eval(fs, "/", "ls -la", 0)
	if !reflect.DeepEqual(ids, []string{"run-ls"}) {
		t.Errorf("ids = %v", ids)
	}
	// The engine marks completion; once marked, no re-fire.
	state.Completed["run-ls"] = true
	if ids := eval(fs, "/", "ls", 0); ids != nil {
		t.Errorf("re-fired: %v", ids)
	}
}

func TestEvaluatorFilePredicates(t *testing.T) {
	cat := testCatalogue()
	state := NewState(cat, time.UnixMilli(0))
	eval := NewEvaluator(cat, state)
	fs := vfs.New()

	if ids := eval(fs, "/", "anything", 0); ids != nil {
		t.Errorf("no file yet: %v", ids)
	}
	fs.WriteFile("/note", "/", "work in progress") //nolint:errcheck
	if ids := eval(fs, "/", "anything", 0); ids != nil {
		t.Errorf("content not matching yet: %v", ids)
	}
	fs.WriteFile("/note", "/", "all done here") //nolint:errcheck
	if ids := eval(fs, "/", "anything", 0); !reflect.DeepEqual(ids, []string{"make-note"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestEvaluatorScopedToCurrentLevel(t *testing.T) {
	cat := testCatalogue()
	state := NewState(cat, time.UnixMilli(0))
	eval := NewEvaluator(cat, state)
	fs := vfs.New()

	// Level 2's objective does not fire while level 1 is active.
	if ids := eval(fs, "/", "whoami", 0); ids != nil {
		t.Errorf("out-of-level objective fired: %v", ids)
	}
	state.Completed["run-ls"] = true
	state.Completed["make-note"] = true
	if !state.LevelComplete() {
		t.Fatal("level should be complete")
	}
	if _, ok := state.Advance(time.UnixMilli(5)); !ok {
		t.Fatal("advance failed")
	}
	if ids := eval(fs, "/", "whoami", 0); !reflect.DeepEqual(ids, []string{"later"}) {
		t.Errorf("ids after advance = %v", ids)
	}
}

func TestStateAdvance(t *testing.T) {
	cat := testCatalogue()
	state := NewState(cat, time.UnixMilli(0))
	if state.Level != 1 || state.Rank != "junior" {
		t.Errorf("initial state = %+v", state)
	}
	level, ok := state.Advance(time.UnixMilli(9))
	if !ok || level != 2 || state.Rank != "mid" {
		t.Errorf("advance = %d %v rank=%s", level, ok, state.Rank)
	}
	// No level 3 to advance into.
	if _, ok := state.Advance(time.UnixMilli(10)); ok {
		t.Error("advance past the last level")
	}
}

func TestDefaultCatalogue(t *testing.T) {
	cat := DefaultCatalogue()
	if len(cat.Levels) != 3 {
		t.Fatalf("levels = %d", len(cat.Levels))
	}
	seen := map[string]bool{}
	for _, lvl := range cat.Levels {
		if len(lvl.Objectives) == 0 {
			t.Errorf("level %d has no objectives", lvl.Number)
		}
		for _, obj := range lvl.Objectives {
			if seen[obj.ID] {
				t.Errorf("duplicate objective id %q", obj.ID)
			}
			seen[obj.ID] = true
			if obj.Hint == "" {
				t.Errorf("objective %q has no hint", obj.ID)
			}
		}
	}
	if cat.Objective("check-health") == nil {
		t.Error("lookup by id failed")
	}
}
