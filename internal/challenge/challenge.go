// Package challenge carries the level/objective catalogue and the
// candidate's progress through it. The catalogue is data: the engine
// accepts any evaluator function, and the regex-driven one built here
// is simply the stock implementation hosts can replace.
package challenge

import (
	"regexp"
	"time"

	"proctord/internal/vfs"
)

// Objective is a named checkpoint a candidate is expected to satisfy.
// Completion is inferred from the submitted command and the state of
// the filesystem; any predicate left empty is ignored.
type Objective struct {
	ID          string `toml:"id"`
	Title       string `toml:"title"`
	Description string `toml:"description"`

	// CommandPattern matches the raw submitted line.
	CommandPattern string `toml:"command_pattern"`

	// RequireZeroExit gates completion on the command succeeding.
	RequireZeroExit bool `toml:"require_zero_exit"`

	// FileExists requires the given path to resolve.
	FileExists string `toml:"file_exists"`

	// FilePath and FilePattern require FilePath's content to match
	// FilePattern.
	FilePath    string `toml:"file_path"`
	FilePattern string `toml:"file_pattern"`

	Hint string `toml:"hint"`
}

// Level groups objectives. All objectives must complete before the
// candidate advances.
type Level struct {
	Number     int         `toml:"number"`
	Name       string      `toml:"name"`
	Rank       string      `toml:"rank"`
	Objectives []Objective `toml:"objectives"`
}

// Catalogue is the full rule set for one assessment.
type Catalogue struct {
	Levels []Level `toml:"levels"`
}

// LevelByNumber returns the level with the given number, or nil.
func (c *Catalogue) LevelByNumber(n int) *Level {
	for i := range c.Levels {
		if c.Levels[i].Number == n {
			return &c.Levels[i]
		}
	}
	return nil
}

// Objective finds an objective by ID across all levels.
func (c *Catalogue) Objective(id string) *Objective {
	for i := range c.Levels {
		for j := range c.Levels[i].Objectives {
			if c.Levels[i].Objectives[j].ID == id {
				return &c.Levels[i].Objectives[j]
			}
		}
	}
	return nil
}

// State is the candidate's mutable progress, owned by the command
// context for the duration of a session.
type State struct {
	Catalogue *Catalogue
	Level     int
	Rank      string
	Completed map[string]bool
	HintsUsed map[string]bool
	StartedAt time.Time
	LevelAt   time.Time
}

// NewState starts progress at the catalogue's first level.
func NewState(cat *Catalogue, now time.Time) *State {
	s := &State{
		Catalogue: cat,
		Level:     1,
		Completed: make(map[string]bool),
		HintsUsed: make(map[string]bool),
		StartedAt: now,
		LevelAt:   now,
	}
	if cat != nil && len(cat.Levels) > 0 {
		s.Level = cat.Levels[0].Number
		s.Rank = cat.Levels[0].Rank
	}
	return s
}

// CurrentLevel returns the active level, or nil when the catalogue is
// exhausted or absent.
func (s *State) CurrentLevel() *Level {
	if s.Catalogue == nil {
		return nil
	}
	return s.Catalogue.LevelByNumber(s.Level)
}

// LevelComplete reports whether every objective of the active level is
// done.
func (s *State) LevelComplete() bool {
	lvl := s.CurrentLevel()
	if lvl == nil {
		return false
	}
	for _, obj := range lvl.Objectives {
		if !s.Completed[obj.ID] {
			return false
		}
	}
	return len(lvl.Objectives) > 0
}

// Advance moves to the next catalogue level if there is one and
// returns the new level number.
func (s *State) Advance(now time.Time) (int, bool) {
	if s.Catalogue == nil {
		return s.Level, false
	}
	for i := range s.Catalogue.Levels {
		if s.Catalogue.Levels[i].Number == s.Level && i+1 < len(s.Catalogue.Levels) {
			next := s.Catalogue.Levels[i+1]
			s.Level = next.Number
			s.Rank = next.Rank
			s.LevelAt = now
			return s.Level, true
		}
	}
	return s.Level, false
}

// Evaluator inspects a completed command and the filesystem and
// returns the IDs of objectives newly satisfied by it. The engine
// filters out objectives already completed before recording.
type Evaluator func(fs *vfs.FS, cwd, raw string, exitCode int) []string

// NewEvaluator compiles the catalogue's patterns into an Evaluator.
// Patterns that fail to compile disable their predicate rather than
// poisoning the whole catalogue.
func NewEvaluator(cat *Catalogue, state *State) Evaluator {
	type compiled struct {
		obj     *Objective
		cmdRe   *regexp.Regexp
		fileRe  *regexp.Regexp
	}
	var rules []compiled
	for i := range cat.Levels {
		for j := range cat.Levels[i].Objectives {
			obj := &cat.Levels[i].Objectives[j]
			c := compiled{obj: obj}
			if obj.CommandPattern != "" {
				c.cmdRe, _ = regexp.Compile(obj.CommandPattern)
			}
			if obj.FilePattern != "" {
				c.fileRe, _ = regexp.Compile(obj.FilePattern)
			}
			rules = append(rules, c)
		}
	}

	return func(fs *vfs.FS, cwd, raw string, exitCode int) []string {
		var done []string
		lvl := state.CurrentLevel()
		for _, rule := range rules {
			if state.Completed[rule.obj.ID] {
				continue
			}
			// Only the active level's objectives are in play.
			if lvl != nil && !levelHas(lvl, rule.obj.ID) {
				continue
			}
			if rule.obj.RequireZeroExit && exitCode != 0 {
				continue
			}
			if rule.cmdRe != nil && !rule.cmdRe.MatchString(raw) {
				continue
			}
			if rule.obj.FileExists != "" && !fs.Exists(rule.obj.FileExists, cwd) {
				continue
			}
			if rule.fileRe != nil {
				content, err := fs.ReadFile(rule.obj.FilePath, cwd)
				if err != nil || !rule.fileRe.MatchString(content) {
					continue
				}
			}
			done = append(done, rule.obj.ID)
		}
		return done
	}
}

func levelHas(lvl *Level, id string) bool {
	for _, obj := range lvl.Objectives {
		if obj.ID == id {
			return true
		}
	}
	return false
}

// DefaultCatalogue is the stock fleetcore assessment: three levels of
// escalating recon, debugging and delivery work.
func DefaultCatalogue() *Catalogue {
	return &Catalogue{Levels: []Level{
		{
			Number: 1, Name: "Orientation", Rank: "junior",
			Objectives: []Objective{
				{
					ID: "explore-project", Title: "Explore the project",
					Description:    "List the fleetcore project directory.",
					CommandPattern: `^ls\b.*fleetcore|^ls$`, RequireZeroExit: true,
					Hint: "The project lives in ~/fleetcore.",
				},
				{
					ID: "read-package", Title: "Inspect the manifest",
					Description:    "Print the package.json of fleetcore.",
					CommandPattern: `^cat\b.*package\.json`, RequireZeroExit: true,
					Hint: "cat ~/fleetcore/package.json",
				},
			},
		},
		{
			Number: 2, Name: "Diagnosis", Rank: "mid",
			Objectives: []Objective{
				{
					ID: "start-stack", Title: "Bring up the stack",
					Description:    "Start the compose services.",
					CommandPattern: `^docker-compose up|^docker compose up`,
					Hint:           "docker-compose up -d from the project directory.",
				},
				{
					ID: "check-health", Title: "Verify the API",
					Description:    "Hit the health endpoint.",
					CommandPattern: `^curl\b.*(localhost|127\.0\.0\.1|api):3000/health`,
					RequireZeroExit: true,
					Hint:           "curl localhost:3000/health",
				},
			},
		},
		{
			Number: 3, Name: "Delivery", Rank: "senior",
			Objectives: []Objective{
				{
					ID: "write-notes", Title: "Leave a handoff note",
					Description: "Record your findings in NOTES.md at the project root.",
					FileExists:  "/home/candidate/fleetcore/NOTES.md",
					FilePath:    "/home/candidate/fleetcore/NOTES.md",
					FilePattern: `(?i)health|vehicles|compose`,
					Hint:        "echo your summary > ~/fleetcore/NOTES.md",
				},
				{
					ID: "commit-work", Title: "Commit the work",
					Description:    "Stage and commit your changes.",
					CommandPattern: `^git commit\b`, RequireZeroExit: true,
					Hint:           "git add . && git commit -m \"...\"",
				},
			},
		},
	}}
}
