package command

import (
	"fmt"
	"math/rand"
	"time"
)

// SimState holds the per-engine state of the stateful tool
// simulations. The source kept these as module-level singletons; they
// live here so concurrent sessions each see their own git repository
// and container fleet.
type SimState struct {
	Git    *GitState
	Docker *DockerState

	// rng seeds commit hashes and container IDs; sessions get
	// independent streams.
	rng *rand.Rand
}

// NewSimState seeds fresh tool state for one engine.
func NewSimState() *SimState {
	return &SimState{
		Git: NewGitState(),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *SimState) hex(n int) string {
	const digits = "0123456789abcdef"
	b := make([]byte, n)
	for i := range b {
		b[i] = digits[s.rng.Intn(len(digits))]
	}
	return string(b)
}

// Commit is one entry of the simulated history, newest first.
type Commit struct {
	Hash    string
	Author  string
	Email   string
	Date    time.Time
	Message string
}

// GitState models the working repository the git handler renders from.
type GitState struct {
	Initialized bool
	Branch      string
	Branches    []string
	Staged      []string
	Modified    []string
	Untracked   []string
	Commits     []Commit
	StashDepth  int
	RemoteURL   string
}

// NewGitState seeds the canned fleetcore history.
func NewGitState() *GitState {
	base := time.Date(2025, 11, 3, 9, 12, 0, 0, time.UTC)
	mk := func(hash, msg string, daysAgo int) Commit {
		return Commit{
			Hash:    hash,
			Author:  "Priya Raman",
			Email:   "priya@fleetcore.io",
			Date:    base.AddDate(0, 0, -daysAgo),
			Message: msg,
		}
	}
	return &GitState{
		Initialized: true,
		Branch:      "main",
		Branches:    []string{"main", "develop", "feature/driver-scores"},
		Modified:    []string{"src/routes/vehicles.js"},
		Untracked:   []string{".env"},
		RemoteURL:   "git@github.com:fleetcore/fleetcore.git",
		Commits: []Commit{
			mk("e4f1a2b9d3c5f6a7b8c9d0e1f2a3b4c5d6e7f8a9", "fix: handle null VIN on vehicle create", 0),
			mk("9c2d4e6f8a0b1c3d5e7f9a1b3c5d7e9f1a3b5c7d", "feat: add trip summary endpoint", 2),
			mk("7b5a3c1d9e8f7a6b5c4d3e2f1a0b9c8d7e6f5a4b", "chore: bump pg to 8.11", 5),
			mk("5d8e2f4a6b8c0d2e4f6a8b0c2d4e6f8a0b2c4d6e", "test: cover vehicle status transitions", 9),
			mk("3f6a9b2c5d8e1f4a7b0c3d6e9f2a5b8c1d4e7f0a", "feat: initial fleetcore scaffold", 14),
		},
	}
}

// Container is one simulated docker container.
type Container struct {
	ID      string
	Name    string
	Image   string
	Running bool
	Ports   string
	Started time.Time
}

// DockerState is the simulated daemon: a fixed fleet brought up and
// down by the docker and docker-compose handlers. It initialises
// lazily the first time any docker command runs, matching the way the
// real daemon only matters once invoked.
type DockerState struct {
	Containers map[string]*Container
	// Order fixes ps listings regardless of map iteration.
	Order []string
}

// dockerState returns the lazily initialised container fleet.
func (s *SimState) dockerState() *DockerState {
	if s.Docker == nil {
		s.Docker = &DockerState{
			Containers: map[string]*Container{
				"fleetcore-api": {
					ID: s.hex(12), Name: "fleetcore-api",
					Image: "fleetcore/api:2.4.1", Ports: "0.0.0.0:3000->3000/tcp",
				},
				"fleetcore-db": {
					ID: s.hex(12), Name: "fleetcore-db",
					Image: "postgres:15-alpine", Ports: "5432/tcp",
				},
				"fleetcore-cache": {
					ID: s.hex(12), Name: "fleetcore-cache",
					Image: "redis:7-alpine", Ports: "6379/tcp",
				},
			},
			Order: []string{"fleetcore-api", "fleetcore-db", "fleetcore-cache"},
		}
	}
	return s.Docker
}

// uptime renders a docker-style duration since start.
func uptime(since, now time.Time) string {
	d := now.Sub(since)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	default:
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
}
