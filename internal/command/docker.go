package command

import (
	"fmt"
	"strings"

	"proctord/internal/shell"
)

func registerDocker(r *Registry) {
	r.Register("docker", cmdDocker)
	r.Register("docker-compose", cmdDockerCompose)
}

func cmdDocker(cmd shell.ParsedCommand, ctx *Context, stdin *string) shell.Result {
	if len(cmd.Args) == 0 {
		return fail(1, "docker: 'docker' requires at least 1 argument.\nSee 'docker --help'")
	}
	state := ctx.Sim.dockerState()
	sub := cmd.Args[0]
	rest := cmd.Args[1:]
	switch sub {
	case "ps":
		return dockerPS(state, ctx, cmd.Bool("a"))
	case "images":
		return dockerImages(state)
	case "start":
		return dockerStart(state, ctx, rest)
	case "stop":
		return dockerStop(state, rest)
	case "restart":
		res := dockerStop(state, rest)
		if res.ExitCode != 0 {
			return res
		}
		return dockerStart(state, ctx, rest)
	case "logs":
		return dockerLogs(state, rest)
	case "exec":
		return dockerExec(state, cmd, rest)
	case "inspect":
		return dockerInspect(state, rest)
	case "compose":
		return composeDispatch(state, ctx, rest)
	case "--version", "version":
		return ok("Docker version 24.0.7, build afdd53b\n")
	default:
		return fail(1, "docker: '%s' is not a docker command.\nSee 'docker --help'", sub)
	}
}

func cmdDockerCompose(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	return composeDispatch(ctx.Sim.dockerState(), ctx, cmd.Args)
}

func dockerPS(state *DockerState, ctx *Context, all bool) shell.Result {
	lines := []string{"CONTAINER ID   IMAGE                 COMMAND                  STATUS          PORTS                    NAMES"}
	for _, name := range state.Order {
		c := state.Containers[name]
		if !c.Running && !all {
			continue
		}
		status := "Exited (0) 2 hours ago"
		ports := ""
		if c.Running {
			status = "Up " + uptime(c.Started, ctx.Now())
			ports = c.Ports
		}
		lines = append(lines, fmt.Sprintf("%-14s %-21s %-24s %-15s %-24s %s",
			c.ID, c.Image, `"docker-entrypoint.s…"`, status, ports, c.Name))
	}
	return okLines(lines)
}

func dockerImages(state *DockerState) shell.Result {
	lines := []string{"REPOSITORY       TAG          IMAGE ID       CREATED        SIZE"}
	seen := map[string]bool{}
	for _, name := range state.Order {
		c := state.Containers[name]
		repo, tag := c.Image, "latest"
		if idx := strings.LastIndex(c.Image, ":"); idx > 0 {
			repo, tag = c.Image[:idx], c.Image[idx+1:]
		}
		if seen[repo] {
			continue
		}
		seen[repo] = true
		lines = append(lines, fmt.Sprintf("%-16s %-12s %-14s %-14s %s",
			repo, tag, c.ID[:12], "2 weeks ago", "187MB"))
	}
	return okLines(lines)
}

func dockerStart(state *DockerState, ctx *Context, names []string) shell.Result {
	if len(names) == 0 {
		return fail(1, "docker: 'docker start' requires at least 1 argument.")
	}
	var lines []string
	for _, name := range names {
		c, found := state.Containers[name]
		if !found {
			return fail(1, "Error response from daemon: No such container: %s", name)
		}
		c.Running = true
		c.Started = ctx.Now()
		lines = append(lines, name)
	}
	return okLines(lines)
}

func dockerStop(state *DockerState, names []string) shell.Result {
	if len(names) == 0 {
		return fail(1, "docker: 'docker stop' requires at least 1 argument.")
	}
	var lines []string
	for _, name := range names {
		c, found := state.Containers[name]
		if !found {
			return fail(1, "Error response from daemon: No such container: %s", name)
		}
		c.Running = false
		lines = append(lines, name)
	}
	return okLines(lines)
}

// containerLogs is the canned per-service output rendered by docker
// logs.
var containerLogs = map[string]string{
	"fleetcore-api": `> fleetcore@2.4.1 start
> node src/index.js

fleetcore api listening on 3000
connected to postgres at db:5432
redis cache ready`,
	"fleetcore-db": `PostgreSQL init process complete; ready for start up.
2025-11-17 08:00:01.421 UTC [1] LOG:  starting PostgreSQL 15.4
2025-11-17 08:00:01.440 UTC [1] LOG:  listening on IPv4 address "0.0.0.0", port 5432
2025-11-17 08:00:01.466 UTC [1] LOG:  database system is ready to accept connections`,
	"fleetcore-cache": `1:C 17 Nov 2025 08:00:01.102 * Redis version=7.2.3, just started
1:M 17 Nov 2025 08:00:01.104 * Ready to accept connections tcp`,
}

func dockerLogs(state *DockerState, args []string) shell.Result {
	if len(args) == 0 {
		return fail(1, "docker: 'docker logs' requires exactly 1 argument.")
	}
	name := args[len(args)-1]
	if _, found := state.Containers[name]; !found {
		return fail(1, "Error response from daemon: No such container: %s", name)
	}
	return ok(containerLogs[name] + "\n")
}

func dockerExec(state *DockerState, cmd shell.ParsedCommand, args []string) shell.Result {
	// Skip -it style chords that the flag parser already captured.
	if len(args) < 2 {
		return fail(1, "docker: 'docker exec' requires at least 2 arguments.")
	}
	name := args[0]
	inner := strings.Join(args[1:], " ")
	c, found := state.Containers[name]
	if !found {
		return fail(1, "Error response from daemon: No such container: %s", name)
	}
	if !c.Running {
		return fail(1, "Error response from daemon: container %s is not running", name)
	}
	switch {
	case strings.Contains(inner, "pg_isready"):
		if strings.Contains(name, "db") {
			return ok("/var/run/postgresql:5432 - accepting connections\n")
		}
		return fail(1, "OCI runtime exec failed: exec: \"pg_isready\": executable file not found in $PATH")
	case strings.Contains(inner, "psql"):
		if strings.Contains(name, "db") {
			return ok("psql (15.4)\nType \"help\" for help.\n\nfleetcore=#\n")
		}
		return fail(1, "OCI runtime exec failed: exec: \"psql\": executable file not found in $PATH")
	case strings.Contains(inner, "redis-cli") && strings.Contains(inner, "ping"):
		if strings.Contains(name, "cache") {
			return ok("PONG\n")
		}
		return fail(1, "OCI runtime exec failed: exec: \"redis-cli\": executable file not found in $PATH")
	case strings.HasPrefix(inner, "ls"):
		return ok("app  bin  etc  lib  node_modules  package.json  src  usr  var\n")
	case strings.HasPrefix(inner, "env"):
		return ok("PATH=/usr/local/bin:/usr/bin:/bin\nNODE_ENV=production\nHOME=/root\n")
	default:
		return okf("[executed in %s] %s\n", name, inner)
	}
}

func dockerInspect(state *DockerState, args []string) shell.Result {
	if len(args) == 0 {
		return fail(1, "docker: 'docker inspect' requires at least 1 argument.")
	}
	name := args[0]
	c, found := state.Containers[name]
	if !found {
		return fail(1, "Error: No such object: %s", name)
	}
	status := "exited"
	running := "false"
	if c.Running {
		status, running = "running", "true"
	}
	return okf(`[
    {
        "Id": "%s",
        "Name": "/%s",
        "Config": {
            "Image": "%s"
        },
        "State": {
            "Status": "%s",
            "Running": %s
        },
        "NetworkSettings": {
            "Ports": "%s"
        }
    }
]
`, c.ID, c.Name, c.Image, status, running, c.Ports)
}

func composeDispatch(state *DockerState, ctx *Context, args []string) shell.Result {
	if len(args) == 0 {
		return fail(1, "docker compose: missing command (up, down, ps, logs)")
	}
	switch args[0] {
	case "up":
		var lines []string
		lines = append(lines, "Creating network \"fleetcore_default\" with the default driver")
		for _, name := range state.Order {
			c := state.Containers[name]
			c.Running = true
			c.Started = ctx.Now()
			lines = append(lines, fmt.Sprintf("Creating %s ... done", name))
		}
		return okLines(lines)
	case "down":
		var lines []string
		for i := len(state.Order) - 1; i >= 0; i-- {
			c := state.Containers[state.Order[i]]
			c.Running = false
			lines = append(lines, fmt.Sprintf("Stopping %s ... done", c.Name))
			lines = append(lines, fmt.Sprintf("Removing %s ... done", c.Name))
		}
		lines = append(lines, "Removing network fleetcore_default")
		return okLines(lines)
	case "ps":
		return dockerPS(state, ctx, true)
	case "logs":
		if len(args) > 1 {
			return dockerLogs(state, args[1:])
		}
		var blocks []string
		for _, name := range state.Order {
			blocks = append(blocks, containerLogs[name])
		}
		return ok(strings.Join(blocks, "\n") + "\n")
	default:
		return fail(1, "docker compose: unknown command %q", args[0])
	}
}
