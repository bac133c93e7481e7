package command

import (
	"regexp"
	"strings"

	"proctord/internal/shell"
)

func registerNode(r *Registry) {
	r.Register("node", cmdNode)
	r.Register("npm", cmdNpm)
	r.Register("npx", cmdNpx)
}

const (
	nodeVersion = "v18.19.0"
	npmVersion  = "10.2.3"
)

// consoleLogRe extracts string-literal console.log arguments from
// node -e snippets.
var consoleLogRe = regexp.MustCompile(`console\.log\(\s*['"` + "`" + `](.*?)['"` + "`" + `]\s*\)`)

func cmdNode(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if cmd.Bool("v", "version") {
		return ok(nodeVersion + "\n")
	}
	if cmd.Bool("e", "eval") {
		// The snippet is the first arg: quotes are already stripped.
		if len(cmd.Args) == 0 {
			return ok("")
		}
		return nodeEval(cmd.Args[0])
	}
	if len(cmd.Args) == 0 {
		return ok("Welcome to Node.js " + nodeVersion + ".\nType \".help\" for more information.\n")
	}
	file := cmd.Args[0]
	content, err := ctx.FS.ReadFile(ctx.ExpandPath(file), "/")
	if err != nil {
		return fail(1, "node: %s: No such file or directory", file)
	}
	switch {
	case strings.Contains(content, "express") && strings.Contains(content, "listen"):
		return ok("fleetcore api listening on 3000\nconnected to postgres at db:5432\n")
	case strings.Contains(content, "describe") || strings.Contains(content, "test(") || strings.Contains(content, "it("):
		return ok(cannedJest)
	default:
		return okf("[executed %s]\n", file)
	}
}

func nodeEval(code string) shell.Result {
	if m := consoleLogRe.FindStringSubmatch(code); m != nil {
		return ok(m[1] + "\n")
	}
	if v, err := evalArithmetic(trimConsoleLog(code)); err == nil {
		return ok(formatArithmetic(v) + "\n")
	}
	return fail(1, "node: unsupported expression in -e (string console.log and arithmetic only)")
}

// trimConsoleLog unwraps console.log(EXPR) so arithmetic inside the
// call also evaluates.
func trimConsoleLog(code string) string {
	code = strings.TrimSpace(code)
	if strings.HasPrefix(code, "console.log(") && strings.HasSuffix(code, ")") {
		return code[len("console.log(") : len(code)-1]
	}
	return code
}

const cannedJest = ` PASS  tests/vehicles.test.js
  vehicles api
    ✓ lists vehicles (12 ms)
    ✓ creates a vehicle (31 ms)

Test Suites: 1 passed, 1 total
Tests:       2 passed, 2 total
Snapshots:   0 total
Time:        1.284 s
Ran all test suites.
`

// npmScripts is the canned output per package.json script.
var npmScripts = map[string]string{
	"dev": `> fleetcore@2.4.1 dev
> nodemon src/index.js

[nodemon] 3.0.2
[nodemon] watching path(s): src/**
[nodemon] starting ` + "`node src/index.js`" + `
fleetcore api listening on 3000`,
	"build": `> fleetcore@2.4.1 build
> babel src -d dist

Successfully compiled 14 files with Babel (612ms).`,
	"test": `> fleetcore@2.4.1 test
> jest

` + cannedJest,
	"lint": `> fleetcore@2.4.1 lint
> eslint src/

✖ 2 problems (0 errors, 2 warnings)
  src/routes/vehicles.js
    14:7  warning  Unexpected console statement  no-console`,
	"migrate": `> fleetcore@2.4.1 migrate
> node scripts/migrate.js

== 001_init: migrating =======
== 001_init: migrated (0.041s)`,
	"seed": `> fleetcore@2.4.1 seed
> node scripts/seed.js

seeded 12 vehicles, 4 drivers`,
}

func cmdNpm(cmd shell.ParsedCommand, _ *Context, _ *string) shell.Result {
	if cmd.Bool("v", "version") {
		return ok(npmVersion + "\n")
	}
	if len(cmd.Args) == 0 {
		return fail(1, "npm <command>\n\nUsage:\nnpm install\nnpm run <script>\nnpm test")
	}
	switch cmd.Args[0] {
	case "install", "i", "ci":
		return ok("added 312 packages, and audited 313 packages in 4s\n\n42 packages are looking for funding\n\nfound 0 vulnerabilities\n")
	case "test", "t":
		return ok(npmScripts["test"] + "\n")
	case "start":
		return ok(npmScripts["dev"] + "\n")
	case "run":
		if len(cmd.Args) < 2 {
			var names []string
			for name := range npmScripts {
				names = append(names, "  "+name)
			}
			return okLines(append([]string{"Scripts available in fleetcore@2.4.1 via `npm run-script`:"}, names...))
		}
		script := cmd.Args[1]
		out, found := npmScripts[script]
		if !found {
			return fail(1, "npm ERR! Missing script: \"%s\"\nnpm ERR!\nnpm ERR! To see a list of scripts, run:\nnpm ERR!   npm run", script)
		}
		return ok(out + "\n")
	default:
		return fail(1, "npm ERR! Unknown command: \"%s\"", cmd.Args[0])
	}
}

func cmdNpx(cmd shell.ParsedCommand, _ *Context, _ *string) shell.Result {
	if len(cmd.Args) == 0 {
		return fail(1, "npx: missing command")
	}
	tool := cmd.Args[0]
	switch tool {
	case "jest":
		return ok(cannedJest)
	case "eslint":
		return ok(npmScripts["lint"] + "\n")
	case "nodemon":
		return ok(npmScripts["dev"] + "\n")
	default:
		return okf("npx: installed %s in 1.204s\n[executed %s]\n", tool, strings.Join(cmd.Args, " "))
	}
}
