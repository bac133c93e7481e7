package command

import (
	"strings"
	"testing"
	"time"

	"proctord/internal/vfs"
)

// newTestDispatcher builds a dispatcher over the stock workspace with
// a fixed clock.
func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	ctx := NewContext(vfs.DefaultWorkspace(), "candidate", "fleetcore-dev")
	ctx.Now = func() time.Time {
		return time.Date(2025, 11, 17, 9, 30, 0, 0, time.UTC)
	}
	d := &Dispatcher{Reg: NewDefaultRegistry(), Ctx: ctx}
	ctx.Exec = d.Run
	return d
}

// stripANSI removes colour and cursor sequences for content asserts.
func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '[' {
			i += 2
			for i < len(s) && !(s[i] >= 0x40 && s[i] <= 0x7e) {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// =============================================================================
// Dispatch basics
// =============================================================================

func TestUnknownCommand(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Run("frobnicate")
	if res.ExitCode != 127 {
		t.Errorf("exit = %d, want 127", res.ExitCode)
	}
	if res.Output != "frobnicate: command not found\n" {
		t.Errorf("output = %q", res.Output)
	}
}

func TestBareAssignment(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Run("API_URL=http://localhost:3000")
	if res.ExitCode != 0 || res.Output != "" {
		t.Errorf("res = %+v", res)
	}
	if d.Ctx.Env["API_URL"] != "http://localhost:3000" {
		t.Errorf("env = %q", d.Ctx.Env["API_URL"])
	}
	// And it expands afterwards.
	res = d.Run("echo $API_URL")
	if res.Output != "http://localhost:3000\n" {
		t.Errorf("echo = %q", res.Output)
	}
}

// =============================================================================
// End-to-end scenarios
// =============================================================================

func TestQuotedPipeline(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Run(`echo "hello world" | wc -w`)
	if strings.TrimSpace(res.Output) != "2" || res.ExitCode != 0 {
		t.Errorf("res = %+v", res)
	}
}

func TestConditionalShortCircuit(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Run("false && echo should-not-appear ; true && echo yes")
	if res.Output != "yes\n" || res.ExitCode != 0 {
		t.Errorf("res = %+v", res)
	}
}

func TestRedirectionThenReadBack(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Run("echo hi > /tmp/x && cat /tmp/x")
	if res.Output != "hi\n" || res.ExitCode != 0 {
		t.Errorf("res = %+v", res)
	}
	if got, _ := d.Ctx.FS.ReadFile("/tmp/x", "/"); got != "hi\n" {
		t.Errorf("/tmp/x = %q", got)
	}
}

// =============================================================================
// Coreutils
// =============================================================================

func TestCdAndPwd(t *testing.T) {
	d := newTestDispatcher(t)
	if res := d.Run("pwd"); res.Output != "/home/candidate\n" {
		t.Errorf("pwd = %q", res.Output)
	}
	if res := d.Run("cd fleetcore"); res.ExitCode != 0 {
		t.Errorf("cd failed: %+v", res)
	}
	if d.Ctx.CWD != "/home/candidate/fleetcore" {
		t.Errorf("cwd = %q", d.Ctx.CWD)
	}
	if d.Ctx.Env["PWD"] != "/home/candidate/fleetcore" {
		t.Errorf("PWD = %q", d.Ctx.Env["PWD"])
	}
	// cd - returns to OLDPWD and echoes it.
	res := d.Run("cd -")
	if res.Output != "/home/candidate\n" || d.Ctx.CWD != "/home/candidate" {
		t.Errorf("cd - : %+v cwd=%q", res, d.Ctx.CWD)
	}
	// Errors.
	if res := d.Run("cd /missing"); res.ExitCode != 1 || !strings.Contains(res.Output, "No such file") {
		t.Errorf("cd missing: %+v", res)
	}
	if res := d.Run("cd /etc/hostname"); res.ExitCode != 1 || !strings.Contains(res.Output, "Not a directory") {
		t.Errorf("cd file: %+v", res)
	}
	// Tilde.
	d.Run("cd /tmp")
	d.Run("cd ~")
	if d.Ctx.CWD != "/home/candidate" {
		t.Errorf("cd ~ cwd = %q", d.Ctx.CWD)
	}
}

func TestLs(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Run("ls /home/candidate")
	if res.ExitCode != 0 {
		t.Fatalf("ls: %+v", res)
	}
	plain := stripANSI(res.Output)
	if !strings.Contains(plain, "fleetcore") || !strings.Contains(plain, "README.md") {
		t.Errorf("ls = %q", plain)
	}
	// Hidden entries only with -a.
	if strings.Contains(plain, ".bashrc") {
		t.Error("ls shows dotfiles without -a")
	}
	plainAll := stripANSI(d.Run("ls -a /home/candidate").Output)
	if !strings.Contains(plainAll, ".bashrc") || !strings.Contains(plainAll, " .") {
		t.Errorf("ls -a = %q", plainAll)
	}
	// Long format has permissions.
	long := stripANSI(d.Run("ls -la /home/candidate").Output)
	if !strings.Contains(long, "drwxr-xr-x") || !strings.Contains(long, "candidate") {
		t.Errorf("ls -la = %q", long)
	}
	// ls on a file prints the name.
	file := stripANSI(d.Run("ls /etc/hostname").Output)
	if strings.TrimSpace(file) != "/etc/hostname" && !strings.Contains(file, "hostname") {
		t.Errorf("ls file = %q", file)
	}
	// Missing path is exit 2.
	if res := d.Run("ls /nope"); res.ExitCode != 2 {
		t.Errorf("ls missing exit = %d", res.ExitCode)
	}
}

func TestCat(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Run("cat /etc/hostname")
	if res.Output != "fleetcore-dev\n" || res.ExitCode != 0 {
		t.Errorf("cat = %+v", res)
	}
	if res := d.Run("cat /etc"); res.ExitCode != 1 || !strings.Contains(res.Output, "Is a directory") {
		t.Errorf("cat dir = %+v", res)
	}
	if res := d.Run("cat /nope"); res.ExitCode != 1 {
		t.Errorf("cat missing = %+v", res)
	}
	// Stdin passthrough.
	if res := d.Run("echo via-stdin | cat"); res.Output != "via-stdin\n" {
		t.Errorf("cat stdin = %q", res.Output)
	}
}

func TestMkdirRmIdempotence(t *testing.T) {
	d := newTestDispatcher(t)
	if res := d.Run("mkdir -p a/b/c"); res.ExitCode != 0 {
		t.Fatalf("mkdir -p: %+v", res)
	}
	before := d.Ctx.FS.ToSnapshot()
	if res := d.Run("mkdir -p a/b/c"); res.ExitCode != 0 {
		t.Errorf("second mkdir -p: %+v", res)
	}
	after := d.Ctx.FS.ToSnapshot()
	if countNodes(before) != countNodes(after) {
		t.Error("second mkdir -p changed the tree")
	}

	if res := d.Run("mkdir a/b/c"); res.ExitCode == 0 {
		t.Error("plain mkdir over existing should fail")
	}
	if res := d.Run("rm a"); res.ExitCode != 1 {
		t.Errorf("rm dir without -r: %+v", res)
	}
	if res := d.Run("rm -r a"); res.ExitCode != 0 {
		t.Errorf("rm -r: %+v", res)
	}
	if d.Ctx.FS.Exists("/home/candidate/a", "/") {
		t.Error("a still exists")
	}
	if res := d.Run("rm nope"); res.ExitCode != 1 {
		t.Errorf("rm missing: %+v", res)
	}
	if res := d.Run("rm -f nope"); res.ExitCode != 0 {
		t.Errorf("rm -f missing: %+v", res)
	}
}

func countNodes(s *vfs.SnapshotNode) int {
	n := 1
	for _, c := range s.Children {
		n += countNodes(c)
	}
	return n
}

func TestCpMv(t *testing.T) {
	d := newTestDispatcher(t)
	d.Run("echo data > src.txt")
	if res := d.Run("cp src.txt copy.txt"); res.ExitCode != 0 {
		t.Fatalf("cp: %+v", res)
	}
	if got, _ := d.Ctx.FS.ReadFile("/home/candidate/copy.txt", "/"); got != "data\n" {
		t.Errorf("copy = %q", got)
	}
	if res := d.Run("mv copy.txt moved.txt"); res.ExitCode != 0 {
		t.Fatalf("mv: %+v", res)
	}
	if d.Ctx.FS.Exists("/home/candidate/copy.txt", "/") {
		t.Error("mv left the source behind")
	}
	if res := d.Run("cp fleetcore nodir"); res.ExitCode != 1 {
		t.Errorf("cp dir without -r: %+v", res)
	}
	if res := d.Run("cp -r fleetcore fleetcopy"); res.ExitCode != 0 {
		t.Errorf("cp -r: %+v", res)
	}
	if !d.Ctx.FS.IsFile("/home/candidate/fleetcopy/package.json", "/") {
		t.Error("cp -r did not copy children")
	}
}

func TestFindName(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Run(`find fleetcore -name *.js`)
	if res.ExitCode != 0 {
		t.Fatalf("find: %+v", res)
	}
	if !strings.Contains(res.Output, "/home/candidate/fleetcore/src/index.js") {
		t.Errorf("find output = %q", res.Output)
	}
	if strings.Contains(res.Output, "package.json") {
		t.Errorf("find matched non-js: %q", res.Output)
	}
}

func TestGrepExitCodes(t *testing.T) {
	d := newTestDispatcher(t)
	if res := d.Run("grep express fleetcore/package.json"); res.ExitCode != 0 {
		t.Errorf("match exit = %d", res.ExitCode)
	}
	if res := d.Run("grep nonesuch fleetcore/package.json"); res.ExitCode != 1 {
		t.Errorf("no-match exit = %d", res.ExitCode)
	}
	if res := d.Run("grep"); res.ExitCode != 2 {
		t.Errorf("usage exit = %d", res.ExitCode)
	}
	// Recursive output is file:line:text.
	res := d.Run("grep -r express fleetcore")
	plain := stripANSI(res.Output)
	if !strings.Contains(plain, "fleetcore/package.json:") {
		t.Errorf("grep -r = %q", plain)
	}
	// Case-insensitive.
	if res := d.Run("grep -i EXPRESS fleetcore/package.json"); res.ExitCode != 0 {
		t.Errorf("grep -i exit = %d", res.ExitCode)
	}
	// Stdin filter.
	res = d.Run("echo match-me | grep match")
	if strings.TrimSpace(res.Output) != "match-me" {
		t.Errorf("stdin grep = %q", res.Output)
	}
}

func TestHeadTailWc(t *testing.T) {
	d := newTestDispatcher(t)
	d.Ctx.FS.WriteFile("/tmp/nums", "/", "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12\n") //nolint:errcheck

	if res := d.Run("head /tmp/nums"); len(splitLines(res.Output)) != 10 {
		t.Errorf("head default = %q", res.Output)
	}
	if res := d.Run("head -n 3 /tmp/nums"); strings.TrimSpace(res.Output) != "1\n2\n3" {
		t.Errorf("head -n 3 = %q", res.Output)
	}
	if res := d.Run("tail -n 2 /tmp/nums"); strings.TrimSpace(res.Output) != "11\n12" {
		t.Errorf("tail -n 2 = %q", res.Output)
	}
	// Stdin when no file.
	if res := d.Run("cat /tmp/nums | head -n 1"); strings.TrimSpace(res.Output) != "1" {
		t.Errorf("piped head = %q", res.Output)
	}
	// wc counts.
	if res := d.Run("wc -l /tmp/nums"); strings.TrimSpace(res.Output) != "12 /tmp/nums" {
		t.Errorf("wc -l = %q", res.Output)
	}
	if res := d.Run("cat /tmp/nums | wc -l"); strings.TrimSpace(res.Output) != "12" {
		t.Errorf("piped wc -l = %q", res.Output)
	}
}

func TestTree(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Run("tree -L 1 fleetcore")
	plain := stripANSI(res.Output)
	if !strings.Contains(plain, "├── ") && !strings.Contains(plain, "└── ") {
		t.Errorf("tree connectors missing: %q", plain)
	}
	if !strings.Contains(plain, "directories") || !strings.Contains(plain, "files") {
		t.Errorf("tree summary missing: %q", plain)
	}
	// Depth 1 must not include nested files.
	if strings.Contains(plain, "index.js") {
		t.Errorf("tree -L 1 descended too far: %q", plain)
	}
}

// =============================================================================
// Builtins and text utils
// =============================================================================

func TestEcho(t *testing.T) {
	d := newTestDispatcher(t)
	tests := []struct {
		line string
		want string
	}{
		{"echo hello", "hello\n"},
		{"echo -n hello", "hello"},
		{`echo -e 'a\nb'`, "a\nb\n"},
		{"echo $USER", "candidate\n"},
		{"echo ${HOME}", "/home/candidate\n"},
		{"echo $UNSET_VAR", "\n"},
	}
	for _, tt := range tests {
		if res := d.Run(tt.line); res.Output != tt.want {
			t.Errorf("%s = %q, want %q", tt.line, res.Output, tt.want)
		}
	}
}

func TestExportEnvHistory(t *testing.T) {
	d := newTestDispatcher(t)
	d.Run("export FOO=bar")
	if d.Ctx.Env["FOO"] != "bar" {
		t.Errorf("FOO = %q", d.Ctx.Env["FOO"])
	}
	if res := d.Run("env"); !strings.Contains(res.Output, "FOO=bar") {
		t.Errorf("env = %q", res.Output)
	}
	if res := d.Run("export"); !strings.Contains(res.Output, `declare -x FOO="bar"`) {
		t.Errorf("export listing = %q", res.Output)
	}
	if res := d.Run("clear"); res.Output != "\x1b[2J\x1b[H" {
		t.Errorf("clear = %q", res.Output)
	}
	if res := d.Run("whoami"); res.Output != "candidate\n" {
		t.Errorf("whoami = %q", res.Output)
	}
	if res := d.Run("uname -a"); !strings.Contains(res.Output, "Linux fleetcore-dev") {
		t.Errorf("uname -a = %q", res.Output)
	}
	if res := d.Run("which node"); strings.TrimSpace(res.Output) != "/usr/local/bin/node" {
		t.Errorf("which = %q", res.Output)
	}
	if res := d.Run("which no-such-tool"); res.ExitCode != 1 {
		t.Errorf("which unknown exit = %d", res.ExitCode)
	}
}

func TestSortUniqXargs(t *testing.T) {
	d := newTestDispatcher(t)
	d.Ctx.FS.WriteFile("/tmp/list", "/", "b\na\nc\na\n") //nolint:errcheck

	if res := d.Run("sort /tmp/list"); strings.TrimSpace(res.Output) != "a\na\nb\nc" {
		t.Errorf("sort = %q", res.Output)
	}
	if res := d.Run("sort -r /tmp/list"); strings.TrimSpace(res.Output) != "c\nb\na\na" {
		t.Errorf("sort -r = %q", res.Output)
	}
	if res := d.Run("sort -u /tmp/list"); strings.TrimSpace(res.Output) != "a\nb\nc" {
		t.Errorf("sort -u = %q", res.Output)
	}
	d.Ctx.FS.WriteFile("/tmp/nums", "/", "10\n9\n2\n") //nolint:errcheck
	if res := d.Run("sort -n /tmp/nums"); strings.TrimSpace(res.Output) != "2\n9\n10" {
		t.Errorf("sort -n = %q", res.Output)
	}
	// uniq dedups consecutive runs only.
	d.Ctx.FS.WriteFile("/tmp/dups", "/", "a\na\nb\na\n") //nolint:errcheck
	if res := d.Run("uniq /tmp/dups"); strings.TrimSpace(res.Output) != "a\nb\na" {
		t.Errorf("uniq = %q", res.Output)
	}
	// xargs joins stdin tokens onto the sub-command.
	if res := d.Run("echo /etc/hostname | xargs cat"); res.Output != "fleetcore-dev\n" {
		t.Errorf("xargs = %q", res.Output)
	}
}

// =============================================================================
// Simulated tools
// =============================================================================

func TestDockerLifecycle(t *testing.T) {
	d := newTestDispatcher(t)
	// All three seeded containers start stopped.
	plain := stripANSI(d.Run("docker ps").Output)
	if strings.Contains(plain, "fleetcore-api") {
		t.Errorf("docker ps shows stopped containers: %q", plain)
	}
	plain = stripANSI(d.Run("docker ps -a").Output)
	for _, name := range []string{"fleetcore-api", "fleetcore-db", "fleetcore-cache"} {
		if !strings.Contains(plain, name) {
			t.Errorf("docker ps -a missing %s: %q", name, plain)
		}
	}

	if res := d.Run("docker start fleetcore-db"); res.ExitCode != 0 {
		t.Fatalf("docker start: %+v", res)
	}
	if !strings.Contains(d.Run("docker ps").Output, "fleetcore-db") {
		t.Error("started container missing from docker ps")
	}
	if res := d.Run("docker stop fleetcore-db"); res.ExitCode != 0 {
		t.Fatalf("docker stop: %+v", res)
	}
	if res := d.Run("docker start nope"); res.ExitCode != 1 {
		t.Errorf("docker start unknown: %+v", res)
	}

	// compose up starts everything; exec routes by container.
	d.Run("docker-compose up -d")
	if !strings.Contains(d.Run("docker ps").Output, "fleetcore-api") {
		t.Error("compose up did not start the fleet")
	}
	if res := d.Run("docker exec fleetcore-cache redis-cli ping"); strings.TrimSpace(res.Output) != "PONG" {
		t.Errorf("redis ping = %q", res.Output)
	}
	if res := d.Run("docker exec fleetcore-db pg_isready"); !strings.Contains(res.Output, "accepting connections") {
		t.Errorf("pg_isready = %q", res.Output)
	}
	if res := d.Run("docker exec fleetcore-api pg_isready"); res.ExitCode != 1 {
		t.Errorf("pg_isready on api should fail: %+v", res)
	}
	if res := d.Run("docker logs fleetcore-api"); !strings.Contains(res.Output, "listening on 3000") {
		t.Errorf("logs = %q", res.Output)
	}
	d.Run("docker-compose down")
	if strings.Contains(d.Run("docker ps").Output, "fleetcore-api") {
		t.Error("compose down left containers running")
	}

	if res := d.Run("docker bogus"); res.ExitCode != 1 {
		t.Errorf("unknown subcommand: %+v", res)
	}
}

func TestDockerStatePerSession(t *testing.T) {
	a := newTestDispatcher(t)
	b := newTestDispatcher(t)
	a.Run("docker start fleetcore-api")
	if strings.Contains(b.Run("docker ps").Output, "fleetcore-api") {
		t.Error("docker state leaked across sessions")
	}
}

func TestGitFlow(t *testing.T) {
	d := newTestDispatcher(t)
	if res := d.Run("git status"); !strings.Contains(res.Output, "On branch main") {
		t.Errorf("status = %q", res.Output)
	}
	res := d.Run("git log --oneline")
	lines := splitLines(res.Output)
	if len(lines) != 5 {
		t.Fatalf("seeded log has %d entries, want 5", len(lines))
	}
	if res := d.Run("git log --oneline -n 2"); len(splitLines(res.Output)) != 2 {
		t.Errorf("git log -n 2 = %q", res.Output)
	}

	if res := d.Run("git checkout -b fix/vehicles"); !strings.Contains(res.Output, "Switched to a new branch") {
		t.Errorf("checkout -b = %+v", res)
	}
	if res := d.Run("git branch"); !strings.Contains(res.Output, "* fix/vehicles") {
		t.Errorf("branch list = %q", res.Output)
	}
	if res := d.Run("git branch -a"); !strings.Contains(res.Output, "remotes/origin/main") {
		t.Errorf("branch -a = %q", res.Output)
	}

	d.Run("git add .")
	res = d.Run(`git commit -m "fix: vehicle listing"`)
	if res.ExitCode != 0 || !strings.Contains(res.Output, "fix: vehicle listing") {
		t.Fatalf("commit = %+v", res)
	}
	// Commit prepends with a fresh 7-hex short hash.
	res = d.Run("git log --oneline -n 1")
	first := strings.Fields(res.Output)
	if len(first) == 0 || len(first[0]) != 7 {
		t.Fatalf("log head = %q", res.Output)
	}
	for _, c := range first[0] {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Errorf("hash %q not hex", first[0])
		}
	}
	if !strings.Contains(res.Output, "fix: vehicle listing") {
		t.Errorf("new commit not first: %q", res.Output)
	}
	// Clean tree now.
	if res := d.Run("git status"); !strings.Contains(res.Output, "working tree clean") {
		t.Errorf("status after commit = %q", res.Output)
	}
	if res := d.Run("git remote -v"); !strings.Contains(res.Output, "origin") {
		t.Errorf("remote -v = %q", res.Output)
	}
	if res := d.Run("git bogus"); res.ExitCode != 1 {
		t.Errorf("unknown git subcommand: %+v", res)
	}
	if res := d.Run("git --version"); !strings.Contains(res.Output, "git version") {
		t.Errorf("git --version = %q", res.Output)
	}
}

func TestNodeAndNpm(t *testing.T) {
	d := newTestDispatcher(t)
	if res := d.Run("node -v"); strings.TrimSpace(res.Output) != "v18.19.0" {
		t.Errorf("node -v = %q", res.Output)
	}
	// Express server file boots.
	if res := d.Run("node fleetcore/src/index.js"); !strings.Contains(res.Output, "listening on 3000") {
		t.Errorf("node server = %q", res.Output)
	}
	// Test file produces jest output.
	if res := d.Run("node fleetcore/tests/vehicles.test.js"); !strings.Contains(res.Output, "Test Suites:") {
		t.Errorf("node test file = %q", res.Output)
	}
	// Other files are acknowledged.
	if res := d.Run("node fleetcore/src/models/vehicle.js"); !strings.Contains(res.Output, "[executed") {
		t.Errorf("node other = %q", res.Output)
	}
	if res := d.Run("node missing.js"); res.ExitCode != 1 {
		t.Errorf("node missing = %+v", res)
	}

	tests := []struct {
		line string
		want string
	}{
		{`node -e 'console.log("hi")'`, "hi\n"},
		{`node -e 2+3*4`, "14\n"},
		{`node -e console.log((10-4)/2)`, "3\n"},
		{`node -e 1.5*2`, "3\n"},
	}
	for _, tt := range tests {
		if res := d.Run(tt.line); res.Output != tt.want {
			t.Errorf("%s = %q, want %q", tt.line, res.Output, tt.want)
		}
	}
	if res := d.Run("node -e process.exit(1)"); res.ExitCode == 0 {
		t.Error("unsupported -e expression should fail")
	}

	if res := d.Run("npm run dev"); !strings.Contains(res.Output, "nodemon") {
		t.Errorf("npm run dev = %q", res.Output)
	}
	if res := d.Run("npm test"); !strings.Contains(res.Output, "Tests:") {
		t.Errorf("npm test = %q", res.Output)
	}
	if res := d.Run("npm run nope"); res.ExitCode != 1 || !strings.Contains(res.Output, "Missing script") {
		t.Errorf("npm run nope = %+v", res)
	}
}

func TestPython(t *testing.T) {
	d := newTestDispatcher(t)
	if res := d.Run(`python -c 'print("hey")'`); res.Output != "hey\n" {
		t.Errorf("python -c print = %q", res.Output)
	}
	if res := d.Run("python3 -c 7*6"); res.Output != "42\n" {
		t.Errorf("python3 arithmetic = %q", res.Output)
	}
	if res := d.Run("pip install requests"); !strings.Contains(res.Output, "Successfully installed") {
		t.Errorf("pip install = %q", res.Output)
	}
}

func TestCurl(t *testing.T) {
	d := newTestDispatcher(t)
	if res := d.Run("curl localhost:3000/health"); !strings.Contains(res.Output, `"status":"ok"`) || res.ExitCode != 0 {
		t.Errorf("health = %+v", res)
	}
	if res := d.Run("curl http://127.0.0.1:3000/api/v1/vehicles"); !strings.Contains(res.Output, "vin") {
		t.Errorf("vehicles = %+v", res)
	}
	if res := d.Run("curl api:3000/drivers"); !strings.Contains(res.Output, "Dana Park") {
		t.Errorf("drivers alias = %+v", res)
	}
	res := d.Run(`curl -X POST -d '{"vin":"WP0AA2A79"}' localhost:3000/api/v1/vehicles`)
	if !strings.Contains(res.Output, `"created":true`) || !strings.Contains(res.Output, "WP0AA2A79") {
		t.Errorf("POST = %+v", res)
	}
	// Headers.
	if res := d.Run("curl -i localhost:3000/health"); !strings.Contains(res.Output, "HTTP/1.1 200 OK") {
		t.Errorf("-i = %q", res.Output)
	}
	if res := d.Run("curl -I localhost:3000/health"); strings.Contains(res.Output, `"status"`) {
		t.Errorf("-I leaked a body: %q", res.Output)
	}
	// 404 default.
	if res := d.Run("curl localhost:3000/nope"); !strings.Contains(res.Output, "not found") || res.ExitCode != 0 {
		t.Errorf("404 = %+v", res)
	}
	// Other localhost ports refuse.
	if res := d.Run("curl localhost:8080/"); res.ExitCode != 7 || !strings.Contains(res.Output, "Connection refused") {
		t.Errorf("refused = %+v", res)
	}
	// Anything else answers generically.
	if res := d.Run("curl https://example.com/"); !strings.Contains(res.Output, "<html>OK</html>") {
		t.Errorf("external = %+v", res)
	}
	if res := d.Run("curl"); res.ExitCode != 2 {
		t.Errorf("no url exit = %d", res.ExitCode)
	}
}

func TestChallengeCommands(t *testing.T) {
	d := newTestDispatcher(t)
	res := d.Run("status")
	if !strings.Contains(res.Output, "Level 1") || !strings.Contains(res.Output, "[ ]") {
		t.Errorf("status = %q", res.Output)
	}
	res = d.Run("hint")
	if !strings.Contains(res.Output, "hint (") {
		t.Errorf("hint = %q", res.Output)
	}
	if len(d.Ctx.HintUsed) != 1 {
		t.Errorf("HintUsed = %v", d.Ctx.HintUsed)
	}
	if res := d.Run("next-level"); res.ExitCode != 1 {
		t.Errorf("next-level with open objectives = %+v", res)
	}
	// Complete level 1 by hand, then advance.
	for _, obj := range d.Ctx.Challenge.CurrentLevel().Objectives {
		d.Ctx.Challenge.Completed[obj.ID] = true
	}
	if res := d.Run("next-level"); res.ExitCode != 0 {
		t.Errorf("next-level = %+v", res)
	}
	if d.Ctx.Challenge.Level != 2 {
		t.Errorf("level = %d", d.Ctx.Challenge.Level)
	}
	if res := d.Run("submit explore-project"); res.ExitCode != 0 {
		t.Errorf("submit = %+v", res)
	}
	if res := d.Run("submit nope"); res.ExitCode != 1 {
		t.Errorf("submit unknown = %+v", res)
	}
}

func TestArithmeticEvaluator(t *testing.T) {
	tests := []struct {
		expr string
		want string
		ok   bool
	}{
		{"2+3", "5", true},
		{"2*3+4", "10", true},
		{"2*(3+4)", "14", true},
		{"10/4", "2.5", true},
		{"-3+5", "2", true},
		{"1/0", "", false},
		{"process.exit(1)", "", false},
		{"2+", "", false},
	}
	for _, tt := range tests {
		v, err := evalArithmetic(tt.expr)
		if tt.ok != (err == nil) {
			t.Errorf("evalArithmetic(%q) err = %v, want ok=%v", tt.expr, err, tt.ok)
			continue
		}
		if tt.ok && formatArithmetic(v) != tt.want {
			t.Errorf("evalArithmetic(%q) = %s, want %s", tt.expr, formatArithmetic(v), tt.want)
		}
	}
}
