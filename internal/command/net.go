package command

import (
	"fmt"
	"strings"

	"proctord/internal/shell"
)

func registerNet(r *Registry) {
	r.Register("curl", cmdCurl)
	r.Register("wget", cmdWget)
	r.Register("ping", cmdPing)
	r.Register("netstat", cmdNetstat)
	r.Alias("ss", "netstat")
}

// simulatedHosts are the authorities the fake API answers on.
var simulatedHosts = map[string]bool{
	"localhost:3000": true,
	"127.0.0.1:3000": true,
	"api:3000":       true,
}

// apiResponses maps METHOD PATH to the canned body.
var apiResponses = map[string]string{
	"GET /health": `{"status":"ok","uptime":"2h14m","version":"2.4.1"}`,
	"GET /api/v1/vehicles": `[{"id":1,"vin":"1FTyE1YM7LKA52312","status":"active","driver_id":4},` +
		`{"id":2,"vin":"5YJ3E1EA8LF632882","status":"maintenance","driver_id":null},` +
		`{"id":3,"vin":"2C4RC1BG3LR241776","status":"active","driver_id":7}]`,
	"POST /api/v1/vehicles": `{"id":4,"vin":"%s","status":"idle","created":true}`,
	"GET /api/v1/drivers":   `[{"id":4,"name":"Dana Park","license":"CDL-A"},{"id":7,"name":"Luis Ortega","license":"CDL-B"}]`,
	"GET /api/v1/trips":     `[{"id":101,"vehicle_id":1,"distance_km":182.4,"status":"completed"},{"id":102,"vehicle_id":3,"distance_km":64.9,"status":"en_route"}]`,
}

func cmdCurl(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	// -X METHOD and -d DATA leave their values in args; extract them
	// first so the URL scan can skip them.
	rawMethod := stringAfter(cmd.RawArgs, "-X")
	method := strings.ToUpper(rawMethod)
	if method == "" {
		method = "GET"
	}
	data := stringAfter(cmd.RawArgs, "-d")
	if v, set := cmd.Flag("data"); set && v != "" {
		data = v
	}
	if data != "" && method == "GET" {
		method = "POST"
	}
	outValue := stringAfter(cmd.RawArgs, "-o")
	headerValue := stringAfter(cmd.RawArgs, "-H")

	var url string
	for _, arg := range cmd.Args {
		if arg == rawMethod || arg == data || arg == outValue || arg == headerValue {
			continue
		}
		if looksLikeURL(arg) {
			url = arg
			break
		}
	}
	if url == "" {
		return fail(2, "curl: no URL specified!\ncurl: try 'curl --help' for more information")
	}

	headersOnly := cmd.Bool("I", "head")
	includeHeaders := cmd.Bool("i", "include") || headersOnly

	host, path := splitURL(url)
	switch {
	case simulatedHosts[host]:
		body, status := apiLookup(method, path, data)
		if status == 404 && cmd.Bool("f") {
			return shell.Result{ExitCode: 22}
		}
		var out strings.Builder
		if includeHeaders {
			statusLine := "HTTP/1.1 200 OK"
			if status == 404 {
				statusLine = "HTTP/1.1 404 Not Found"
			} else if status == 201 {
				statusLine = "HTTP/1.1 201 Created"
			}
			out.WriteString(statusLine + "\n")
			out.WriteString("Content-Type: application/json; charset=utf-8\n")
			out.WriteString(fmt.Sprintf("Content-Length: %d\n", len(body)))
			out.WriteString("X-Powered-By: Express\n\n")
		}
		if !headersOnly {
			out.WriteString(body + "\n")
		}
		if outValue != "" {
			if err := ctx.FS.WriteFile(ctx.ExpandPath(outValue), "/", body+"\n"); err != nil {
				return fail(23, "curl: (23) Failed writing body")
			}
			return shell.Result{}
		}
		// curl exits 0 on a 404 unless -f was given, handled above.
		return shell.Result{Output: out.String()}
	case strings.Contains(host, "localhost") || strings.Contains(host, "127.0.0.1"):
		port := "80"
		if idx := strings.LastIndex(host, ":"); idx >= 0 {
			port = host[idx+1:]
		}
		return fail(7, "curl: (7) Failed to connect to localhost port %s after 0 ms: Connection refused", port)
	default:
		body := "<html>OK</html>"
		if outValue != "" {
			if err := ctx.FS.WriteFile(ctx.ExpandPath(outValue), "/", body+"\n"); err != nil {
				return fail(23, "curl: (23) Failed writing body")
			}
			return shell.Result{}
		}
		return ok(body + "\n")
	}
}

// looksLikeURL filters out method names and payloads when hunting
// for the request target among the positional args.
func looksLikeURL(s string) bool {
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "-") {
		return false
	}
	if strings.Contains(s, "://") {
		return true
	}
	return strings.HasPrefix(s, "localhost") || strings.HasPrefix(s, "127.0.0.1") ||
		strings.HasPrefix(s, "api:") || strings.Contains(s, ".")
}

// splitURL strips the scheme and separates authority from path.
func splitURL(url string) (host, path string) {
	trimmed := url
	if idx := strings.Index(trimmed, "://"); idx >= 0 {
		trimmed = trimmed[idx+3:]
	}
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx], trimmed[idx:]
	}
	return trimmed, "/"
}

func apiLookup(method, path, data string) (body string, status int) {
	// The short forms /drivers and /trips alias their /api/v1 homes.
	switch path {
	case "/drivers":
		path = "/api/v1/drivers"
	case "/trips":
		path = "/api/v1/trips"
	}
	key := method + " " + path
	tpl, found := apiResponses[key]
	if !found {
		return `{"error":"not found","path":"` + path + `"}`, 404
	}
	if strings.Contains(tpl, "%s") {
		vin := "UNKNOWN"
		if data != "" {
			vin = extractJSONField(data, "vin")
		}
		return fmt.Sprintf(tpl, vin), 201
	}
	return tpl, 200
}

// extractJSONField pulls a string field out of a -d payload without
// caring whether the payload is strictly valid JSON.
func extractJSONField(data, field string) string {
	idx := strings.Index(data, `"`+field+`"`)
	if idx < 0 {
		return "UNKNOWN"
	}
	rest := data[idx+len(field)+2:]
	start := strings.IndexByte(rest, '"')
	if start < 0 {
		return "UNKNOWN"
	}
	end := strings.IndexByte(rest[start+1:], '"')
	if end < 0 {
		return "UNKNOWN"
	}
	return rest[start+1 : start+1+end]
}

func cmdWget(cmd shell.ParsedCommand, ctx *Context, _ *string) shell.Result {
	if len(cmd.Args) == 0 {
		return fail(1, "wget: missing URL")
	}
	url := cmd.Args[0]
	name := url
	if idx := strings.LastIndex(url, "/"); idx >= 0 && idx < len(url)-1 {
		name = url[idx+1:]
	}
	if name == "" || strings.Contains(name, ":") {
		name = "index.html"
	}
	body := "<html>OK</html>\n"
	if err := ctx.FS.WriteFile(ctx.ExpandPath(name), "/", body); err != nil {
		return fail(3, "wget: cannot write to '%s'", name)
	}
	return okf(`--2025-11-17 09:14:02--  %s
Resolving host... done.
HTTP request sent, awaiting response... 200 OK
Length: %d [text/html]
Saving to: '%s'

%s            100%%[===================>]      %dB  --.-KB/s    in 0s

'%s' saved [%d/%d]
`, url, len(body), name, name, len(body), name, len(body), len(body))
}

func cmdPing(cmd shell.ParsedCommand, _ *Context, _ *string) shell.Result {
	host := "localhost"
	if len(cmd.Args) > 0 {
		host = cmd.Args[0]
	}
	return okf(`PING %s (10.0.1.20) 56(84) bytes of data.
64 bytes from %s: icmp_seq=1 ttl=64 time=0.482 ms
64 bytes from %s: icmp_seq=2 ttl=64 time=0.391 ms
64 bytes from %s: icmp_seq=3 ttl=64 time=0.405 ms

--- %s ping statistics ---
3 packets transmitted, 3 received, 0%% packet loss, time 2041ms
rtt min/avg/max/mdev = 0.391/0.426/0.482/0.040 ms
`, host, host, host, host, host)
}

func cmdNetstat(_ shell.ParsedCommand, _ *Context, _ *string) shell.Result {
	return ok(`Proto Recv-Q Send-Q Local Address           Foreign Address         State
tcp        0      0 0.0.0.0:3000            0.0.0.0:*               LISTEN
tcp        0      0 127.0.0.1:5432          0.0.0.0:*               LISTEN
tcp        0      0 127.0.0.1:6379          0.0.0.0:*               LISTEN
tcp        0      0 0.0.0.0:22              0.0.0.0:*               LISTEN
`)
}
