package search

// SynonymsVersion identifies the expansion table revision. Bump it when
// the table changes so cached evaluations are comparable.
const SynonymsVersion = "v1"

// codeSynonyms maps normalized query phrases to code-vocabulary
// equivalents. Keys are matched against the whole normalized query first
// (longest phrase wins), then against individual tokens. Values augment
// the query; they never replace it.
var codeSynonyms = map[string][]string{
	// Web framework vocabulary.
	"render template": {"render_template", "jinja", "template_render"},
	"before request":  {"pre_request_hook", "before_request", "middleware"},
	"after request":   {"post_request_hook", "after_request", "middleware"},
	"route handler":   {"endpoint", "view_func", "url_rule"},
	"template":        {"jinja", "render_template", "html"},
	"middleware":      {"hook", "interceptor", "before_request"},
	"redirect":        {"url_for", "location", "http_redirect"},
	"session":         {"cookie", "session_store", "flask_session"},

	// Serialization.
	"parse json":  {"json_loads", "unmarshal", "decode_json"},
	"serialize":   {"marshal", "dumps", "encode", "to_json"},
	"deserialize": {"unmarshal", "loads", "decode", "from_json"},
	"parse yaml":  {"yaml_load", "safe_load", "unmarshal"},
	"config":      {"settings", "configuration", "env", "cfg"},
	"environment": {"env", "getenv", "os_environ"},

	// HTTP.
	"request":  {"req", "http_request", "handler"},
	"response": {"resp", "http_response", "reply"},
	"download": {"fetch", "get", "urlretrieve"},
	"upload":   {"post", "put", "multipart"},

	// Persistence.
	"database": {"db", "sql", "query", "session"},
	"query":    {"select", "execute", "fetch"},
	"insert":   {"create", "add", "save"},
	"delete":   {"remove", "drop", "destroy"},
	"cache":    {"memoize", "lru", "redis"},

	// Errors and control flow.
	"error":     {"err", "exception", "raise", "failure"},
	"exception": {"error", "raise", "try", "except"},
	"retry":     {"backoff", "attempt", "reconnect"},
	"validate":  {"check", "verify", "assert", "sanitize"},
	"log":       {"logger", "logging", "debug"},

	// Auth.
	"login":        {"authenticate", "sign_in", "auth"},
	"authenticate": {"login", "auth", "verify_token"},
	"password":     {"hash", "bcrypt", "credential"},
	"token":        {"jwt", "bearer", "auth_token"},

	// Concurrency.
	"thread":     {"worker", "goroutine", "concurrent"},
	"lock":       {"mutex", "semaphore", "synchronize"},
	"queue":      {"task", "job", "worker"},
	"background": {"async", "worker", "task"},

	// Files.
	"read file":  {"open", "read_text", "load"},
	"write file": {"open", "write_text", "save", "dump"},
	"path":       {"filepath", "os_path", "join"},
}
