package env

import (
	"strings"
	"testing"
)

// FuzzExpand fuzzes Expand with random inputs to ensure no panics and basic
// invariants around ${VAR} expansion.
func FuzzExpand(f *testing.F) {
	// seeds (overrides packed as newline-separated K=V; then the subject string)
	f.Add([]byte("A=1\nB=two"), "dsn-${A}-${B}")
	f.Add([]byte("HOME=/tmp/h"), "sqlite://${HOME}/startup.sqlite")
	f.Add([]byte("X=${Y}\nY=${X}"), "${X}${Y}") // cyclic-like
	f.Add([]byte(""), "no placeholders at all")

	f.Fuzz(func(t *testing.T, overridesB []byte, subject string) {
		overrides := splitNZ(string(overridesB))
		if len(overrides) > 20 {
			overrides = overrides[:20]
		}

		e := New()
		for _, kv := range overrides {
			if i := strings.IndexByte(kv, '='); i > 0 {
				e.Set(kv[:i], kv[i+1:])
			}
		}
		out := e.Expand(subject)

		// 1) Expansion never panics and returns the input untouched when there is
		// nothing to expand.
		if !strings.Contains(subject, "${") && out != subject {
			t.Fatalf("expanded %q into %q without placeholders", subject, out)
		}
		// 2) Every surviving override with a plain value and a plain key must
		// be honored. Keys spelling placeholder syntax and values containing
		// placeholders interact with other replacements, so they are skipped.
		for k, v := range e.Var {
			if strings.ContainsAny(k, "${}") || strings.Contains(v, "${") {
				continue
			}
			if strings.Contains(subject, "${"+k+"}") && !strings.Contains(out, v) {
				t.Fatalf("override %s=%q not applied: %q -> %q", k, v, subject, out)
			}
		}
	})
}

func TestExpandAndLookup(t *testing.T) {
	e := New()
	e.Set("TW_DATA", "/var/lib/timewise")
	if got := e.Expand("sqlite://${TW_DATA}/startup.sqlite"); got != "sqlite:///var/lib/timewise/startup.sqlite" {
		t.Fatalf("Expand = %q", got)
	}
	if v, ok := e.Lookup("TW_DATA"); !ok || v != "/var/lib/timewise" {
		t.Fatalf("Lookup override = %q, %t", v, ok)
	}
	e.Unset("TW_DATA")
	if _, ok := e.Var["TW_DATA"]; ok {
		t.Fatalf("Unset did not remove override")
	}
	// unknown variables stay verbatim
	if got := e.Expand("${TW_NOPE_UNSET_12345}"); got != "${TW_NOPE_UNSET_12345}" {
		t.Fatalf("unknown var rewritten: %q", got)
	}
}

// splitNZ splits s by newlines and returns non-empty trimmed lines.
func splitNZ(s string) []string {
	var out []string
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}
