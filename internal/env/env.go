package env

import (
	"os"
	"strings"
)

type Var map[string]string

// Env resolves ${VAR} placeholders in configuration strings such as store DSNs
// and log paths. Explicit overrides in Var win over the OS environment.
type Env struct {
	Var Var // explicit overrides (K->V)
	env Var // cached base from OS environment
}

func New() *Env {
	return &Env{
		Var: make(Var),
	}
}

// FromOS caches the current process environment as the base.
func (e *Env) FromOS() {
	base := make(Var)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			v := kv[i+1:]
			if k == "" {
				continue
			}
			base[k] = v
		}
	}
	e.env = base
}

// Set sets an override K=V.
func (e *Env) Set(k, v string) {
	if e.Var == nil {
		e.Var = make(Var)
	}
	e.Var[k] = v
}

// Unset removes an override.
func (e *Env) Unset(k string) {
	if e.Var != nil {
		delete(e.Var, k)
	}
}

// Lookup resolves a single variable, overrides first, then OS environment.
func (e *Env) Lookup(k string) (string, bool) {
	if v, ok := e.Var[k]; ok {
		return v, true
	}
	if e.env == nil {
		e.FromOS()
	}
	v, ok := e.env[k]
	return v, ok
}

// Expand replaces ${VAR} placeholders in s using overrides over the OS
// environment. Unknown variables are left in place (simple expansion, no
// recursion).
func (e *Env) Expand(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	if e.env == nil {
		e.FromOS()
	}
	m := make(Var, len(e.env)+len(e.Var))
	for k, v := range e.env {
		m[k] = v
	}
	for k, v := range e.Var {
		if k == "" {
			continue
		}
		m[k] = v
	}
	return expand(s, m)
}

func expand(s string, m Var) string {
	res := s
	for k, v := range m {
		res = strings.ReplaceAll(res, "${"+k+"}", v)
	}
	return res
}
