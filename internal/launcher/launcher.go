// Package launcher identifies the application that started this process
// by walking the parent process chain.
package launcher

import (
	"context"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Unknown is reported when no ancestor can be identified.
const Unknown = "unknown"

// maxHops bounds the parent walk; deeper chains are launch scaffolding
// (shells, init systems) rather than an identifiable launcher.
const maxHops = 10

// Resolve walks up the parent chain and returns the first ancestor whose
// executable looks like an application. When no ancestor matches, the
// name of the furthest named ancestor is used, and failing that Unknown.
func Resolve(ctx context.Context) string {
	fallback := Unknown
	pid := int32(os.Getpid())

	for i := 0; i < maxHops; i++ {
		p, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			break
		}
		ppid, err := p.PpidWithContext(ctx)
		if err != nil || ppid <= 0 {
			break
		}
		parent, err := process.NewProcessWithContext(ctx, ppid)
		if err != nil {
			break
		}

		if exe, err := parent.ExeWithContext(ctx); err == nil {
			if name := AppNameFromPath(exe); name != "" {
				return name
			}
		}

		if name, err := parent.NameWithContext(ctx); err == nil {
			if trimmed := strings.TrimSpace(name); trimmed != "" {
				fallback = trimmed
			}
		}

		pid = ppid
	}

	return fallback
}

// AppNameFromPath extracts a friendly application name from an
// executable path: the bundle name for macOS-style ".app" paths, the
// file stem for Windows-style ".exe" paths. Returns "" for anything
// else.
func AppNameFromPath(path string) string {
	if i := strings.Index(path, ".app/"); i >= 0 {
		name := path[:i]
		if j := strings.LastIndex(name, "/"); j >= 0 {
			name = name[j+1:]
		}
		if name != "" {
			return name
		}
	}

	if strings.HasSuffix(path, ".exe") {
		base := path
		if j := strings.LastIndexAny(base, `/\`); j >= 0 {
			base = base[j+1:]
		}
		if stem := strings.TrimSuffix(base, ".exe"); stem != "" {
			return stem
		}
	}

	return ""
}
