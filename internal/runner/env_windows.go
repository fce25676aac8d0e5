//go:build windows

package runner

import "strings"

func envKey(kv string) string {
	// Windows keeps per-drive state in variables like "=C:".
	if strings.HasPrefix(kv, "=") {
		if i := strings.Index(kv[1:], "="); i >= 0 {
			return strings.ToUpper(kv[:i+1])
		}
	}
	k, _, _ := strings.Cut(kv, "=")
	return strings.ToUpper(k)
}
