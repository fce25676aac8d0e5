//go:build !windows

package runner

import "strings"

func envKey(kv string) string {
	k, _, _ := strings.Cut(kv, "=")
	return k
}
