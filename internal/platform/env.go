package platform

import (
	"os"
	"runtime"
	"strings"
)

// Homebrew bin directories are missing from the PATH of GUI-launched and
// minimal-login shells on macOS.
var darwinExtraPaths = []string{"/opt/homebrew/bin", "/usr/local/bin"}

// BuildEnv returns a copy of the process environment with extraDirs (and,
// on macOS, the Homebrew bin directories) prepended to PATH. The caller's
// own environment is never mutated; the result is meant to be handed to
// child processes.
func BuildEnv(extraDirs ...string) []string {
	dirs := make([]string, 0, len(extraDirs)+len(darwinExtraPaths))
	for _, d := range extraDirs {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	if runtime.GOOS == "darwin" {
		dirs = append(dirs, darwinExtraPaths...)
	}
	return prependPath(os.Environ(), dirs)
}

func prependPath(env []string, dirs []string) []string {
	if len(dirs) == 0 {
		return env
	}
	out := make([]string, len(env))
	copy(out, env)
	sep := string(os.PathListSeparator)
	for i, kv := range out {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.EqualFold(key, "PATH") {
			continue
		}
		for _, d := range dirs {
			if !containsDir(value, d, sep) {
				value = d + sep + value
			}
		}
		out[i] = key + "=" + value
		return out
	}
	return append(out, "PATH="+strings.Join(dirs, sep))
}

func containsDir(pathValue, dir, sep string) bool {
	for _, p := range strings.Split(pathValue, sep) {
		if p == dir {
			return true
		}
	}
	return false
}
