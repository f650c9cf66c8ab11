package envfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Entry is one KEY=VALUE pair in the generated env file.
type Entry struct {
	Key   string
	Value string
}

// EnsureFile writes a key-value env file at path once, if absent. The content
// is opaque template text for the frontend toolchain; the launcher never
// parses it back. Returns true when a new file was written.
func EnsureFile(path string, entries []Entry) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, err
	}
	var buf []byte
	for _, e := range entries {
		buf = append(buf, fmt.Sprintf("%s=%q\n", e.Key, e.Value)...)
	}
	if err := os.WriteFile(path, buf, 0o600); err != nil {
		return false, err
	}
	return true, nil
}

// FromMap converts a map into deterministically ordered entries.
func FromMap(m map[string]string) []Entry {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, Entry{Key: k, Value: m[k]})
	}
	return entries
}
