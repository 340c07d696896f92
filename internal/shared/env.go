package shared

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// ReadEnvFile parses a KEY=VALUE file into a staging map without touching the process environment.
//
// A missing file yields an empty map and no error. See [ParseEnv] for the line format.
func ReadEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}
	return ParseEnv(data), nil
}

// ParseEnv parses KEY=VALUE lines one at a time.
//
// Blank lines, '#' comments and lines without '=' are skipped. Values are literal: one pair of matching
// single or double quotes is stripped, and there is no variable expansion, escape handling or inline comment.
func ParseEnv(data []byte) map[string]string {
	staged := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "=") {
			continue
		}

		key, value := parseEnvLine(line)
		if key == "" {
			continue
		}
		staged[key] = value
	}
	return staged
}

// parseEnvLine hands godotenv the value in single quotes, which it never expands. Values godotenv
// cannot represent that way fall back to a plain split.
func parseEnvLine(line string) (string, string) {
	key, value, _ := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	value = unquote(strings.TrimSpace(value))

	if !strings.ContainsAny(value, `'\`) {
		if kv, err := godotenv.Unmarshal(key + "='" + value + "'"); err == nil && len(kv) == 1 {
			for k, v := range kv {
				return k, v
			}
		}
	}
	return key, value
}

// unquote strips one pair of matching single or double quotes.
func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// MergeEnv applies staged values through set for every key lookup reports as absent.
//
// Pre-existing variables always win, and empty staged values are ignored. Returns the applied keys, sorted.
func MergeEnv(staged map[string]string, lookup func(string) (string, bool), set func(string, string) error) ([]string, error) {
	applied := []string{}
	for k, v := range staged {
		if k == "" || v == "" {
			continue
		}
		if _, exists := lookup(k); exists {
			continue
		}
		if err := set(k, v); err != nil {
			return applied, fmt.Errorf("failed to set %s: %w", k, err)
		}
		applied = append(applied, k)
	}
	sort.Strings(applied)
	return applied, nil
}

// LoadEnvFile reads path and merges it into the process environment.
func LoadEnvFile(path string) ([]string, error) {
	staged, err := ReadEnvFile(path)
	if err != nil {
		return nil, err
	}
	return MergeEnv(staged, os.LookupEnv, os.Setenv)
}
