package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance is the maximum edit distance for "did you mean?"
// suggestions when unknown config keys are detected.
const maxLevenshteinDistance = 3

// knownSectionKeys lists the valid keys of each config section. The ""
// section holds top-level scalar keys.
var knownSectionKeys = map[string][]string{
	"":            {"endpoint"},
	"credentials": {"backend", "path"},
	"transfers":   {"bandwidth_limit", "parallel_uploads"},
	"cache":       {"size"},
	"logging":     {"log_level", "log_format"},
	"network":     {"timeout", "user_agent"},
}

// knownTopLevel is every name valid at the top level, scalar keys and
// section names together, sorted for deterministic suggestions.
var knownTopLevel = func() []string {
	keys := make([]string, 0, len(knownSectionKeys))
	for section := range knownSectionKeys {
		if section != "" {
			keys = append(keys, section)
		}
	}

	keys = append(keys, knownSectionKeys[""]...)
	sort.Strings(keys)

	return keys
}()

// checkUnknownKeys inspects TOML metadata for undecoded keys and returns
// an error with "did you mean?" suggestions for each unknown key.
func checkUnknownKeys(md *toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	var errs []error

	for _, key := range undecoded {
		if err := buildKeyError(key); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// buildKeyError describes one undecoded key. Keys nested under an unknown
// section return nil because the section itself is already reported.
func buildKeyError(key toml.Key) error {
	if len(key) == 1 {
		return unknownKeyError(key[0], "", knownTopLevel)
	}

	section := key[0]

	known, ok := knownSectionKeys[section]
	if !ok {
		return nil
	}

	sorted := append([]string(nil), known...)
	sort.Strings(sorted)

	return unknownKeyError(strings.Join(key[1:], "."), section, sorted)
}

func unknownKeyError(name, section string, known []string) error {
	where := ""
	if section != "" {
		where = fmt.Sprintf(" in [%s]", section)
	}

	if suggestion := closestMatch(name, known); suggestion != "" {
		return fmt.Errorf("unknown config key %q%s, did you mean %q?", name, where, suggestion)
	}

	return fmt.Errorf("unknown config key %q%s", name, where)
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns empty string if no match is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		d := levenshtein(unknown, k)
		if d < bestDist {
			bestDist = d
			best = k
		}
	}

	if bestDist <= maxLevenshteinDistance {
		return best
	}

	return ""
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	// Two rows instead of the full matrix.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = min(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}
