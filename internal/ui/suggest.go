package ui

import "strings"

// Suggest returns the most recent history entry that extends line.
func Suggest(history []string, line string) (string, bool) {
	if strings.TrimSpace(line) == "" {
		return "", false
	}
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		if len(h) > len(line) && strings.HasPrefix(h, line) {
			return h, true
		}
	}
	return "", false
}
