package matching

import (
	"strconv"
	"strings"
)

// overlapCount counts tokens present in both lists. Inputs are expected to
// be normalized already.
func overlapCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	count := 0
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			count++
		}
	}
	return count
}

// containsFold reports whether list contains s, case-insensitively.
func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), s) {
			return true
		}
	}
	return false
}

// lowerAll lowercases and trims every entry, dropping empties.
func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.ToLower(strings.TrimSpace(s)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// ParseUTCOffset parses offset strings like "UTC+3", "GMT-07:30", "+5",
// "-03:30" or "UTC" into fractional hours. Returns false for anything it
// cannot interpret.
func ParseUTCOffset(tz string) (float64, bool) {
	s := strings.ToUpper(strings.TrimSpace(tz))
	if s == "" {
		return 0, false
	}
	s = strings.TrimPrefix(s, "UTC")
	s = strings.TrimPrefix(s, "GMT")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true // bare "UTC"/"GMT"
	}

	sign := 1.0
	switch s[0] {
	case '+':
		s = s[1:]
	case '-':
		sign = -1
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}

	hourPart, minutePart := s, ""
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		hourPart, minutePart = s[:idx], s[idx+1:]
	}

	hours, err := strconv.Atoi(hourPart)
	if err != nil || hours > 14 {
		return 0, false
	}
	offset := float64(hours)
	if minutePart != "" {
		minutes, err := strconv.Atoi(minutePart)
		if err != nil || minutes >= 60 {
			return 0, false
		}
		offset += float64(minutes) / 60
	}
	return sign * offset, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
