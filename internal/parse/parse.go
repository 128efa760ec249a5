// Package parse turns raw bridge-tool output into structured records.
//
// Every parser is tolerant: malformed lines are skipped and counted, never
// returned as errors, so one vendor quirk cannot sink a whole collection.
package parse

import (
	"bufio"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ansiEscape = regexp.MustCompile(`\x1B\[[0-?]*[ -/]*[@-~]`)

// StripANSI removes terminal escape sequences.
func StripANSI(s string) string { return ansiEscape.ReplaceAllString(s, "") }

// lines splits raw output into lines with escape codes and CRs removed.
func lines(raw string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(raw))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		out = append(out, strings.TrimRight(StripANSI(sc.Text()), "\r"))
	}
	return out
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseKB parses a "1,234" style kilobyte count into bytes.
func parseKB(s string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return v * 1024, true
}

// ParseSize normalizes a memory figure to bytes. Accepted forms: "80K", "252M",
// "1.2G", "493.9MB", "4096kB". A bare number is read as kilobytes.
func ParseSize(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	upper := strings.ToUpper(s)
	if len(upper) > 1 && strings.HasSuffix(upper, "B") {
		upper = upper[:len(upper)-1]
	}
	mult := 1024.0
	switch upper[len(upper)-1] {
	case 'K':
		upper = upper[:len(upper)-1]
	case 'M':
		mult = 1024 * 1024
		upper = upper[:len(upper)-1]
	case 'G':
		mult = 1024 * 1024 * 1024
		upper = upper[:len(upper)-1]
	case 'T':
		mult = 1024 * 1024 * 1024 * 1024
		upper = upper[:len(upper)-1]
	}
	v, ok := parseFloat(upper)
	if !ok || v < 0 || v*mult > math.MaxUint64/2 {
		return 0, false
	}
	return uint64(math.Round(v * mult)), true
}
