package parse

import (
	"regexp"
	"strings"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

var (
	serviceRecord = regexp.MustCompile(`^\s*\*?\s*ServiceRecord\{[0-9a-f]+ u\d+ ([\w.]+)/(\S+?)\}`)
	serviceIdent  = regexp.MustCompile(`^[A-Za-z0-9_.]+/[A-Za-z0-9_.$]+$`)
)

// Services lists "package/component" identifiers in device order, dropping
// adjacent repeats and stopping after limit entries. limit <= 0 means no cap.
func Services(raw string, limit int) ([]model.ServiceEntry, int) {
	var out []model.ServiceEntry
	skips := 0
	var last string
	for _, line := range lines(raw) {
		var id string
		switch {
		case strings.Contains(line, "ServiceRecord{"):
			m := serviceRecord.FindStringSubmatch(line)
			if m == nil {
				skips++
				continue
			}
			id = m[1] + "/" + m[2]
		default:
			trimmed := strings.TrimSpace(line)
			if !serviceIdent.MatchString(trimmed) {
				continue
			}
			id = trimmed
		}
		if id == last {
			continue
		}
		last = id
		out = append(out, model.ServiceEntry(id))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, skips
}
