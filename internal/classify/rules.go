// Package classify splits processes into user and system categories and ranks them.
package classify

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/Dicklesworthstone/droidscout/internal/model"
)

// MatchKind selects how a rule pattern is compared with a process name.
type MatchKind string

const (
	MatchPrefix   MatchKind = "prefix"
	MatchExact    MatchKind = "exact"
	MatchContains MatchKind = "contains"
	// MatchNoDot matches names without a '.', i.e. native daemons rather than packages.
	MatchNoDot MatchKind = "no-dot"
)

// Rule assigns Category to names matching Pattern.
type Rule struct {
	Match    MatchKind      `yaml:"match" json:"match"`
	Pattern  string         `yaml:"pattern" json:"pattern"`
	Category model.Category `yaml:"category" json:"category"`
}

// Rules is an ordered rule table; the first matching rule wins.
type Rules struct {
	Default model.Category `yaml:"default" json:"default"`
	Rules   []Rule         `yaml:"rules" json:"rules"`
}

// defaultSystemPrefixes are platform, launcher, input-method and vendor
// service namespaces seen on stock and OEM builds.
var defaultSystemPrefixes = []string{
	"system_server", "surfaceflinger", "zygote", "android.hardware", "android.process",
	"android.system", "vendor.", "com.android.", "com.google.android.gms",
	"com.google.android.inputmethod", "com.google.android.apps.nexuslauncher",
	"com.google.android.ext.services", "com.sec.android.", "com.samsung.android.",
	"com.qualcomm.", "samsung.hardware.", "samsung.software.", "media.",
}

// DefaultRules returns the built-in table: known prefixes and native daemons
// are SYSTEM, everything else USER.
func DefaultRules() *Rules {
	r := &Rules{Default: model.CategoryUser}
	for _, p := range defaultSystemPrefixes {
		r.Rules = append(r.Rules, Rule{Match: MatchPrefix, Pattern: p, Category: model.CategorySystem})
	}
	r.Rules = append(r.Rules, Rule{Match: MatchNoDot, Category: model.CategorySystem})
	return r
}

// LoadRules reads a YAML rule table.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := normalizeRules(&rules); err != nil {
		return nil, err
	}
	return &rules, nil
}

func normalizeRules(r *Rules) error {
	if r.Default == "" {
		r.Default = model.CategoryUser
	}
	def, ok := parseCategory(string(r.Default))
	if !ok {
		return fmt.Errorf("invalid default category %q", r.Default)
	}
	r.Default = def
	if len(r.Rules) == 0 {
		return fmt.Errorf("rule table is empty")
	}
	for i := range r.Rules {
		rule := &r.Rules[i]
		rule.Match = MatchKind(strings.ToLower(strings.TrimSpace(string(rule.Match))))
		if rule.Match == "" {
			rule.Match = MatchPrefix
		}
		switch rule.Match {
		case MatchPrefix, MatchExact, MatchContains:
			rule.Pattern = strings.TrimSpace(rule.Pattern)
			if rule.Pattern == "" {
				return fmt.Errorf("rule %d: empty pattern", i+1)
			}
		case MatchNoDot:
		default:
			return fmt.Errorf("rule %d: unknown match %q", i+1, rule.Match)
		}
		if rule.Category == "" {
			rule.Category = model.CategorySystem
		}
		cat, ok := parseCategory(string(rule.Category))
		if !ok {
			return fmt.Errorf("rule %d: invalid category %q", i+1, rule.Category)
		}
		rule.Category = cat
	}
	return nil
}

func parseCategory(s string) (model.Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(model.CategoryUser):
		return model.CategoryUser, true
	case string(model.CategorySystem):
		return model.CategorySystem, true
	}
	return "", false
}

func (r Rule) matches(name string) bool {
	switch r.Match {
	case MatchPrefix:
		return strings.HasPrefix(name, r.Pattern)
	case MatchExact:
		return name == r.Pattern
	case MatchContains:
		return strings.Contains(name, r.Pattern)
	case MatchNoDot:
		return !strings.Contains(name, ".")
	}
	return false
}

// Categorize returns the category of the first matching rule, or the default.
func (r *Rules) Categorize(name string) model.Category {
	if r == nil {
		return model.CategoryUser
	}
	for _, rule := range r.Rules {
		if rule.matches(name) {
			return rule.Category
		}
	}
	return r.Default
}
