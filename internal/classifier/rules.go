package classifier

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ErrEmptyRuleID is returned when a rule file entry has no identifier.
var ErrEmptyRuleID = errors.New("rule id is required")

// Rule is a single payload signature. Patterns are matched case-insensitively.
type Rule struct {
	ID      string `yaml:"id" json:"id"`
	Pattern string `yaml:"pattern" json:"pattern"`

	re *regexp.Regexp
}

// Match reports whether the payload matches the rule.
func (r Rule) Match(payload string) bool {
	return r.re != nil && r.re.MatchString(payload)
}

// RuleSet holds the ordered signature tables. Order matters: the first
// matching rule in a table wins.
type RuleSet struct {
	SQLInjection []Rule `yaml:"sql_injection" json:"sql_injection"`
	Suspicious   []Rule `yaml:"suspicious" json:"suspicious"`
}

var defaultSQLInjection = []Rule{
	{ID: "sqli-or-tautology", Pattern: `(\bOR\b.*=.*)`},
	{ID: "sqli-stacked-comment", Pattern: `(';.*--)`},
	{ID: "sqli-union-select", Pattern: `(\bUNION\b.*\bSELECT\b)`},
	{ID: "sqli-drop-table", Pattern: `(\bDROP\b.*\bTABLE\b)`},
	{ID: "sqli-numeric-tautology", Pattern: `(1=1)`},
	{ID: "sqli-admin-comment", Pattern: `(admin'--)`},
}

var defaultSuspicious = []Rule{
	{ID: "xss-script-tag", Pattern: `(<script>)`},
	{ID: "path-traversal", Pattern: `(\.\./)`},
	{ID: "exec-token", Pattern: `(\bexec\b)`},
	{ID: "cmd-token", Pattern: `(\bcmd\b)`},
}

// DefaultRules returns the built-in signature tables, compiled.
func DefaultRules() RuleSet {
	rs := RuleSet{
		SQLInjection: append([]Rule(nil), defaultSQLInjection...),
		Suspicious:   append([]Rule(nil), defaultSuspicious...),
	}
	if err := rs.compile(); err != nil {
		panic(fmt.Sprintf("classifier: built-in rules do not compile: %v", err))
	}
	return rs
}

// NewRuleSet compiles hand-built signature tables.
func NewRuleSet(sqlInjection, suspicious []Rule) (RuleSet, error) {
	rs := RuleSet{
		SQLInjection: append([]Rule(nil), sqlInjection...),
		Suspicious:   append([]Rule(nil), suspicious...),
	}
	if err := rs.compile(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

// LoadRules reads a YAML rule file. A missing file or an empty path yields the
// built-in rules. Tables present in the file replace the matching built-in
// table wholesale; absent tables keep their defaults.
func LoadRules(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRules(), nil
		}
		return RuleSet{}, fmt.Errorf("read rules file: %w", err)
	}

	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parse rules file: %w", err)
	}
	if len(rs.SQLInjection) == 0 {
		rs.SQLInjection = append([]Rule(nil), defaultSQLInjection...)
	}
	if len(rs.Suspicious) == 0 {
		rs.Suspicious = append([]Rule(nil), defaultSuspicious...)
	}
	if err := rs.compile(); err != nil {
		return RuleSet{}, err
	}
	return rs, nil
}

func (rs *RuleSet) compile() error {
	for _, table := range [][]Rule{rs.SQLInjection, rs.Suspicious} {
		for i := range table {
			if table[i].ID == "" {
				return fmt.Errorf("compile rule %d: %w", i, ErrEmptyRuleID)
			}
			re, err := regexp.Compile("(?i)" + table[i].Pattern)
			if err != nil {
				return fmt.Errorf("compile rule %q: %w", table[i].ID, err)
			}
			table[i].re = re
		}
	}
	return nil
}

func firstMatch(rules []Rule, payload string) (Rule, bool) {
	for _, r := range rules {
		if r.Match(payload) {
			return r, true
		}
	}
	return Rule{}, false
}
