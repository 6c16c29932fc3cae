package exam

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRules reads a roadmap rule file. An empty path returns DefaultRules.
//
//	rules:
//	  - tier: Critical
//	    keywords: [core, fundamental]
//	    why: Core topic essential for your target role.
//	default:
//	  tier: Optional
//	  why: Good to know for comprehensive preparation.
func LoadRules(path string) (RuleSet, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	if err := rs.validate(); err != nil {
		return RuleSet{}, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return rs, nil
}

func (rs RuleSet) validate() error {
	if len(rs.Rules) == 0 {
		return fmt.Errorf("at least one rule is required")
	}
	seen := make(map[string]bool, len(rs.Rules))
	for i, r := range rs.Rules {
		if strings.TrimSpace(r.Tier) == "" {
			return fmt.Errorf("rule %d: tier is required", i+1)
		}
		if seen[r.Tier] {
			return fmt.Errorf("rule %d: duplicate tier %q", i+1, r.Tier)
		}
		seen[r.Tier] = true
		if len(r.Keywords) == 0 {
			return fmt.Errorf("rule %d (%s): at least one keyword is required", i+1, r.Tier)
		}
	}
	if strings.TrimSpace(rs.Default.Tier) == "" {
		return fmt.Errorf("default tier is required")
	}
	return nil
}
