// Package rules holds the resolved vacation-law table consumed by the
// compliance validator. The table is a pure lookup: no network behavior.
// Figures are general labor-standard minimums; this is not legal advice.
package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rules describes the vacation entitlement floor for one jurisdiction
type Rules struct {
	Name            string  `yaml:"name" json:"name"`
	MinDays         int     `yaml:"min_days" json:"min_days"`
	AccrualRate     float64 `yaml:"accrual_rate" json:"accrual_rate"`
	DenialLimitHint int     `yaml:"denial_limit_hint" json:"denial_limit_hint"`
	MaxConsecutive  int     `yaml:"max_consecutive_work_days" json:"max_consecutive_work_days"`
	Notes           string  `yaml:"notes" json:"notes,omitempty"`
}

// Table maps upper-case country codes to their rules
type Table map[string]Rules

// Default returns the built-in jurisdiction table
func Default() Table {
	return Table{
		"US": {
			Name:            "United States",
			MinDays:         0, // no federal paid vacation mandate
			AccrualRate:     0,
			DenialLimitHint: 6,
			Notes:           "No federal mandate; common practice 10-15 days after 1 year",
		},
		"EU": {
			Name:            "European Union (minimum standard)",
			MinDays:         20,
			AccrualRate:     20.0 / 12,
			DenialLimitHint: 3,
			Notes:           "Directive 2003/88/EC: at least 4 weeks paid annual leave",
		},
		"GB": {
			Name:            "United Kingdom",
			MinDays:         28,
			AccrualRate:     28.0 / 12,
			DenialLimitHint: 3,
		},
		"CA": {
			Name:            "Canada",
			MinDays:         10,
			AccrualRate:     10.0 / 12,
			DenialLimitHint: 4,
			Notes:           "Provincial laws often more generous",
		},
		"DE": {
			Name:            "Germany",
			MinDays:         24,
			AccrualRate:     2,
			DenialLimitHint: 3,
			MaxConsecutive:  6,
		},
		"FR": {
			Name:            "France",
			MinDays:         25,
			AccrualRate:     2.5,
			DenialLimitHint: 3,
			MaxConsecutive:  6,
		},
		"AU": {
			Name:            "Australia",
			MinDays:         20,
			AccrualRate:     20.0 / 12,
			DenialLimitHint: 4,
		},
		"JP": {
			Name:            "Japan",
			MinDays:         10,
			AccrualRate:     10.0 / 12,
			DenialLimitHint: 4,
			Notes:           "Entitlement increases with tenure",
		},
	}
}

// Lookup resolves the rules for a country code. Unknown codes return
// ok=false; the caller decides whether that is fatal.
func (t Table) Lookup(country string) (Rules, bool) {
	r, ok := t[strings.ToUpper(strings.TrimSpace(country))]
	return r, ok
}

// LoadFile merges YAML overrides on top of the table. The file maps
// country codes to Rules; entries replace built-ins wholesale.
func (t Table) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}

	overrides := make(map[string]Rules)
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("parse rules file: %w", err)
	}

	for code, r := range overrides {
		t[strings.ToUpper(code)] = r
	}
	return nil
}
