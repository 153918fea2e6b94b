package config

import (
	"fmt"
	"regexp"
	"strings"

	"lockbot/internal/timeunit"
)

// flairTemplateRE matches the platform's flair template identifiers
// (8-4-4-4-8 lowercase hex groups).
var flairTemplateRE = regexp.MustCompile(`^[0-9a-z]{8}(-[0-9a-z]{4}){4}[0-9a-z]{8}$`)

// Validate checks the fields a bad config file most commonly breaks.
// It is installed as the manager's validator, so a rejected file never
// reaches subscribers.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Community) == "" {
		return fmt.Errorf("community is required")
	}
	if strings.TrimSpace(cfg.Platform.BaseURL) == "" {
		return fmt.Errorf("platform.base_url is required")
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" && !strings.EqualFold(cfg.Storage.Driver, "memory") {
		return fmt.Errorf("storage.path is required")
	}

	if cfg.Lock.Delay < 0 {
		return fmt.Errorf("lock.delay must be at least 1")
	}
	if u := string(cfg.Lock.DelayUnits); u != "" {
		if _, err := timeunit.ParseUnit(u); err != nil {
			return fmt.Errorf("lock.delay_units: %w", err)
		}
	}

	if v := strings.TrimSpace(cfg.Lock.LockedFlairTemplateID); v != "" && !flairTemplateRE.MatchString(v) {
		return fmt.Errorf("lock.locked_flair_template_id: %q is not a valid flair template ID", v)
	}
	for _, tpl := range SplitList(cfg.Lock.IgnorePostFlairTemplate) {
		if !flairTemplateRE.MatchString(tpl) {
			return fmt.Errorf("lock.ignore_post_flair_template: %q is not a valid flair template ID", tpl)
		}
	}
	return nil
}

// SplitList parses a comma-separated settings list into lowercase,
// trimmed entries, dropping empties. All exemption matching is
// case-insensitive, so lowering here keeps comparisons simple.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
