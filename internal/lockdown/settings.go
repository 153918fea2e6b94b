package lockdown

import (
	"strings"

	"lockbot/internal/config"
	"lockbot/internal/timeunit"
)

// Settings is the frozen per-invocation snapshot of the lock policy.
// All list fields are pre-lowered and trimmed; matching is
// case-insensitive throughout.
type Settings struct {
	Delay     int
	DelayUnit timeunit.Unit

	IgnoreModerators         bool
	IgnoreUsers              []string
	IgnoreUserFlairText      []string
	IgnoreUserFlairCSS       []string
	IgnorePostFlairText      []string
	IgnorePostFlairCSS       []string
	IgnorePostFlairTemplates []string

	LockedFlairTemplateID string

	NSFWOnly              bool
	HandleHistoricalPosts bool
	LockOnComment         bool
}

// SettingsFromConfig snapshots the lock section. Unset delay defaults to
// 1; unset units default to months, the longest delay in the
// enumeration.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	delay := cfg.Lock.Delay
	if delay <= 0 {
		delay = 1
	}

	unitStr := string(cfg.Lock.DelayUnits)
	if strings.TrimSpace(unitStr) == "" {
		unitStr = string(timeunit.Months)
	}
	unit, err := timeunit.ParseUnit(unitStr)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		Delay:                    delay,
		DelayUnit:                unit,
		IgnoreModerators:         cfg.Lock.IgnoreModeratorsEnabled(),
		IgnoreUsers:              config.SplitList(cfg.Lock.IgnoreUsers),
		IgnoreUserFlairText:      config.SplitList(cfg.Lock.IgnoreUserFlairText),
		IgnoreUserFlairCSS:       config.SplitList(cfg.Lock.IgnoreUserFlairCSSClass),
		IgnorePostFlairText:      config.SplitList(cfg.Lock.IgnorePostFlairText),
		IgnorePostFlairCSS:       config.SplitList(cfg.Lock.IgnorePostFlairCSSClass),
		IgnorePostFlairTemplates: config.SplitList(cfg.Lock.IgnorePostFlairTemplate),
		LockedFlairTemplateID:    strings.TrimSpace(cfg.Lock.LockedFlairTemplateID),
		NSFWOnly:                 cfg.Lock.NSFWOnly,
		HandleHistoricalPosts:    cfg.Lock.HandleHistoricalPosts,
		LockOnComment:            cfg.Lock.LockOnComment,
	}, nil
}

func containsFold(list []string, v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return false
	}
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
