package config

import (
	"encoding/json"
)

type Config struct {
	// Community is the single managed community.
	Community string `json:"community"`

	Platform PlatformConfig `json:"platform"`
	Listen   ListenConfig   `json:"listen,omitempty"`
	Logging  LoggingConfig  `json:"logging,omitempty"`
	Storage  StorageConfig  `json:"storage"`
	Lock     LockConfig     `json:"lock"`
}

type PlatformConfig struct {
	BaseURL   string `json:"base_url"`
	Token     string `json:"token,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	// RatePerSec caps outbound platform calls; 0 uses the client default.
	RatePerSec int `json:"rate_per_sec,omitempty"`
	// Timeout is a Go duration string (e.g. "15s").
	Timeout string `json:"timeout,omitempty"`
}

// ListenConfig controls the inbound webhook listener.
type ListenConfig struct {
	Addr string `json:"addr,omitempty"` // default "127.0.0.1:8310"
}

type LoggingConfig struct {
	Level   string     `json:"level,omitempty"`
	Console bool       `json:"console,omitempty"`
	File    FileConfig `json:"file,omitempty"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./lockbot.db" }
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

// LockConfig is the lock-delay policy plus its exemptions. Comma-separated
// list fields mirror the platform's settings form.
type LockConfig struct {
	// Delay is the number of DelayUnits a post stays open. 0 means the
	// default of 1; negative values are rejected by Validate.
	Delay int `json:"delay,omitempty"`
	// DelayUnits accepts a single unit string or a list; a list
	// collapses to its first element (the settings form is a
	// single-choice select rendered as a multi-select).
	DelayUnits UnitChoice `json:"delay_units,omitempty"`

	IgnoreModerators        *bool  `json:"ignore_moderators,omitempty"` // default true
	IgnoreUsers             string `json:"ignore_users,omitempty"`
	IgnoreUserFlairText     string `json:"ignore_user_flair_text,omitempty"`
	IgnoreUserFlairCSSClass string `json:"ignore_user_flair_css_class,omitempty"`
	IgnorePostFlairText     string `json:"ignore_post_flair_text,omitempty"`
	IgnorePostFlairCSSClass string `json:"ignore_post_flair_css_class,omitempty"`
	IgnorePostFlairTemplate string `json:"ignore_post_flair_template,omitempty"`

	// LockedFlairTemplateID, when set, is applied to posts after locking.
	LockedFlairTemplateID string `json:"locked_flair_template_id,omitempty"`

	NSFWOnly              bool `json:"nsfw_only,omitempty"`
	HandleHistoricalPosts bool `json:"handle_historical_posts,omitempty"`
	LockOnComment         bool `json:"lock_on_comment,omitempty"`
}

// UnitChoice is a delay unit that tolerates the multi-select wire shape:
// either "days" or ["days", "weeks"], where only the first choice counts.
type UnitChoice string

func (u *UnitChoice) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*u = UnitChoice(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	if len(list) == 0 {
		*u = ""
		return nil
	}
	*u = UnitChoice(list[0])
	return nil
}

// IgnoreModeratorsEnabled resolves the pointer default (true when unset).
func (c LockConfig) IgnoreModeratorsEnabled() bool {
	return c.IgnoreModerators == nil || *c.IgnoreModerators
}
