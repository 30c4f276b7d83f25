package model

import "time"

// Account describes a configured mailbox. The password is never part of
// this struct; it lives in the OS keyring under the account's Email.
type Account struct {
	// Email is the login address and the account's unique key.
	Email string `json:"email"`

	// IMAPHost and IMAPPort locate the incoming server.
	IMAPHost string `json:"imap_host"`
	IMAPPort int    `json:"imap_port"`

	// SMTPHost and SMTPPort locate the outgoing server.
	SMTPHost string `json:"smtp_host"`
	SMTPPort int    `json:"smtp_port"`

	// IsDemo marks an account backed by the mock mail source.
	IsDemo bool `json:"is_demo"`

	// CreatedAt is when the account was first saved.
	CreatedAt time.Time `json:"created_at"`
}

// Setting keys persisted in the store's key/value table.
const (
	SettingSidebarWidth = "sidebar_width"
	SettingThemeMode    = "theme_mode"
)

// Defaults for the well-known settings.
const (
	DefaultSidebarWidth = "42"
	DefaultThemeMode    = ThemeSystem
)

// Theme modes accepted by SettingThemeMode.
const (
	ThemeSystem = "system"
	ThemeDark   = "dark"
	ThemeLight  = "light"
)

// NextThemeMode cycles system -> dark -> light -> system.
func NextThemeMode(current string) string {
	switch current {
	case ThemeSystem:
		return ThemeDark
	case ThemeDark:
		return ThemeLight
	default:
		return ThemeSystem
	}
}
