// Package ui provides the SquarePack desktop viewer.
//
// This file defines a compact Fyne theme whose light/dark variant follows the
// user preference.

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// Theme preference values stored in model.AppConfig.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// SquarePackTheme wraps the default Fyne theme with compact sizing and an
// optional fixed variant.
type SquarePackTheme struct {
	base    fyne.Theme
	variant fyne.ThemeVariant
	fixed   bool // false follows the system variant
}

// NewSquarePackTheme returns the theme for a preference value. Unknown values
// follow the system.
func NewSquarePackTheme(pref string) *SquarePackTheme {
	t := &SquarePackTheme{base: theme.DefaultTheme()}
	t.SetPreference(pref)
	return t
}

// SetPreference switches between light, dark and system variants.
func (t *SquarePackTheme) SetPreference(pref string) {
	switch pref {
	case ThemeLight:
		t.variant, t.fixed = theme.VariantLight, true
	case ThemeDark:
		t.variant, t.fixed = theme.VariantDark, true
	default:
		t.fixed = false
	}
}

// Color delegates to the base theme, forcing the stored variant if fixed.
func (t *SquarePackTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if t.fixed {
		variant = t.variant
	}
	return t.base.Color(name, variant)
}

// Font delegates to the base theme.
func (t *SquarePackTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

// Icon delegates to the base theme.
func (t *SquarePackTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

// Size returns compact sizing overrides.
func (t *SquarePackTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 12
	case theme.SizeNameCaptionText:
		return 9
	case theme.SizeNameHeadingText:
		return 20
	case theme.SizeNameSubHeadingText:
		return 15
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 6
	default:
		return t.base.Size(name)
	}
}
