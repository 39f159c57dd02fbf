// Package tui provides shared terminal rendering helpers.
package tui

func SuccessIcon(colorize bool) string {
	icon := "✓"
	if colorize {
		return SuccessStyle.Render(icon)
	}
	return icon
}

func ErrorIcon(colorize bool) string {
	icon := "✗"
	if colorize {
		return ErrorStyle.Render(icon)
	}
	return icon
}

func SkipIcon(colorize bool) string {
	icon := "-"
	if colorize {
		return WarningStyle.Render(icon)
	}
	return icon
}

// Render applies style only when colorize is set.
func Render(style interface{ Render(...string) string }, text string, colorize bool) string {
	if !colorize {
		return text
	}
	return style.Render(text)
}
