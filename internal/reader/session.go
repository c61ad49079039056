package reader

// Font scale bounds, in percent. Adjustment is saturating: requests past a
// bound stay at the bound instead of failing.
const (
	FontMin     = 80
	FontMax     = 160
	FontStep    = 10
	FontDefault = 100
)

// Session is one open reading session. Font and theme are ephemeral: a new
// session always starts at 100% / dark, matching the reader defaults.
type Session struct {
	ID              string
	BookID          string
	Title           string
	Source          Source
	FontSizePercent int
	Theme           ThemeName
}

// clampFont saturates a font percentage to [FontMin, FontMax].
func clampFont(percent int) int {
	if percent < FontMin {
		return FontMin
	}
	if percent > FontMax {
		return FontMax
	}
	return percent
}
