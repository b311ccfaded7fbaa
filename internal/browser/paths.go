package browser

// Store identifies one of the files a browser profile keeps.
type Store int

const (
	History Store = iota
	Bookmarks
	Downloads
)

func (s Store) String() string {
	switch s {
	case History:
		return "history"
	case Bookmarks:
		return "bookmarks"
	case Downloads:
		return "downloads"
	default:
		return "unknown"
	}
}

// Templates maps OS -> browser -> store -> path template. Templates may use
// ~, $VAR, %VAR% and * glob segments.
type Templates map[string]map[string]map[Store]string

// DefaultTemplates returns the well-known profile locations for the default
// profile of each supported browser.
func DefaultTemplates() Templates {
	return Templates{
		"linux": {
			"chrome":  chromium("~/.config/google-chrome/Default"),
			"edge":    chromium("~/.config/microsoft-edge/Default"),
			"brave":   chromium("~/.config/BraveSoftware/Brave-Browser/Default"),
			"vivaldi": chromium("~/.config/vivaldi/Default"),
			"opera":   chromium("~/.config/opera"),
			"firefox": firefox("~/.mozilla/firefox/*.default*"),
		},
		"darwin": {
			"chrome":  chromium("~/Library/Application Support/Google/Chrome/Default"),
			"edge":    chromium("~/Library/Application Support/Microsoft Edge/Default"),
			"brave":   chromium("~/Library/Application Support/BraveSoftware/Brave-Browser/Default"),
			"vivaldi": chromium("~/Library/Application Support/Vivaldi/Default"),
			"opera":   chromium("~/Library/Application Support/com.operasoftware.Opera"),
			"firefox": firefox("~/Library/Application Support/Firefox/Profiles/*.default*"),
			"safari": {
				History: "~/Library/Safari/History.db",
			},
		},
		"windows": {
			"chrome":  chromium(`%LocalAppData%\Google\Chrome\User Data\Default`),
			"edge":    chromium(`%LocalAppData%\Microsoft\Edge\User Data\Default`),
			"brave":   chromium(`%LocalAppData%\BraveSoftware\Brave-Browser\User Data\Default`),
			"vivaldi": chromium(`%LocalAppData%\Vivaldi\User Data\Default`),
			"opera":   chromium(`%AppData%\Opera Software\Opera Stable`),
			"firefox": firefox(`%AppData%\Mozilla\Firefox\Profiles\*.default*`),
		},
	}
}

// chromium profiles keep history and downloads in one SQLite file and
// bookmarks in a JSON document beside it.
func chromium(profile string) map[Store]string {
	return map[Store]string{
		History:   join(profile, "History"),
		Bookmarks: join(profile, "Bookmarks"),
		Downloads: join(profile, "History"),
	}
}

func firefox(profile string) map[Store]string {
	places := join(profile, "places.sqlite")
	return map[Store]string{
		History:   places,
		Bookmarks: places,
		Downloads: places,
	}
}

// join keeps the template's own separator so Windows templates stay intact
// when resolved on other hosts in tests.
func join(dir, name string) string {
	sep := "/"
	for _, r := range dir {
		if r == '\\' {
			sep = `\`
			break
		}
	}
	return dir + sep + name
}
