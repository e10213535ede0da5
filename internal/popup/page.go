package popup

import "strings"

// Page identifiers used in Message.Pages.
const (
	PageHome       = "home"
	PageAudio      = "audio"
	PagePrayers    = "prayers"
	PageLectio     = "lectio"
	PageIntentions = "intentions"
	PageNews       = "news"
	PageProfile    = "profile"
	PageAdmin      = "admin"
)

var pageSegments = []string{PageAudio, PagePrayers, PageLectio, PageIntentions, PageNews, PageProfile, PageAdmin}

// ResolvePage maps a router path to a page identifier. Unknown paths land on home.
func ResolvePage(path string) string {
	if path == "/" || path == "/(tabs)" {
		return PageHome
	}
	for _, p := range pageSegments {
		if strings.Contains(path, "/"+p) {
			return p
		}
	}
	return PageHome
}
