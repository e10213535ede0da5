package popup

import "testing"

func TestResolvePage(t *testing.T) {
	tests := map[string]string{
		"/":                      PageHome,
		"/(tabs)":                PageHome,
		"/(tabs)/audio":          PageAudio,
		"/(tabs)/prayers/rosary": PagePrayers,
		"/lectio":                PageLectio,
		"/intentions/new":        PageIntentions,
		"/(tabs)/news/42":        PageNews,
		"/profile":               PageProfile,
		"/admin/popups":          PageAdmin,
		"/settings":              PageHome,
		"":                       PageHome,
	}
	for path, want := range tests {
		if got := ResolvePage(path); got != want {
			t.Errorf("ResolvePage(%q) = %q, want %q", path, got, want)
		}
	}
}
