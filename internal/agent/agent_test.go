package agent

import (
	"testing"

	"edupanel/internal/models"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		browser string
		kind    models.DeviceType
	}{
		{
			name:    "desktop chrome",
			header:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			browser: "Chrome",
			kind:    models.DeviceDesktop,
		},
		{
			name:   "android phone",
			header: "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			kind:   models.DeviceMobile,
		},
		{
			name:   "iphone",
			header: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			kind:   models.DeviceMobile,
		},
		{
			name:   "ipad",
			header: "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			kind:   models.DeviceTablet,
		},
		{
			name:   "crawler",
			header: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			kind:   models.DeviceBot,
		},
	}
	for _, tc := range cases {
		info := Parse(tc.header)
		if info.Type != tc.kind {
			t.Fatalf("%s: expected type %s, got %s", tc.name, tc.kind, info.Type)
		}
		if tc.browser != "" && info.Browser != tc.browser {
			t.Fatalf("%s: expected browser %s, got %s", tc.name, tc.browser, info.Browser)
		}
		if info.OS == "" || info.Browser == "" {
			t.Fatalf("%s: expected non-empty description, got %+v", tc.name, info)
		}
	}
}

func TestParseEmpty(t *testing.T) {
	info := Parse("  ")
	if info.Browser != unknown || info.OS != unknown || info.Type != models.DeviceDesktop {
		t.Fatalf("unexpected info for empty agent: %+v", info)
	}
}
