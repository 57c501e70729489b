package agent

import (
	"strings"

	"github.com/mssola/useragent"

	"edupanel/internal/models"
)

const unknown = "Unknown"

type Info struct {
	Browser string
	OS      string
	Type    models.DeviceType
}

// Parse describes the client behind a User-Agent header.
func Parse(header string) Info {
	header = strings.TrimSpace(header)
	if header == "" {
		return Info{Browser: unknown, OS: unknown, Type: models.DeviceDesktop}
	}

	ua := useragent.New(header)

	browser, _ := ua.Browser()
	if browser == "" {
		browser = unknown
	}

	osInfo := ua.OSInfo()
	osName := strings.TrimSpace(osInfo.Name + " " + osInfo.Version)
	if osName == "" {
		osName = unknown
	}

	return Info{Browser: browser, OS: osName, Type: deviceType(ua, header)}
}

func deviceType(ua *useragent.UserAgent, header string) models.DeviceType {
	switch {
	case ua.Bot():
		return models.DeviceBot
	case strings.Contains(header, "iPad") || strings.Contains(header, "Tablet") ||
		(strings.Contains(header, "Android") && !strings.Contains(header, "Mobile")):
		return models.DeviceTablet
	case ua.Mobile() || strings.Contains(header, "Mobi"):
		return models.DeviceMobile
	default:
		return models.DeviceDesktop
	}
}
