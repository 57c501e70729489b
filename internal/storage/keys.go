package storage

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"edupanel/internal/ids"
)

const maxNameLength = 100

var (
	ErrInvalidKey = errors.New("invalid_key")

	unsafeRun  = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	keyPattern = regexp.MustCompile(`^\d{13}-[a-z0-9]{27}-[A-Za-z0-9._-]{1,100}$`)
)

// KeyMinter issues object keys of the form
// <prefix>/<unix-millis>-<ksuid>-<sanitized file name>.
type KeyMinter struct {
	Prefix string
	Now    func() time.Time
	Suffix func() string
}

func NewKeyMinter(prefix string) KeyMinter {
	return KeyMinter{Prefix: strings.Trim(prefix, "/"), Now: time.Now, Suffix: ids.Short}
}

func (m KeyMinter) Mint(fileName string) string {
	name := fmt.Sprintf("%d-%s-%s", m.Now().UnixMilli(), m.Suffix(), SanitizeFileName(fileName))
	if m.Prefix == "" {
		return name
	}
	return m.Prefix + "/" + name
}

// Validate checks that key has the shape Mint produces under this prefix.
func (m KeyMinter) Validate(key string) error {
	if key == "" || strings.Contains(key, "..") || path.Clean(key) != key {
		return ErrInvalidKey
	}
	base := key
	if m.Prefix != "" {
		rest, ok := strings.CutPrefix(key, m.Prefix+"/")
		if !ok {
			return ErrInvalidKey
		}
		base = rest
	}
	if !keyPattern.MatchString(base) {
		return ErrInvalidKey
	}
	return nil
}

func SanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = unsafeRun.ReplaceAllString(name, "_")

	// the extension survives even when nothing of the base is safe
	ext := path.Ext(name)
	if len(ext) > 10 || ext == "." {
		ext = ""
	}
	base := strings.TrimLeft(strings.TrimSuffix(name, ext), "._")
	if ext == "" {
		base = strings.TrimRight(base, "._")
	}
	if base == "" {
		base = "video"
	}
	if len(base)+len(ext) > maxNameLength {
		base = strings.TrimRight(base[:maxNameLength-len(ext)], "._")
	}
	return base + ext
}
