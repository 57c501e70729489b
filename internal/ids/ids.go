package ids

import (
	"strings"

	"github.com/segmentio/ksuid"
)

// New returns a sortable, collision-resistant identifier.
func New() string {
	return ksuid.New().String()
}

// Short returns a lower-cased ksuid, suitable inside object keys.
func Short() string {
	return strings.ToLower(ksuid.New().String())
}
