package instance

import (
	"os"

	"github.com/angelmondragon/storefront-backend/pkg/env"
)

const fallbackID = "storefront-0"

// ID names this process in worker logs. STOREFRONT_INSTANCE_ID wins over the hostname.
func ID() string {
	if id := env.Get("STOREFRONT_INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
