package instance

import (
	"os"
	"strings"
)

// EnvInstanceID overrides the detected instance identifier.
const EnvInstanceID = "CARTFLOW_INSTANCE_ID"

var hostname = os.Hostname

// GetID returns the process instance identifier: CARTFLOW_INSTANCE_ID, then
// DYNO, then the hostname, then "local".
func GetID() string {
	for _, key := range []string{EnvInstanceID, "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := hostname(); err == nil && strings.TrimSpace(host) != "" {
		return host
	}
	return "local"
}
