package iceberg

import (
	"strings"

	iceberg "github.com/apache/iceberg-go"
)

const redacted = "***REDACTED***"

var sensitiveKeys = []string{
	"access-key-id",
	"secret-access-key",
	"session-token",
	"password",
	"token",
	"secret",
	"credential",
}

// SanitizeProperties masks credentials so catalog properties can be logged
func SanitizeProperties(props iceberg.Properties) map[string]string {
	sanitized := make(map[string]string, len(props))
	for key, value := range props {
		sanitized[key] = value

		lowerKey := strings.ToLower(key)
		for _, sensitive := range sensitiveKeys {
			if strings.Contains(lowerKey, sensitive) {
				sanitized[key] = redacted
				break
			}
		}
	}
	return sanitized
}
