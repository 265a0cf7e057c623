package client

import (
	"errors"

	"github.com/tidwall/gjson"
)

// StatusCode returns the HTTP status of a failed fetch, or 0 when the
// failure did not come from a response.
func StatusCode(err error) int {
	var serr *statusError
	if errors.As(err, &serr) {
		return serr.status
	}
	return 0
}

// errorMessage extracts the "error" field the server writes on loader
// failures.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return gjson.GetBytes(body, "error").String()
}
