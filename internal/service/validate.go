package service

import (
	"net/url"
	"strconv"
	"strings"
)

const maxPort = 65535

// IsValidURL reports whether input is an absolute URL with both a scheme
// and an authority. Parse failures, including the empty string, are false.
// Leading and trailing spaces and control characters are ignored, the same
// way a browser URL parser ignores them.
func IsValidURL(input string) bool {
	input = strings.TrimFunc(input, func(r rune) bool { return r <= ' ' })
	if input == "" {
		return false
	}
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	if !u.IsAbs() || u.Host == "" {
		return false
	}
	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n > maxPort {
			return false
		}
	}
	return true
}
