package util

import (
	"net/http"
	"strings"
)

// ForwardedAddr extracts the originating network address recorded on audit
// entries. Proxies append to X-Forwarded-For, so the first comma-separated
// entry is the original client; it is trimmed and returned as-is. An absent
// or empty header yields "", which the store persists as NULL — a malformed
// multi-address string must never be stored whole.
func ForwardedAddr(r *http.Request) string {
	raw := r.Header.Get("X-Forwarded-For")
	if raw == "" {
		return ""
	}
	first, _, _ := strings.Cut(raw, ",")
	return strings.TrimSpace(first)
}
