package anubis

import (
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"net/http"
	"strings"
)

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errAnubisTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func buildURL(baseURL, path string) string {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return baseURL
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case !strings.HasPrefix(path, "/"):
		path = "/" + path
	}
	return baseURL + path
}
