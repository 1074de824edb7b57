package util

import (
	"crypto/subtle"
	"encoding/base64"
	"net"
	"net/http"
	"strings"
)

// APIKeyFromRequest extracts the presented key from a Bearer token, the
// password of Basic auth, or the X-API-Key header, in that order.
func APIKeyFromRequest(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	switch {
	case strings.HasPrefix(auth, "Bearer "):
		return strings.TrimPrefix(auth, "Bearer ")
	case strings.HasPrefix(auth, "Basic "):
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
		if err != nil {
			return ""
		}
		_, password, ok := strings.Cut(string(decoded), ":")
		if !ok {
			return ""
		}
		return password
	}
	return r.Header.Get("X-API-Key")
}

func VerifyAPIKey(r *http.Request, apiKey string) bool {
	presented := APIKeyFromRequest(r)
	if presented == "" || apiKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) == 1
}

func GetClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || host == "" {
		return r.RemoteAddr
	}
	return host
}

func GetLANIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}

	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
			if ipNet.IP.To4() != nil {
				return ipNet.IP.String()
			}
		}
	}

	return ""
}
