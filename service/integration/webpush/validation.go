package webpush

import (
	"crypto/ecdh"
	"crypto/elliptic"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/url"
	"strings"

	"notibridge/service/subscription"
)

const (
	vapidKeyLen   = 32
	p256dhKeyLen  = 65
	authSecretLen = 16
)

// keyError names the subscription field that failed to normalize.
type keyError struct {
	Field  string
	Reason string
}

func (e *keyError) Error() string {
	return e.Field + ": " + e.Reason
}

// toWebPush checks the endpoint and, for encrypted subscriptions, rewrites
// every key into unpadded base64url.
func (req *registerRequest) toWebPush(requireHTTPS bool) (*subscription.WebPushSubscription, error) {
	endpoint := strings.TrimSpace(req.PushEndpoint)
	if err := checkEndpoint(endpoint, req.encrypted() && requireHTTPS); err != nil {
		return nil, err
	}

	wp := &subscription.WebPushSubscription{Endpoint: endpoint}
	if !req.encrypted() {
		return wp, nil
	}

	var err error
	if wp.P256dh, err = normalizeP256DH(*req.P256dh); err != nil {
		return nil, err
	}
	if wp.Auth, err = normalizeAuthSecret(*req.Auth); err != nil {
		return nil, err
	}
	if wp.VapidPrivateKey, err = normalizeVAPIDPrivateKey(*req.VapidPrivateKey); err != nil {
		return nil, err
	}
	return wp, nil
}

func checkEndpoint(raw string, requireHTTPS bool) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return &keyError{Field: "pushEndpoint", Reason: "not an absolute URL"}
	}
	switch {
	case u.Scheme != "https" && u.Scheme != "http":
		return &keyError{Field: "pushEndpoint", Reason: "scheme must be http or https"}
	case requireHTTPS && u.Scheme != "https":
		return &keyError{Field: "pushEndpoint", Reason: "encrypted delivery needs https"}
	}
	return nil
}

func normalizeVAPIDPrivateKey(raw string) (string, error) {
	d, err := decodeKey("vapidPrivateKey", raw, vapidKeyLen)
	if err != nil {
		return "", err
	}

	scalar := new(big.Int).SetBytes(d)
	if scalar.Sign() == 0 || scalar.Cmp(elliptic.P256().Params().N) >= 0 {
		return "", &keyError{Field: "vapidPrivateKey", Reason: "scalar outside the P-256 group order"}
	}
	return base64.RawURLEncoding.EncodeToString(d), nil
}

func normalizeP256DH(raw string) (string, error) {
	point, err := decodeKey("p256dh", raw, p256dhKeyLen)
	if err != nil {
		return "", err
	}
	if _, err := ecdh.P256().NewPublicKey(point); err != nil {
		return "", &keyError{Field: "p256dh", Reason: "not an uncompressed P-256 point"}
	}
	return base64.RawURLEncoding.EncodeToString(point), nil
}

func normalizeAuthSecret(raw string) (string, error) {
	secret, err := decodeKey("auth", raw, authSecretLen)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(secret), nil
}

// decodeKey accepts padded or unpadded base64url and checks the length.
func decodeKey(field, raw string, size int) ([]byte, error) {
	key := strings.TrimRight(strings.TrimSpace(raw), "=")
	decoded, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return nil, &keyError{Field: field, Reason: "not base64url"}
	}
	if len(decoded) != size {
		return nil, &keyError{Field: field, Reason: fmt.Sprintf("want %d bytes, got %d", size, len(decoded))}
	}
	return decoded, nil
}
