package auth

import "net/http"

// TransportWithBasicAuth sets HTTP basic auth credentials on every request
// that passes through it.
type TransportWithBasicAuth struct {
	http.RoundTripper
	Username string
	Password string
}

// RoundTrip clones the request so the caller's copy is never mutated
func (t *TransportWithBasicAuth) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)
	return t.RoundTripper.RoundTrip(req)
}
