package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportWithBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	var gotOK bool
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotOK = r.BasicAuth()
	}))
	defer server.Close()

	client := &http.Client{Transport: &TransportWithBasicAuth{
		RoundTripper: http.DefaultTransport,
		Username:     "guest",
		Password:     "s3cret",
	}}

	req, err := http.NewRequest("GET", server.URL, nil)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.True(t, gotOK)
	assert.Equal(t, "guest", gotUser)
	assert.Equal(t, "s3cret", gotPass)
	assert.Empty(t, req.Header.Get("Authorization"), "original request should be left alone")
}

func TestTLSConfigBadCAPath(t *testing.T) {
	_, err := TLSConfig(nil, "/does/not/exist.pem", "", "")
	assert.Error(t, err)
}
