package core

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/gopivotal/newrelic-plugins/internal/core/config"
)

type platformAPI struct {
	sync.Mutex
	bodies []string
	keys   []string
}

func (p *platformAPI) serve(t *testing.T) *httptest.Server {
	r := mux.NewRouter()
	r.HandleFunc("/platform/v1/metrics", func(rw http.ResponseWriter, req *http.Request) {
		body, err := ioutil.ReadAll(req.Body)
		require.NoError(t, err)
		p.Lock()
		p.bodies = append(p.bodies, string(body))
		p.keys = append(p.keys, req.Header.Get("X-License-Key"))
		p.Unlock()
		_, _ = rw.Write([]byte(`{"status":"ok"}`))
	}).Methods("POST")

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, endpoint, statFile string) *config.Config {
	conf, err := config.LoadYAML([]byte(fmt.Sprintf(`
newrelic:
  licenseKey: testkey
  endpoint: %s
intervalSeconds: 30
monitors:
  - type: httpd_mod_bmx
    host: localhost
    statFile: %s
`, endpoint, statFile)), config.Overrides{})
	require.NoError(t, err)
	return conf
}

func TestRunOnceReports(t *testing.T) {
	api := &platformAPI{}
	server := api.serve(t)

	require.NoError(t, RunOnce(context.Background(), testConfig(t, server.URL, "testdata/vhost.txt")))

	api.Lock()
	defer api.Unlock()
	require.Len(t, api.bodies, 1)
	assert.Equal(t, "testkey", api.keys[0])

	body := gjson.Parse(api.bodies[0])
	assert.Equal(t, "1.0.5", body.Get("agent.version").String())
	assert.Equal(t, "localhost:80", body.Get("components.0.name").String())
	assert.Equal(t, "com.gopivotal.newrelic.plugins.httpd_mod_bmx", body.Get("components.0.guid").String())
	assert.Equal(t, int64(30), body.Get("components.0.duration").Int())
	assert.Equal(t, int64(1024), body.Get(`components.0.metrics.Component/HTTPD/InBytesGET\[bytes\]`).Int())
	assert.Equal(t, int64(12), body.Get(`components.0.metrics.Component/HTTPD/InRequestsGET\[requests\]`).Int())
}

func TestRunOnceFailsOnCollectionError(t *testing.T) {
	api := &platformAPI{}
	server := api.serve(t)

	err := RunOnce(context.Background(), testConfig(t, server.URL, "testdata/missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "httpd_mod_bmx-1")
}

func TestRunOnceFailsOnBadConfig(t *testing.T) {
	conf, err := config.LoadYAML([]byte(`
debug: true
monitors:
  - type: redis
    prot: 6379
`), config.Overrides{})
	require.NoError(t, err)

	err = RunOnce(context.Background(), conf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestStartupAndShutdown(t *testing.T) {
	api := &platformAPI{}
	server := api.serve(t)

	shutdown, complete, err := Startup(testConfig(t, server.URL, "testdata/vhost.txt"))
	require.NoError(t, err)

	// The first collection happens right away and the rest wait for the
	// interval, so shutting down sends exactly one batch.
	shutdown()
	<-complete

	api.Lock()
	defer api.Unlock()
	require.Len(t, api.bodies, 1)
}

func TestStartupSkipsMonitorWithNegativeInterval(t *testing.T) {
	conf, err := config.LoadYAML([]byte(`
debug: true
monitors:
  - type: redis
    host: localhost
    intervalSeconds: -1
`), config.Overrides{})
	require.NoError(t, err)

	var shutdown context.CancelFunc
	var complete <-chan struct{}
	require.NotPanics(t, func() {
		shutdown, complete, err = Startup(conf)
	})
	require.NoError(t, err)

	shutdown()
	<-complete

	err = RunOnce(context.Background(), conf)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "rejected")
	}
}
