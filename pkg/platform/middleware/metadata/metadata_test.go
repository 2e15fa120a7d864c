package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "ipv4 remote", remote: "10.0.0.1:5000", want: "10.0.0.1"},
		{name: "ipv6 remote", remote: "[::1]:5000", want: "::1"},
		{name: "forwarded ignored without trust", remote: "10.0.0.1:5000",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7"}, want: "10.0.0.1"},
		{name: "first forwarded hop", remote: "10.0.0.1:5000", trustProxy: true,
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2"}, want: "203.0.113.7"},
		{name: "real ip", remote: "10.0.0.1:5000", trustProxy: true,
			headers: map[string]string{"X-Real-IP": " 203.0.113.8 "}, want: "203.0.113.8"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClientIP(r, tc.trustProxy))
		})
	}
}

func TestClientMetadataMiddleware(t *testing.T) {
	var gotIP, gotUA string
	var gotDevice Device
	h := ClientMetadata(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIP = GetClientIP(r.Context())
		gotUA = GetUserAgent(r.Context())
		gotDevice = GetDevice(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	r.Header.Set("User-Agent", chromeOnLinux)
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.1", gotIP)
	assert.Equal(t, chromeOnLinux, gotUA)
	assert.Equal(t, "Chrome 120.0.0.0", gotDevice.Browser)
}

const chromeOnLinux = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestParseDevice(t *testing.T) {
	t.Run("desktop browser", func(t *testing.T) {
		d := ParseDevice(chromeOnLinux)
		assert.Equal(t, "Chrome 120.0.0.0", d.Browser)
		assert.Contains(t, d.OS, "Linux")
		assert.False(t, d.Mobile)
		assert.False(t, d.Bot)
		assert.Equal(t, d.Browser+" on "+d.OS, d.String())
	})

	t.Run("mobile", func(t *testing.T) {
		d := ParseDevice("Mozilla/5.0 (Linux; U; Android 2.3.7; en-us; Nexus One Build/FRF91) AppleWebKit/533.1 (KHTML, like Gecko) Version/4.0 Mobile Safari/533.1")
		assert.True(t, d.Mobile)
		assert.Contains(t, d.OS, "Android")
	})

	t.Run("crawler", func(t *testing.T) {
		d := ParseDevice("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
		assert.True(t, d.Bot)
	})

	t.Run("empty header", func(t *testing.T) {
		assert.Equal(t, Device{}, ParseDevice("  "))
		assert.Equal(t, "", ParseDevice("").String())
	})
}
