package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 10<<20, cfg.Server.BodyLimit)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout())
	assert.Equal(t, DefaultAllowOrigins, cfg.Server.AllowOrigins)
	assert.Equal(t, 95, cfg.Image.JPEGQuality)
	assert.Equal(t, 25_000_000, cfg.Image.MaxPixels)
	assert.Equal(t, EnhancerAFIS, cfg.Enhancer.Kind)
	assert.Equal(t, 30*time.Second, cfg.Enhancer.Timeout())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 7*24*time.Hour, cfg.Log.MaxAge())
	require.NoError(t, cfg.Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.toml")
	doc := `
[server]
addr = "127.0.0.1:9090"
allow_origins = ["https://a.example", " https://b.example ", "https://a.example", ""]

[image]
jpeg_quality = 80
max_pixels = 4194304

[enhancer]
kind = "Command"
command = "/usr/local/bin/enhance"
args = ["--stdin"]
timeout_seconds = 5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 80, cfg.Image.JPEGQuality)
	assert.Equal(t, 4194304, cfg.Image.MaxPixels)
	assert.Equal(t, EnhancerCommand, cfg.Enhancer.Kind)
	assert.Equal(t, []string{"--stdin"}, cfg.Enhancer.Args)
	assert.Equal(t, 5*time.Second, cfg.Enhancer.Timeout())
	assert.Equal(t, 10<<20, cfg.Server.BodyLimit)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse(`
[server]
adress = ":8000"
`)
	assert.ErrorContains(t, err, "server.adress")
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		doc  string
		want string
	}{
		"bad addr":          {doc: `server.addr = "8000"`, want: "server.addr"},
		"bad port":          {doc: `server.addr = ":99999"`, want: "port in 1..65535"},
		"body limit":        {doc: `server.body_limit = -1`, want: "server.body_limit"},
		"wildcard origin":   {doc: `server.allow_origins = ["*"]`, want: "server.allow_origins[0]"},
		"subdomain pattern": {doc: `server.allow_origins = ["https://*.vercel.app"]`, want: "without wildcards"},
		"schemeless origin": {doc: `server.allow_origins = ["https://a.example", "fingers-app.vercel.app"]`, want: "server.allow_origins[1]"},
		"origin with path":  {doc: `server.allow_origins = ["https://a.example/app"]`, want: "server.allow_origins[0]"},
		"ftp origin":        {doc: `server.allow_origins = ["ftp://a.example"]`, want: "server.allow_origins[0]"},
		"quality":           {doc: `image.jpeg_quality = 101`, want: "image.jpeg_quality"},
		"max pixels":        {doc: `image.max_pixels = -1`, want: "image.max_pixels"},
		"kind":              {doc: `enhancer.kind = "gabor"`, want: "enhancer.kind"},
		"command":           {doc: `enhancer.kind = "command"`, want: "enhancer.command is required"},
		"timeout":           {doc: `enhancer.timeout_seconds = -5`, want: "enhancer.timeout_seconds"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.doc)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	_, err := Parse(`
server.body_limit = -1
image.jpeg_quality = 101
`)
	require.Error(t, err)
	assert.ErrorContains(t, err, "server.body_limit")
	assert.ErrorContains(t, err, "image.jpeg_quality")
}

func TestValidateAcceptsOrigins(t *testing.T) {
	cfg, err := Parse(`server.allow_origins = ["http://localhost", "http://localhost:3000", "https://fingers-app.vercel.app"]`)
	require.NoError(t, err)
	assert.Len(t, cfg.Server.AllowOrigins, 3)
}
