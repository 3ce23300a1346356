package config

import (
	"bytes"
	"text/template"
)

var configFileTmpl = template.Must(template.New("config").Parse(`# Hackteam server configurations

# The name of the server.
name: "{{ .Name }}"

# Logging configuration.
log:
  # Log format to use. Valid values are "json", "logfmt", and "text".
  format: "{{ .Log.Format }}"
  # Time format for the log "timestamp" field.
  # Should be described in Golang's time format.
  time_format: "{{ .Log.TimeFormat }}"
  # Path to the log file. Leave empty to write to stderr.
  #path: "{{ .Log.Path }}"

# The HTTP server configuration.
http:
  # The address on which the HTTP server will listen.
  listen_addr: "{{ .HTTP.ListenAddr }}"

  # The public URL of the HTTP server.
  public_url: "{{ .HTTP.PublicURL }}"

  # The cross-origin settings for the HTTP API.
  cors:
    allowed_headers:{{ range .HTTP.CORS.AllowedHeaders }}
      - "{{ . }}"{{ end }}
    allowed_origins:{{ range .HTTP.CORS.AllowedOrigins }}
      - "{{ . }}"{{ end }}
    allowed_methods:{{ range .HTTP.CORS.AllowedMethods }}
      - "{{ . }}"{{ end }}

# The stats server configuration.
stats:
  # The address on which the stats server will listen.
  listen_addr: "{{ .Stats.ListenAddr }}"

# The database configuration.
db:
  # The database driver to use.
  # Valid values are "sqlite" and "postgres".
  driver: "{{ .DB.Driver }}"
  # The database data source name.
  # This is driver specific and can be a file path or connection string.
  data_source: "{{ .DB.DataSource }}"

# Caller authentication.
auth:
  # The HMAC secret used to sign bearer tokens.
  # Prefer setting HACKTEAM_AUTH_SECRET over storing it here.
  #secret: ""
  # The expected token issuer. Defaults to the HTTP public URL.
  issuer: "{{ .Auth.Issuer }}"
  # Lifetime of tokens issued with "hackteam token".
  ttl: "{{ .Auth.TTL }}"

# Team membership rules.
teams:
  # Capacity given to teams created without an explicit maximum.
  default_max_members: {{ .Teams.DefaultMaxMembers }}
  # How many times a roster write is retried after a concurrent change.
  max_retries: {{ .Teams.MaxRetries }}

# Directory store settings.
store:
  # Timeout applied to each store call.
  timeout: "{{ .Store.Timeout }}"

# Rate limiting for applications and invitations.
# Leave redis_addr empty to disable.
rate_limit:
  redis_addr: "{{ .RateLimit.RedisAddr }}"
  redis_db: {{ .RateLimit.RedisDB }}
  requests: {{ .RateLimit.Requests }}
  window: "{{ .RateLimit.Window }}"
`))

func newConfigFile(cfg *Config) string {
	var b bytes.Buffer
	configFileTmpl.Execute(&b, cfg) // nolint: errcheck
	return b.String()
}
