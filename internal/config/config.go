package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"cvetl/internal/cvdw"
	"cvetl/internal/dbclient"
)

// ── Config ─────────────────────────────────────────────────
// Built once at process start from an optional .env file and the
// process environment (the environment wins), then passed around by
// reference. Variable names and defaults are those the jobs have
// always used, fallback chains included.

// DefaultEnvFile is read when present; a missing file is not an error.
const DefaultEnvFile = ".env"

// Config is the full runtime configuration.
type Config struct {
	Email string
	Token string

	// Endpoints is keyed by pipeline name.
	Endpoints map[string]Endpoint
	PageSize  int
	Retries   int
	Backoff   time.Duration

	Since      string
	SinceParam string

	// Children is keyed by child table name.
	Children map[string]bool

	Proxy Proxy

	DB            Database
	LogDB         string
	RunLogEnabled bool

	LogLevel  string
	LogFormat string

	MetricsPushgateway string
	MetricsJob         string
}

// Endpoint is one API resource.
type Endpoint struct {
	URL     string
	Method  string
	Timeout time.Duration
}

// Proxy selects an outbound HTTP proxy.
type Proxy struct {
	Enabled bool
	HTTP    string
	HTTPS   string
}

// Database describes the target database.
type Database struct {
	Driver   string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string
}

// Connection converts to the dbclient form.
func (d Database) Connection() dbclient.Connection {
	return dbclient.Connection{
		Driver:   dbclient.Driver(d.Driver),
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Name,
		Username: d.User,
		Password: d.Password,
		SSLMode:  d.SSLMode,
		DSN:      d.DSN,
	}
}

// LogConnection is the connection for the run-log database.
func (c *Config) LogConnection() dbclient.Connection {
	return c.DB.Connection().WithDatabase(c.LogDB)
}

// ChildEnabled reports whether a child table is loaded. Tables without
// a switch are always loaded.
func (c *Config) ChildEnabled(table string) bool {
	enabled, ok := c.Children[table]
	return !ok || enabled
}

// ── Loading ────────────────────────────────────────────────

// Load reads envFile (if it exists) and the environment. An empty
// envFile means DefaultEnvFile.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	explicit := envFile != ""
	if !explicit {
		envFile = DefaultEnvFile
	}
	if _, err := os.Stat(envFile); err == nil {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read %s", envFile)
		}
	} else if explicit {
		return nil, errors.Wrapf(err, "env file")
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	baseMethod := str(v, "GET", "RESERVAS_HTTP_METHOD")
	timeout := seconds(v, 30, "RESERVAS_TIMEOUT")

	return &Config{
		Email: str(v, "", "CVCRM_EMAIL"),
		Token: str(v, "", "CVCRM_TOKEN"),

		Endpoints: map[string]Endpoint{
			"reservas": {
				URL:     str(v, "https://frjr.cvcrm.com.br/api/v1/cvdw/reservas", "URL_RESERVAS"),
				Method:  strings.ToUpper(baseMethod),
				Timeout: timeout,
			},
			"precadastros": {
				URL:     str(v, "https://frjr.cvcrm.com.br/api/v1/cvdw/precadastros", "URL_PRECADASTROS"),
				Method:  strings.ToUpper(str(v, baseMethod, "PRECADASTROS_HTTP_METHOD")),
				Timeout: seconds(v, 50, "RESERVAS_TIMEOUT"),
			},
			"visitas": {
				URL:     str(v, "https://frjr.cvcrm.com.br/api/v1/cvdw/visitas", "URL_VISITAS"),
				Method:  strings.ToUpper(str(v, baseMethod, "VISITAS_HTTP_METHOD")),
				Timeout: timeout,
			},
		},
		PageSize: integer(v, 450, "RESERVAS_PAGE_SIZE", "CVCRM_PAGE_SIZE"),
		Retries:  integer(v, 3, "RESERVAS_RETRIES"),
		Backoff:  seconds(v, 2, "RETRY_BACKOFF"),

		Since:      str(v, "", "CVCRM_SINCE"),
		SinceParam: str(v, "a_partir_data_cad", "CVCRM_SINCE_PARAM"),

		Children: map[string]bool{
			cvdw.TableReservasCamposAdicionais:      flag(v, true, "LOAD_CAMPOS_ADICIONAIS"),
			cvdw.TableReservasCamposAdicionaisContr: flag(v, true, "LOAD_CAMPOS_ADICIONAIS_CONTRATO"),
			cvdw.TablePrecadastrosCamposAdicionais:  flag(v, true, "LOAD_PRE_CAMPOS_ADICIONAIS"),
		},

		Proxy: Proxy{
			Enabled: flag(v, false, "ENABLE_PROXY"),
			HTTP:    str(v, "", "PROXY_HTTP"),
			HTTPS:   str(v, "", "PROXY_HTTPS"),
		},

		DB: Database{
			Driver:   strings.ToLower(str(v, string(dbclient.DriverMySQL), "DB_DRIVER")),
			Host:     str(v, "localhost", "DB_HOST", "MYSQL_HOST"),
			Port:     integer(v, 0, "DB_PORT", "MYSQL_PORT"),
			Name:     str(v, "CVCRM", "DB_NAME", "MYSQL_DB"),
			User:     str(v, "root", "DB_USER", "MYSQL_USER"),
			Password: str(v, "", "DB_PASSWORD", "MYSQL_PASSWORD"),
			SSLMode:  str(v, "", "DB_SSLMODE"),
			DSN:      str(v, "", "DB_DSN"),
		},
		LogDB:         str(v, "log_cvcrm", "LOG_DB"),
		RunLogEnabled: flag(v, true, "RUNLOG_ENABLED"),

		LogLevel:  strings.ToLower(str(v, "info", "LOG_LEVEL")),
		LogFormat: strings.ToLower(str(v, "text", "LOG_FORMAT")),

		MetricsPushgateway: str(v, "", "METRICS_PUSHGATEWAY"),
		MetricsJob:         str(v, "cvetl", "METRICS_JOB"),
	}
}

// str returns the first non-empty key, else def.
func str(v *viper.Viper, def string, keys ...string) string {
	for _, k := range keys {
		if s := strings.TrimSpace(v.GetString(k)); s != "" {
			return s
		}
	}
	return def
}

// integer is str for whole numbers. A set but malformed value reads
// as 0 and is rejected by Validate.
func integer(v *viper.Viper, def int, keys ...string) int {
	for _, k := range keys {
		if strings.TrimSpace(v.GetString(k)) != "" {
			return v.GetInt(k)
		}
	}
	return def
}

func seconds(v *viper.Viper, def int, keys ...string) time.Duration {
	return time.Duration(integer(v, def, keys...)) * time.Second
}

// flag is on only when the value is exactly "1".
func flag(v *viper.Viper, def bool, key string) bool {
	s := strings.TrimSpace(v.GetString(key))
	if s == "" {
		return def
	}
	return s == "1"
}

// ── Validation ─────────────────────────────────────────────

var httpURL = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("must be an http or https URL")
	}
	return nil
})

var optionalURL = validation.By(func(value interface{}) error {
	if s, _ := value.(string); s == "" {
		return nil
	}
	return httpURL.Validate(value)
})

// Validate checks the whole configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required),
		validation.Field(&c.Token, validation.Required),
		validation.Field(&c.Endpoints, validation.Required),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1)),
		validation.Field(&c.Retries, validation.Required, validation.Min(1)),
		validation.Field(&c.Backoff, validation.Min(time.Duration(0))),
		validation.Field(&c.SinceParam, validation.Required),
		validation.Field(&c.Proxy),
		validation.Field(&c.DB),
		validation.Field(&c.LogLevel, validation.In("trace", "debug", "info", "warn", "warning", "error", "fatal", "panic")),
		validation.Field(&c.LogFormat, validation.In("text", "json")),
		validation.Field(&c.MetricsPushgateway, optionalURL),
	)
}

func (e Endpoint) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.URL, validation.Required, httpURL),
		validation.Field(&e.Method, validation.In("GET", "POST")),
		validation.Field(&e.Timeout, validation.Required, validation.Min(time.Second)),
	)
}

func (p Proxy) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.HTTP, optionalURL),
		validation.Field(&p.HTTPS, optionalURL),
	)
}

func (d Database) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(
			string(dbclient.DriverMySQL), string(dbclient.DriverPostgres),
			string(dbclient.DriverSQLite), string(dbclient.DriverMongoDB))),
		validation.Field(&d.Host, validation.When(d.DSN == "", validation.Required)),
		validation.Field(&d.Port, validation.Min(0), validation.Max(65535)),
	)
}
