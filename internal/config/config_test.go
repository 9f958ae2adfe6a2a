package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvetl/internal/config"
	"cvetl/internal/cvdw"
	"cvetl/internal/dbclient"
)

func writeEnv(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ─────────────────────────────────────────────────────────────
// Loading
// ─────────────────────────────────────────────────────────────

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeEnv(t, "CVCRM_EMAIL=ops@example.com\nCVCRM_TOKEN=secret\n"))
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", cfg.Email)
	assert.Equal(t, "secret", cfg.Token)
	assert.Equal(t, 450, cfg.PageSize)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 2*time.Second, cfg.Backoff)
	assert.Equal(t, "a_partir_data_cad", cfg.SinceParam)
	assert.Empty(t, cfg.Since)

	assert.Equal(t, config.Endpoint{
		URL:     "https://frjr.cvcrm.com.br/api/v1/cvdw/reservas",
		Method:  "GET",
		Timeout: 30 * time.Second,
	}, cfg.Endpoints["reservas"])
	assert.Equal(t, 50*time.Second, cfg.Endpoints["precadastros"].Timeout)
	assert.Equal(t, "https://frjr.cvcrm.com.br/api/v1/cvdw/visitas", cfg.Endpoints["visitas"].URL)

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, "CVCRM", cfg.DB.Name)
	assert.Equal(t, "root", cfg.DB.User)
	assert.Equal(t, "log_cvcrm", cfg.LogDB)
	assert.True(t, cfg.RunLogEnabled)
	assert.False(t, cfg.Proxy.Enabled)

	assert.True(t, cfg.ChildEnabled(cvdw.TableReservasCamposAdicionais))
	assert.True(t, cfg.ChildEnabled(cvdw.TableReservasCamposAdicionaisContr))
	assert.True(t, cfg.ChildEnabled(cvdw.TablePrecadastrosCamposAdicionais))
	assert.True(t, cfg.ChildEnabled("some_other_table"))

	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "env file")
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	path := writeEnv(t, "CVCRM_EMAIL=file@example.com\nRESERVAS_PAGE_SIZE=100\n")
	t.Setenv("CVCRM_EMAIL", "env@example.com")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env@example.com", cfg.Email)
	assert.Equal(t, 100, cfg.PageSize)
}

func TestLoad_FallbackChains(t *testing.T) {
	t.Setenv("MYSQL_HOST", "legacy-db")
	t.Setenv("MYSQL_DB", "LEGACY")
	t.Setenv("MYSQL_PASSWORD", "pw")
	t.Setenv("DB_USER", "etl")
	t.Setenv("MYSQL_USER", "ignored")
	t.Setenv("CVCRM_PAGE_SIZE", "200")

	cfg, err := config.Load(writeEnv(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "legacy-db", cfg.DB.Host)
	assert.Equal(t, "LEGACY", cfg.DB.Name)
	assert.Equal(t, "pw", cfg.DB.Password)
	assert.Equal(t, "etl", cfg.DB.User)
	assert.Equal(t, 200, cfg.PageSize)
}

func TestLoad_MethodsAndTimeouts(t *testing.T) {
	t.Setenv("RESERVAS_HTTP_METHOD", "post")
	t.Setenv("VISITAS_HTTP_METHOD", "get")
	t.Setenv("RESERVAS_TIMEOUT", "15")

	cfg, err := config.Load(writeEnv(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "POST", cfg.Endpoints["reservas"].Method)
	assert.Equal(t, "POST", cfg.Endpoints["precadastros"].Method)
	assert.Equal(t, "GET", cfg.Endpoints["visitas"].Method)
	assert.Equal(t, 15*time.Second, cfg.Endpoints["reservas"].Timeout)
	assert.Equal(t, 15*time.Second, cfg.Endpoints["precadastros"].Timeout)
}

func TestLoad_ChildSwitchesOnlyAcceptOne(t *testing.T) {
	t.Setenv("LOAD_CAMPOS_ADICIONAIS", "0")
	t.Setenv("LOAD_CAMPOS_ADICIONAIS_CONTRATO", "true")
	t.Setenv("LOAD_PRE_CAMPOS_ADICIONAIS", "1")
	t.Setenv("ENABLE_PROXY", "1")
	t.Setenv("RUNLOG_ENABLED", "0")

	cfg, err := config.Load(writeEnv(t, ""))
	require.NoError(t, err)
	assert.False(t, cfg.ChildEnabled(cvdw.TableReservasCamposAdicionais))
	assert.False(t, cfg.ChildEnabled(cvdw.TableReservasCamposAdicionaisContr))
	assert.True(t, cfg.ChildEnabled(cvdw.TablePrecadastrosCamposAdicionais))
	assert.True(t, cfg.Proxy.Enabled)
	assert.False(t, cfg.RunLogEnabled)
}

func TestLogConnection(t *testing.T) {
	cfg, err := config.Load(writeEnv(t, "DB_DRIVER=Postgres\nDB_HOST=pg\nDB_PORT=5433\n"))
	require.NoError(t, err)

	conn := cfg.LogConnection()
	assert.Equal(t, dbclient.DriverPostgres, conn.Driver)
	assert.Equal(t, "pg", conn.Host)
	assert.Equal(t, 5433, conn.Port)
	assert.Equal(t, "log_cvcrm", conn.Database)
	assert.Equal(t, "CVCRM", cfg.DB.Connection().Database)
}

// ─────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────

func TestValidate_ReportsEveryField(t *testing.T) {
	cfg, err := config.Load(writeEnv(t, "RESERVAS_RETRIES=0\nDB_DRIVER=oracle\nLOG_FORMAT=xml\nURL_VISITAS=ftp://x\n"))
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)

	errs, ok := err.(validation.Errors)
	require.True(t, ok, "got %T", err)
	for _, field := range []string{"Email", "Token", "Retries", "DB", "LogFormat", "Endpoints"} {
		assert.Contains(t, errs, field)
	}
	assert.NotContains(t, errs, "PageSize")
}

func TestValidate_Endpoint(t *testing.T) {
	assert.NoError(t, config.Endpoint{URL: "https://a.example.com/x", Method: "POST", Timeout: time.Second}.Validate())
	assert.Error(t, config.Endpoint{URL: "https://a.example.com/x", Method: "PUT", Timeout: time.Second}.Validate())
	assert.Error(t, config.Endpoint{URL: "https://a.example.com/x", Method: "GET", Timeout: 0}.Validate())
	assert.Error(t, config.Endpoint{URL: "not a url", Method: "GET", Timeout: time.Second}.Validate())
}

func TestValidate_RejectsZeroOrMalformedNumbers(t *testing.T) {
	cfg, err := config.Load(writeEnv(t, "CVCRM_EMAIL=a@b.c\nCVCRM_TOKEN=t\nRESERVAS_TIMEOUT=abc\nRESERVAS_PAGE_SIZE=abc\nRESERVAS_RETRIES=0\n"))
	require.NoError(t, err)
	require.Zero(t, cfg.PageSize)

	err = cfg.Validate()
	require.Error(t, err)

	errs, ok := err.(validation.Errors)
	require.True(t, ok, "got %T", err)
	for _, field := range []string{"PageSize", "Retries", "Endpoints"} {
		assert.Contains(t, errs, field)
	}
	assert.NotContains(t, errs, "Email")
}

func TestValidate_Database(t *testing.T) {
	assert.NoError(t, config.Database{Driver: "sqlite", Host: "/tmp/cv.db"}.Validate())
	assert.NoError(t, config.Database{Driver: "mongodb", DSN: "mongodb://x"}.Validate())
	assert.Error(t, config.Database{Driver: "mysql"}.Validate())
	assert.Error(t, config.Database{Driver: "mysql", Host: "h", Port: 70000}.Validate())
}
