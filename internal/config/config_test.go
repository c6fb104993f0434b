package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sitesurvey/camplan/pkg/core"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./logs", viper.GetString("logsDir"))
	assert.Equal(t, ":3000", viper.GetString("server.addr"))
	assert.Equal(t, "http://localhost:3000", viper.GetString("api.serverUrl"))
	assert.Equal(t, "", viper.GetString("api.apiKey"))
	assert.Equal(t, "localhost", viper.GetString("db.host"))
	assert.Equal(t, "5432", viper.GetString("db.port"))
	assert.Equal(t, "camplan", viper.GetString("db.database"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
	assert.Equal(t, "memory", viper.GetString("storage.type"))
	assert.Equal(t, "./data", viper.GetString("storage.memory.outputDir"))
	assert.Equal(t, "3m", viper.GetString("storage.sqlite.dumpInterval"))
	assert.Equal(t, false, viper.GetBool("otel.enabled"))
	assert.Equal(t, "camplan", viper.GetString("otel.serviceName"))
	assert.Equal(t, "create", viper.GetString("session.backgroundClick"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestGetString(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	assert.Equal(t, "testValue", GetString("testKey"))
}

func TestGetInt(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testInt", 42)
	assert.Equal(t, 42, GetInt("testInt"))
}

func TestGetBool(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testBool", true)
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetStorageConfig()
	assert.Equal(t, "memory", cfg.Type)
	assert.Equal(t, "./data", cfg.Memory.OutputDir)
	assert.Equal(t, false, cfg.Memory.CompressOutput)
	assert.Equal(t, "", cfg.SQLite.Path)
	assert.Equal(t, 3*time.Minute, cfg.SQLite.DumpInterval)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"memory": { "outputDir": "/tmp/out", "compressOutput": true },
			"sqlite": { "path": "/tmp/c.db", "dumpInterval": "10m" }
		}
	}`)
	require.NoError(t, Load(dir))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/out", sc.Memory.OutputDir)
	assert.Equal(t, true, sc.Memory.CompressOutput)
	assert.Equal(t, "/tmp/c.db", sc.SQLite.Path)
	assert.Equal(t, 10*time.Minute, sc.SQLite.DumpInterval)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4317",
			"insecure": false
		}
	}`)
	require.NoError(t, Load(dir))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4317", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}

func TestGetDBConfig_DSN(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"db": {"password": "s3cret"}}`)))

	dsn := GetDBConfig().DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "password=s3cret")
	assert.Contains(t, dsn, "dbname=camplan")
}

func TestGetInfluxConfig_URL(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"influx": {"enabled": true, "protocol": "https"}}`)))

	ic := GetInfluxConfig()
	assert.True(t, ic.Enabled)
	assert.Equal(t, "https://localhost:8086", ic.URL())
	assert.Equal(t, "camplan", ic.Bucket)
}

func TestGetVocabulary(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"vocabulary": {"statuses": ["Online", "Offline"]}}`)))

	v := GetVocabulary()
	assert.Equal(t, []string{"Online", "Offline"}, v.Statuses)
	assert.Equal(t, core.DefaultAnalysisTypes, v.AnalysisTypes)
}

func TestGetGeoreference(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		require.NoError(t, Load(writeConfig(t, `{}`)))

		_, ok, err := GetGeoreference()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("valid", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		require.NoError(t, Load(writeConfig(t, `{"georeference": {"originLon": 13.4, "originLat": 52.5, "metersPerPixel": 0.05}}`)))

		g, ok, err := GetGeoreference()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 13.4, g.OriginLon)
		assert.Equal(t, 0.05, g.MetersPerPixel)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Cleanup(viper.Reset)
		require.NoError(t, Load(writeConfig(t, `{"georeference": {"originLon": 13.4, "originLat": 52.5}}`)))

		_, _, err := GetGeoreference()
		assert.Error(t, err)
	})
}

func TestGetSessionConfig(t *testing.T) {
	t.Cleanup(viper.Reset)
	require.NoError(t, Load(writeConfig(t, `{"session": {"backgroundClick": "deselect"}}`)))

	sc := GetSessionConfig()
	assert.Equal(t, "deselect", sc.BackgroundClick)
	assert.Equal(t, 3.0, sc.ClickThreshold)
	assert.Equal(t, 4.0, sc.HitSlop)
}
