package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Redis.ChartTTL)
	assert.Equal(t, "qc-images", cfg.MinIO.Bucket)
	assert.True(t, cfg.Quality.SeedCharts)

	table := cfg.Quality.BuyerTable()
	assert.Equal(t, "MWW", table.ResolveBuyer("GPCOM123"))
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Contains(t, cfg.Database.DSN(), "host=db.internal port=6543")
}

func TestLoadBuyerRulesFromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
jwt:
  secret: file-secret
quality:
  buyer_rules:
    - pattern: ZX
      buyer: Zara
  aql_levels:
    - keywords: [ZARA]
      level: 2.5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	chdir(t, dir)

	cfg, err := Load()
	require.NoError(t, err)

	table := cfg.Quality.BuyerTable()
	assert.Equal(t, "Zara", table.ResolveBuyer("GPZX001"))
	assert.Equal(t, 2.5, table.ResolveAQLLevel("Zara"))
	// 只覆盖了规则，未配置的买家走默认
	assert.Equal(t, "Other", table.ResolveBuyer("GPCOM123"))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"postgres ok", Config{Store: StoreConfig{Driver: "postgres"}, JWT: JWTConfig{Secret: "s"}}, false},
		{"firestore needs project", Config{Store: StoreConfig{Driver: "firestore"}, JWT: JWTConfig{Secret: "s"}}, true},
		{"firestore ok", Config{Store: StoreConfig{Driver: "firestore"}, Firestore: FirestoreConfig{ProjectID: "p"}, JWT: JWTConfig{Secret: "s"}}, false},
		{"unknown driver", Config{Store: StoreConfig{Driver: "mongo"}, JWT: JWTConfig{Secret: "s"}}, true},
		{"missing secret", Config{Store: StoreConfig{Driver: "postgres"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("QC_TEST_VALUE", "x")
	assert.Equal(t, "x", GetEnvOrDefault("QC_TEST_VALUE", "y"))
	assert.Equal(t, "y", GetEnvOrDefault("QC_TEST_MISSING", "y"))
}

// chdir 切换工作目录并在测试结束时恢复（等价于 Go 1.24 的 t.Chdir）
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
