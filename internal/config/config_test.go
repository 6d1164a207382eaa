package config

import (
	"context"
	"testing"
	"time"

	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("STORAGE_DRIVER", "sqlite")
}

func TestFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, "user_events", cfg.KafkaTopic)
	assert.Equal(t, "tasks", cfg.ESIndex)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.SearchEnabled())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.SecureCookies())
}

func TestFromEnv_ProductionForcesSecureCookies(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("COOKIE_SECURE", "false")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.SecureCookies())
}

func TestFromEnv_ParsesLists(t *testing.T) {
	setRequired(t)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("ES_URL", "http://es:9200")
	t.Setenv("ALLOWED_ORIGINS", "https://todo.example.com")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://todo.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.KafkaEnabled())
	assert.True(t, cfg.SearchEnabled())
}

func TestFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing access secret", env: map[string]string{"ACCESS_TOKEN_SECRET": ""}},
		{name: "same secrets", env: map[string]string{"REFRESH_TOKEN_SECRET": "access-secret"}},
		{name: "postgres without dsn", env: map[string]string{"STORAGE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{name: "mongo without uri", env: map[string]string{"STORAGE_DRIVER": "mongo", "MONGO_URI": ""}},
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := FromEnv()
			require.Error(t, err)
		})
	}
}

func TestInitDB_SQLiteMemory(t *testing.T) {
	cfg := &Config{StorageDriver: DriverSQLite, SQLitePath: ":memory:"}

	db, err := InitDB(context.Background(), cfg)
	require.NoError(t, err)

	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m))
	}
}

func TestInitDB_RejectsMongo(t *testing.T) {
	_, err := InitDB(context.Background(), &Config{StorageDriver: DriverMongo})
	require.Error(t, err)
}
