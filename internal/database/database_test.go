package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/streamio/streamio/internal/config"
)

// newMockDb creates a GORM DB instance backed by go-sqlmock for testing
// database interactions without a real server.
func newMockDb(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true, // Avoids issues with prepared statements in mock
	})
	conn, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return conn, mock
}

func TestInitializeUnsupportedType(t *testing.T) {
	_, err := Initialize(&config.DatabaseConfig{Type: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestInitializeSQLiteCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "data")
	cfg := &config.DatabaseConfig{
		Type:         "sqlite",
		DataDir:      dataDir,
		DatabasePath: filepath.Join(dataDir, "streamio.db"),
	}

	conn, err := Initialize(cfg)
	require.NoError(t, err)
	require.NotNil(t, conn)
	assert.Same(t, conn, GetDB())

	_, err = os.Stat(dataDir)
	assert.NoError(t, err, "data directory should be created on first open")
}

func TestSetDBSwapsGlobalHandle(t *testing.T) {
	original := GetDB()
	t.Cleanup(func() { SetDB(original) })

	conn, mock := newMockDb(t)
	SetDB(conn)
	assert.Same(t, conn, GetDB())

	rows := sqlmock.NewRows([]string{"one"}).AddRow(1)
	mock.ExpectQuery("SELECT 1").WillReturnRows(rows)

	var one int
	require.NoError(t, GetDB().Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
	assert.NoError(t, mock.ExpectationsWereMet())
}
