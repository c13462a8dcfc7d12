package controller

import (
	"io"
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testWorkspaceID uint = 42

// newMockDB opens a gorm handle over a sqlmock connection. Default
// transactions are skipped so only explicit Transaction blocks produce
// BEGIN/COMMIT expectations.
func newMockDB(t *testing.T, opts ...func(*gorm.Config)) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), cfg)
	require.NoError(t, err)
	return gdb, mock
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// newTestApp returns a fiber app with the workspace locals the protected
// handlers expect, without going through real authentication.
func newTestApp() *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("workspaceID", testWorkspaceID)
		return c.Next()
	})
	return app
}
