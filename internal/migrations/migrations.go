// Package migrations хранит схему базы данных мастерской и применяет её через goose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"strings"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed *.sql
var embedMigrations embed.FS

// gooseLogger направляет вывод goose в zap.
type gooseLogger struct {
	*zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.Infof(strings.TrimSpace(format), v...)
}

func setup(log *zap.Logger) error {
	goose.SetBaseFS(embedMigrations)
	if log != nil {
		goose.SetLogger(gooseLogger{log.Named("migrations").Sugar()})
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// Run применяет все миграции к базе данных.
func Run(db *sql.DB, log *zap.Logger) error {
	if err := setup(log); err != nil {
		return err
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Version возвращает текущую версию схемы.
func Version(db *sql.DB) (int64, error) {
	if err := setup(nil); err != nil {
		return 0, err
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to get migration version: %w", err)
	}

	return version, nil
}
