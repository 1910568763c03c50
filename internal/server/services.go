package server

import (
	"fmt"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/openmined/syftbox/internal/db"
	"github.com/openmined/syftbox/internal/server/auth"
	"github.com/openmined/syftbox/internal/server/datasite"
	"github.com/openmined/syftbox/internal/server/store"
)

// Services holds the long-lived server subsystems.
type Services struct {
	DB       *sqlx.DB
	Store    *store.Store
	Datasite *datasite.Service
	Auth     *auth.Service
}

func NewServices(config *Config) (*Services, error) {
	sqliteDB, err := db.NewSqliteDb(db.WithPath(config.DBPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	st, err := store.New(sqliteDB, filepath.Join(config.DataDir, "snapshot"))
	if err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}

	return &Services{
		DB:       sqliteDB,
		Store:    st,
		Datasite: datasite.NewService(st),
		Auth:     auth.NewService(&config.Auth),
	}, nil
}

func (s *Services) Close() error {
	return s.DB.Close()
}
