package cli

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/shop_catalog/internal/document"
	"github.com/Skotchmaster/shop_catalog/internal/repo"
	"github.com/Skotchmaster/shop_catalog/pkg/config"
	pkgdb "github.com/Skotchmaster/shop_catalog/pkg/db"
)

type stores struct {
	Repo     *repo.GormRepo
	Document *document.Store
}

func (s *stores) Close() {
	if sqlDB, err := s.Repo.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// openStores opens and migrates the relational store. The document path can
// be overridden per command.
func openStores(ctx context.Context, cfg config.Config, documentPath string) (*stores, error) {
	db, err := pkgdb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	r := &repo.GormRepo{DB: db}
	if err := r.Migrate(ctx); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if documentPath == "" {
		documentPath = cfg.DocumentPath
	}
	return &stores{Repo: r, Document: document.NewStore(documentPath)}, nil
}
