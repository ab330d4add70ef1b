package migrations

import (
	"github.com/buidl-renaissance/art-night-detroit-sub000/internal/store"

	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		return store.Migrate(app.DB())
	}, func(app core.App) error {
		return store.Drop(app.DB())
	})
}
