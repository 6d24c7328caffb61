package positions

import (
	"exit_guard/internal/modules/positions/service/pg"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("positions",
		fx.Provide(
			pg.NewStore, // *pg.Store
		),
	)
}
