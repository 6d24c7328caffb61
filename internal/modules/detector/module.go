package detector

import (
	"exit_guard/internal/modules/detector/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("detector",
		fx.Provide(
			service.NewDetector, // *service.Detector
		),
	)
}
