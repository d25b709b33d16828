package shop

import "go.uber.org/fx"

var Module = fx.Module("shop.service",
	fx.Provide(NewService),
	fx.Invoke(registerHandler),
)
