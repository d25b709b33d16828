package coin

import "go.uber.org/fx"

var Module = fx.Module("coin.service",
	fx.Provide(NewService),
	fx.Invoke(registerHandler),
)

// Worker runs the payout task handler inside an asynq server.
var Worker = fx.Module("coin.worker",
	fx.Provide(NewPayoutHandler),
	fx.Invoke(registerPayoutHandler),
)
