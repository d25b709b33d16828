package student

import "go.uber.org/fx"

var Module = fx.Module("student.service",
	fx.Provide(NewService),
	fx.Invoke(registerHandler),
)
