package register

import "go.uber.org/fx"

// Module provides the register service to Fx.
var Module = fx.Provide(NewService)
