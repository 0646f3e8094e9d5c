package register

import "go.uber.org/fx"

// Module provides the register repository to Fx.
var Module = fx.Provide(NewRepository)
