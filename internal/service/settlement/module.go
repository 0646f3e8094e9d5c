package settlement

import "go.uber.org/fx"

// Module provides the settlement engine to Fx.
var Module = fx.Provide(NewService)
