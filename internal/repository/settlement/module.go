package settlement

import "go.uber.org/fx"

// Module provides the settlement repository to Fx.
var Module = fx.Provide(NewRepository)
