package report

import "go.uber.org/fx"

// Module provides the report aggregator to Fx.
var Module = fx.Provide(NewService)
