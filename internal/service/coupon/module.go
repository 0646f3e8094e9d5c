package coupon

import "go.uber.org/fx"

// Module provides the coupon validator to Fx.
var Module = fx.Provide(NewService)
