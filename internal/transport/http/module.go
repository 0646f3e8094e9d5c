package http

import (
	"go.uber.org/fx"

	coupontransport "github.com/carlostcba/GustadosPOS-sub000/internal/transport/http/coupon"
	ordertransport "github.com/carlostcba/GustadosPOS-sub000/internal/transport/http/order"
	registertransport "github.com/carlostcba/GustadosPOS-sub000/internal/transport/http/register"
	reporttransport "github.com/carlostcba/GustadosPOS-sub000/internal/transport/http/report"
	settlementtransport "github.com/carlostcba/GustadosPOS-sub000/internal/transport/http/settlement"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	registertransport.Module,
	settlementtransport.Module,
	coupontransport.Module,
	reporttransport.Module,
)
