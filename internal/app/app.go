package app

import (
	"go.uber.org/fx"

	"github.com/carlostcba/GustadosPOS-sub000/internal/cache"
	"github.com/carlostcba/GustadosPOS-sub000/internal/config"
	"github.com/carlostcba/GustadosPOS-sub000/internal/database"
	"github.com/carlostcba/GustadosPOS-sub000/internal/logger"
	"github.com/carlostcba/GustadosPOS-sub000/internal/messaging"
	"github.com/carlostcba/GustadosPOS-sub000/internal/observability"
	"github.com/carlostcba/GustadosPOS-sub000/internal/realtime"
	repositorycoupon "github.com/carlostcba/GustadosPOS-sub000/internal/repository/coupon"
	repositoryorder "github.com/carlostcba/GustadosPOS-sub000/internal/repository/order"
	repositoryregister "github.com/carlostcba/GustadosPOS-sub000/internal/repository/register"
	repositoryreport "github.com/carlostcba/GustadosPOS-sub000/internal/repository/report"
	repositorysettlement "github.com/carlostcba/GustadosPOS-sub000/internal/repository/settlement"
	httpserver "github.com/carlostcba/GustadosPOS-sub000/internal/server/http"
	servicecoupon "github.com/carlostcba/GustadosPOS-sub000/internal/service/coupon"
	serviceorder "github.com/carlostcba/GustadosPOS-sub000/internal/service/order"
	serviceregister "github.com/carlostcba/GustadosPOS-sub000/internal/service/register"
	servicereport "github.com/carlostcba/GustadosPOS-sub000/internal/service/report"
	servicesettlement "github.com/carlostcba/GustadosPOS-sub000/internal/service/settlement"
	transporthttp "github.com/carlostcba/GustadosPOS-sub000/internal/transport/http"
	"github.com/carlostcba/GustadosPOS-sub000/internal/worker"
	workerfulfillment "github.com/carlostcba/GustadosPOS-sub000/internal/worker/fulfillment"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	realtime.Module,
	repositorycoupon.Module,
	repositoryorder.Module,
	repositoryregister.Module,
	repositoryreport.Module,
	repositorysettlement.Module,
	servicecoupon.Module,
	serviceorder.Module,
	serviceregister.Module,
	servicereport.Module,
	servicesettlement.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerfulfillment.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
