// Package routes registers the portal's HTTP routes.
package routes

import (
	"payclear/internal/handlers"
	"payclear/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers bundles everything route registration needs.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Health     *handlers.HealthHandler
	Merchant   *handlers.MerchantHandler
	Settlement *handlers.SettlementHandler
	Fee        *handlers.FeeHandler
	Reserve    *handlers.ReserveHandler
	Chargeback *handlers.ChargebackHandler
	AuthMW     *middleware.AuthMiddleware
}

// Setup wires all routes onto the app.
func Setup(app *fiber.App, h Handlers) {
	app.Get("/health", h.Health.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Post("/api/login", h.Auth.Login)

	api := app.Group("/api", h.AuthMW.Handler)

	api.Get("/merchants/:merchantID", h.Merchant.Get)
	api.Get("/merchants/:merchantID/settings", h.Merchant.GetSettings)
	api.Get("/merchants/:merchantID/reserves", h.Reserve.List)
	api.Get("/merchants/:merchantID/chargebacks/pending", h.Chargeback.PendingSettlements)
	api.Get("/merchants/:merchantID/settlements", h.Settlement.ListReports)
	api.Get("/merchants/:merchantID/fees/history", h.Fee.History)
	api.Get("/fee-types", h.Fee.ListTypes)

	api.Post("/settlements", h.Settlement.Generate)
	api.Get("/settlements/:reference", h.Settlement.GetReport)

	admin := api.Group("/admin", h.AuthMW.RequireAdmin)
	admin.Post("/merchants", h.Merchant.Create)
	admin.Post("/merchants/:merchantID/settings", h.Merchant.CreateSettings)
	admin.Post("/merchants/:merchantID/fees", h.Fee.CreateOverride)
	admin.Post("/merchants/:merchantID/reserves/release", h.Reserve.ReleaseSweep)
	admin.Post("/chargebacks/settle", h.Chargeback.Settle)
}
