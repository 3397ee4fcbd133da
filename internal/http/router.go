// README: HTTP router registration.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"routecab/internal/http/handlers"
	"routecab/internal/http/middleware"
	"routecab/internal/infra"
	"routecab/internal/modules/account"
	"routecab/internal/modules/driver"
	"routecab/internal/modules/location"
	"routecab/internal/modules/matching"
	"routecab/internal/modules/ride"
	"routecab/internal/modules/route"
)

const roleAdmin = "admin"

type Deps struct {
	Matching *matching.Service
	Rides    *ride.Service
	Accounts *account.Service
	Drivers  *driver.Registry
	Routes   *route.Catalog
	Location *location.Service
	Verifier infra.TokenVerifier
	Log      *slog.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Metrics(), middleware.Logging(deps.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	matchHandler := handlers.NewMatchHandler(deps.Matching)
	api.POST("/match", matchHandler.Match)

	rideHandler := handlers.NewRideHandler(deps.Rides)
	api.POST("/rides", rideHandler.Request)
	api.GET("/rides/:id", rideHandler.Get)
	api.POST("/rides/:id/accept", rideHandler.Accept)
	api.POST("/rides/:id/cancel", rideHandler.Cancel)
	api.POST("/rides/:id/complete", rideHandler.Complete)

	accountHandler := handlers.NewAccountHandler(deps.Accounts)
	api.POST("/accounts", accountHandler.Create)
	api.GET("/accounts/me", accountHandler.Me)
	api.PUT("/accounts/me/active-role", accountHandler.SwitchActiveRole)
	api.POST("/accounts/me/upgrade", accountHandler.Upgrade)
	api.POST("/accounts/me/downgrade", accountHandler.Downgrade)

	driverHandler := handlers.NewDriverHandler(deps.Drivers, deps.Location)
	api.GET("/drivers/me", driverHandler.Me)
	api.PUT("/drivers/:id/location", driverHandler.UpdateLocation)
	api.PUT("/drivers/:id/availability", driverHandler.SetAvailability)
	api.POST("/drivers/:id/route", driverHandler.AssignRoute)

	routeHandler := handlers.NewRouteHandler(deps.Routes)
	api.GET("/routes", routeHandler.ListActive)
	api.GET("/routes/nearby", routeHandler.Nearby)
	api.GET("/routes/:id", routeHandler.Get)

	admin := api.Group("/admin", middleware.RequireRole(roleAdmin))
	admin.PUT("/routes/:id", routeHandler.Save)
	admin.PUT("/drivers/:id/route", driverHandler.ReassignRoute)

	return r
}
