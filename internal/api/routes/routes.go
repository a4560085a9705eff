// server/internal/api/routes/routes.go
package routes

import (
	"freight-exchange-api-server/config"
	"freight-exchange-api-server/internal/api/handlers"
	"freight-exchange-api-server/internal/api/middleware"
	"freight-exchange-api-server/internal/matching"
	"freight-exchange-api-server/internal/models"
	"freight-exchange-api-server/internal/routing"
	"freight-exchange-api-server/internal/s3"
	"freight-exchange-api-server/internal/socket"
	"freight-exchange-api-server/internal/tracking"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter wires the handlers and route groups.
func SetupRouter(
	cfg config.Config,
	engine *matching.Engine,
	routeEngine *routing.Engine,
	store matching.Store,
	inbox handlers.NotificationStore,
	s3Uploader *s3.Uploader,
	trail tracking.Store,
	wsHub *socket.Hub,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	userHandler := &handlers.UserHandler{Store: store, Cfg: cfg}
	vehicleHandler := &handlers.VehicleHandler{Store: store}
	shipmentHandler := &handlers.ShipmentHandler{Engine: engine, Routes: routeEngine}
	offerHandler := &handlers.OfferHandler{Engine: engine}
	tourHandler := &handlers.TourHandler{Engine: engine, Uploader: s3Uploader, Trail: trail}
	notificationHandler := &handlers.NotificationHandler{Inbox: inbox}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub, JWTSecret: cfg.JWT.Secret}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
		}

		authed := apiV1.Group("/")
		authed.Use(middleware.Authenticate(cfg.JWT.Secret))
		{
			authed.GET("/users/me", userHandler.Me)
			authed.GET("/routes/suggest", shipmentHandler.SuggestRoutes)

			my := authed.Group("/my")
			{
				my.GET("/shipments", middleware.Authorize(models.RoleShipper), shipmentHandler.GetMyShipments)
				my.GET("/offers", middleware.Authorize(models.RoleCarrier), offerHandler.GetMyOffers)
				my.GET("/tours", tourHandler.GetMyTours)
				my.GET("/vehicles", middleware.Authorize(models.RoleCarrier), vehicleHandler.GetMyVehicles)
			}

			// The open freight board, carriers only.
			authed.GET("/board/shipments", middleware.Authorize(models.RoleCarrier), shipmentHandler.GetOpenShipments)

			vehicles := authed.Group("/vehicles")
			vehicles.Use(middleware.Authorize(models.RoleCarrier))
			{
				vehicles.POST("", vehicleHandler.CreateVehicle)
				vehicles.PATCH("/:id/status", vehicleHandler.UpdateVehicleStatus)
			}

			shipments := authed.Group("/shipments")
			{
				shipments.POST("", middleware.Authorize(models.RoleShipper), shipmentHandler.CreateShipment)
				shipments.GET("/:id", shipmentHandler.GetShipment)
				shipments.POST("/:id/publish", middleware.Authorize(models.RoleShipper), shipmentHandler.PublishShipment)
				shipments.POST("/:id/cancel", middleware.Authorize(models.RoleShipper), shipmentHandler.CancelShipment)
				shipments.GET("/:id/offers", middleware.Authorize(models.RoleShipper), offerHandler.GetOffersForShipment)
			}

			offers := authed.Group("/offers")
			{
				offers.POST("", middleware.Authorize(models.RoleCarrier), offerHandler.CreateOffer)
				offers.POST("/:id/accept", middleware.Authorize(models.RoleShipper), offerHandler.AcceptOffer)
				offers.POST("/:id/decline", middleware.Authorize(models.RoleShipper), offerHandler.DeclineOffer)
			}

			tours := authed.Group("/tours")
			{
				tours.GET("/:id", tourHandler.GetTour)
				tours.GET("/:id/transaction", tourHandler.GetTransaction)
				tours.GET("/:id/trail", tourHandler.GetTrail)
				tours.POST("/:id/confirm", middleware.Authorize(models.RoleCarrier), tourHandler.ConfirmTour)
				tours.POST("/:id/decline", middleware.Authorize(models.RoleCarrier), tourHandler.DeclineTour)
				tours.POST("/:id/pickup", middleware.Authorize(models.RoleCarrier), tourHandler.ConfirmPickup)
				tours.POST("/:id/deliver", middleware.Authorize(models.RoleCarrier), tourHandler.ConfirmDelivery)
				tours.POST("/:id/proof/:stage", middleware.Authorize(models.RoleCarrier), tourHandler.UploadProof)
				tours.POST("/:id/location", middleware.Authorize(models.RoleCarrier), tourHandler.PostLocation)
			}

			notifications := authed.Group("/notifications")
			{
				notifications.GET("", notificationHandler.GetMyNotifications)
				notifications.POST("/:id/read", notificationHandler.MarkRead)
			}
		}
	}

	return router
}
