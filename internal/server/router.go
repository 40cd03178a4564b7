package server

import (
	auction "eventhive/internal/auctionService"
	handler "eventhive/services/auction/handler"
	ws "eventhive/services/auction/ws"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService *auction.AuctionService, wsHandler *ws.Handler) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(auctionService)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.GET("/:auction_id/leaderboard", auctionHandler.GetLeaderboardHandler)
		auctions.POST("/:auction_id/bids", auctionHandler.PlaceBidHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id/auctions", auctionHandler.GetParticipatedAuctionsHandler)
	}

	if wsHandler != nil {
		router.GET("/ws", wsHandler.Serve)
	}

	return router
}
