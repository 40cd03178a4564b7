package handler

import (
	"fmt"
	"net/http"
	"time"

	auction "eventhive/internal/auctionService"
	model "eventhive/internal/models"
	"eventhive/services/auction/helpers"
	"eventhive/utils"

	"github.com/gin-gonic/gin"
)

type AuctionServiceInterface interface {
	CreateAuction(p auction.CreateAuctionParams) (model.Auction, error)
	PlaceBid(auctionID, bidderID string, amount float64) (auction.BidResult, error)
	GetAuction(auctionID string) (auction.AuctionView, error)
	ParticipatedAuctions(userID string) ([]model.Auction, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	created, err := h.service.CreateAuction(auction.CreateAuctionParams{
		EventID:         req.EventID,
		ItemName:        req.ItemName,
		ItemDescription: req.ItemDescription,
		StartingBid:     req.StartingBid,
		BidIncrement:    req.BidIncrement,
		DurationMinutes: req.DurationMinutes,
	})
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Error("CreateAuctionHandler: failed to create auction", map[string]any{
			"event_id": req.EventID,
			"error":    err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.ToAuctionResponse(created), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": created.AuctionID,
		"event_id":   created.EventID,
		"item_name":  created.ItemName,
	})
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	result, err := h.service.PlaceBid(auctionID, req.BidderID, req.Amount)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		if details := helpers.RejectionDetails(err); details != nil {
			utils.JSONErrorWithDetails(c, status, fmt.Errorf("%s: %w", message, err), message, details)
		} else {
			utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		}
		utils.Warn("PlaceBidHandler: bid rejected", map[string]any{
			"auction_id": auctionID,
			"bidder_id":  req.BidderID,
			"amount":     req.Amount,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.PlaceBidResponse{
		Bid:         helpers.ToBidResponse(auctionID, result.Bid),
		Auction:     helpers.ToAuctionResponse(result.Auction),
		Leaderboard: result.Leaderboard,
		ServerTime:  result.ServerTime.Format(time.RFC3339),
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid recorded successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     result.Bid.BidID,
		"auction_id": auctionID,
		"bidder_id":  req.BidderID,
		"amount":     result.Bid.Amount,
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	view, err := h.service.GetAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetAuctionHandler: error retrieving auction", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	resp := helpers.AuctionViewResponse{
		Auction:     helpers.ToAuctionResponse(view.Auction),
		Leaderboard: view.Leaderboard,
		ServerTime:  view.ServerTime.Format(time.RFC3339),
		EndTime:     view.EndTime.UTC().Format(time.RFC3339),
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auction retrieved successfully")
}

// GetLeaderboardHandler handles GET /auctions/:auction_id/leaderboard
func (h *AuctionHandler) GetLeaderboardHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	view, err := h.service.GetAuction(auctionID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetLeaderboardHandler: error retrieving leaderboard", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, view.Leaderboard, "leaderboard retrieved successfully")
}

// GetParticipatedAuctionsHandler handles GET /users/:user_id/auctions
func (h *AuctionHandler) GetParticipatedAuctionsHandler(c *gin.Context) {
	userID := c.Param("user_id")

	auctions, err := h.service.ParticipatedAuctions(userID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
		utils.Warn("GetParticipatedAuctionsHandler: error retrieving auctions", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}

	resp := make([]helpers.AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		resp = append(resp, helpers.ToAuctionResponse(a))
	}

	utils.JSONResponse(c, http.StatusOK, resp, "auctions retrieved successfully")
	helpers.LogSuccess("GetParticipatedAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"user_id": userID,
		"count":   len(resp),
	})
}
