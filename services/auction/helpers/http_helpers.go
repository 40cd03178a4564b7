package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"eventhive/internal/auctionerrors"
	model "eventhive/internal/models"
	"eventhive/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, auctionerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, auctionerrors.ErrEventNotFound):
		return http.StatusNotFound, "event not found"
	case errors.Is(err, auctionerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, auctionerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, auctionerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction terms"
	case errors.Is(err, auctionerrors.ErrAuctionNotActive):
		return http.StatusBadRequest, "auction is not active"
	case errors.Is(err, auctionerrors.ErrAuctionEnded):
		return http.StatusBadRequest, "auction has ended"
	case errors.Is(err, auctionerrors.ErrHostCannotBid):
		return http.StatusForbidden, "event hosts cannot bid on their own auctions"
	case errors.Is(err, auctionerrors.ErrConsecutiveBid):
		return http.StatusConflict, "bidder already holds the highest bid"
	case errors.Is(err, auctionerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, auctionerrors.ErrStoreConflict), errors.Is(err, auctionerrors.ErrStatusConflict):
		return http.StatusConflict, "auction changed concurrently, please retry"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RejectionDetails extracts the retry context of a rejected bid, if present,
// so the response can state the current highest bid and the minimum
// acceptable next bid.
func RejectionDetails(err error) map[string]any {
	var rejection *auctionerrors.BidRejection
	if !errors.As(err, &rejection) {
		return nil
	}
	return map[string]any{
		"current_highest_bid": rejection.CurrentHighestBid,
		"minimum_next_bid":    rejection.MinimumNextBid,
	}
}

// ToAuctionResponse converts an auction snapshot to its transport DTO.
func ToAuctionResponse(a model.Auction) AuctionResponse {
	return AuctionResponse{
		AuctionID:         a.AuctionID,
		EventID:           a.EventID,
		ItemName:          a.ItemName,
		ItemDescription:   a.ItemDescription,
		StartingBid:       a.StartingBid,
		BidIncrement:      a.BidIncrement,
		DurationMinutes:   a.DurationMinutes,
		Status:            string(a.Status),
		CurrentHighestBid: a.CurrentHighestBid,
		TotalBids:         len(a.Bids),
		CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
		EndTime:           a.EndTime().UTC().Format(time.RFC3339),
	}
}

// ToBidResponse converts a committed bid to its transport DTO.
func ToBidResponse(auctionID string, b model.Bid) BidResponse {
	return BidResponse{
		BidID:     b.BidID,
		AuctionID: auctionID,
		BidderID:  b.BidderID,
		Amount:    b.Amount,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
