/*
dto.go - Data Transfer Objects for API requests and responses

Defines the JSON structures for API communication, decoupling the engine's
domain model from the external contract. Unit prices arrive as JSON
strings or numbers; decimal.Decimal unmarshals both without floating-point
drift.

NAMING CONVENTION:
  *Request:  request body types from clients
  *Response: response types returned to clients
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/looplink/stickers/engine"
)

// IngestRequest is one submitted purchase transaction.
type IngestRequest struct {
	TransactionID string    `json:"transaction_id"`
	ShopperID     string    `json:"shopper_id"`
	StoreID       string    `json:"store_id"`
	Items         []ItemDTO `json:"items"`
}

// ItemDTO is one basket line in an ingest request.
type ItemDTO struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Category  string          `json:"category"`
}

// IngestResponse reports the stickers awarded for a transaction id.
type IngestResponse struct {
	TransactionID   string `json:"transaction_id"`
	StickersAwarded int64  `json:"stickers_awarded"`
	Message         string `json:"message,omitempty"`
}

// ShopperResponse is the shopper detail view: balance plus history.
type ShopperResponse struct {
	ShopperID    string                  `json:"shopper_id"`
	Balance      int64                   `json:"balance"`
	Transactions []ShopperTransactionDTO `json:"transactions"`
}

// ShopperTransactionDTO is one row of a shopper's transaction history.
type ShopperTransactionDTO struct {
	TransactionID   string `json:"transaction_id"`
	StoreID         string `json:"store_id"`
	TotalAmount     string `json:"total_amount"`
	StickersAwarded int64  `json:"stickers_awarded"`
	Timestamp       string `json:"timestamp"`
}

// RedeemRequest exchanges stickers for a reward.
type RedeemRequest struct {
	ShopperID  string `json:"shopper_id"`
	RewardCode string `json:"reward_code"`
}

// RedeemResponse reports a successful redemption.
type RedeemResponse struct {
	Message          string `json:"message"`
	RemainingBalance int64  `json:"remaining_balance"`
}

// StatsResponse is the reporting aggregate.
type StatsResponse struct {
	TotalStickersAwarded int64           `json:"total_stickers_awarded"`
	TotalTransactions    int64           `json:"total_transactions"`
	StickersPerStore     []StoreStatsDTO `json:"stickers_per_store"`
}

// StoreStatsDTO is one row of the per-store breakdown.
type StoreStatsDTO struct {
	StoreID         string `json:"store_id"`
	StickersAwarded int64  `json:"stickers_awarded"`
}

// RewardDTO is one catalog entry.
type RewardDTO struct {
	Code string `json:"code"`
	Cost int64  `json:"cost"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func toShopperResponse(d *engine.ShopperDetail) ShopperResponse {
	txs := make([]ShopperTransactionDTO, len(d.Transactions))
	for i, tx := range d.Transactions {
		txs[i] = ShopperTransactionDTO{
			TransactionID:   string(tx.ID),
			StoreID:         string(tx.StoreID),
			TotalAmount:     tx.TotalAmount.StringFixed(2),
			StickersAwarded: tx.StickersAwarded,
			Timestamp:       tx.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return ShopperResponse{
		ShopperID:    string(d.Shopper.ID),
		Balance:      d.Balance,
		Transactions: txs,
	}
}

func toItems(dtos []ItemDTO) []engine.TransactionItem {
	items := make([]engine.TransactionItem, len(dtos))
	for i, dto := range dtos {
		items[i] = engine.TransactionItem{
			SKU:       dto.SKU,
			Name:      dto.Name,
			Quantity:  dto.Quantity,
			UnitPrice: dto.UnitPrice,
			Category:  dto.Category,
		}
	}
	return items
}
