package model

import (
	"time"

	"github.com/Victor-armando18/service-giftbuilder/pkg/giftbuilder"
)

// CartSubmission is the finalized bundle handed to the cart at checkout.
type CartSubmission struct {
	ID          string                    `json:"id"`
	SessionID   string                    `json:"sessionId"`
	Box         *giftbuilder.BoxSelection `json:"box"`
	Products    []giftbuilder.GiftProduct `json:"products"`
	TotalPrice  float64                   `json:"totalPrice"`
	Discount    float64                   `json:"discount"`
	FinalPrice  float64                   `json:"finalPrice"`
	SubmittedAt time.Time                 `json:"submittedAt"`
}

// NewCartSubmission snapshots the bundle held in state.
func NewCartSubmission(sessionID string, state giftbuilder.State) CartSubmission {
	s := state.Clone()
	return CartSubmission{
		SessionID:  sessionID,
		Box:        s.SelectedBox,
		Products:   s.SelectedProducts,
		TotalPrice: s.TotalPrice,
		Discount:   s.Discount,
		FinalPrice: s.TotalPrice - s.Discount,
	}
}

// ToMap renders the submission as the data document guards are evaluated on.
func (c CartSubmission) ToMap() map[string]any {
	products := make([]any, len(c.Products))
	for i, p := range c.Products {
		products[i] = map[string]any{
			"productId": p.ProductID,
			"variantId": p.VariantID,
			"price":     p.Price,
		}
	}

	var box map[string]any
	maxProducts := 0
	if c.Box != nil {
		options := make(map[string]any, len(c.Box.Options))
		for k, v := range c.Box.Options {
			options[k] = v
		}
		box = map[string]any{
			"boxId":       c.Box.BoxID,
			"variantId":   c.Box.VariantID,
			"price":       c.Box.Price,
			"maxProducts": c.Box.MaxProducts,
			"options":     options,
		}
		maxProducts = c.Box.MaxProducts
	}

	return map[string]any{
		"sessionId":    c.SessionID,
		"hasBox":       c.Box != nil,
		"box":          box,
		"products":     products,
		"productCount": len(c.Products),
		"maxProducts":  maxProducts,
		"totalPrice":   c.TotalPrice,
		"discount":     c.Discount,
		"finalPrice":   c.FinalPrice,
	}
}
