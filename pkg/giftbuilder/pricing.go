package giftbuilder

import (
	"errors"
	"fmt"
)

// Tier grants Rate once at least MinProducts items are in the box.
type Tier struct {
	MinProducts int     `json:"minProducts" yaml:"minProducts"`
	Rate        float64 `json:"rate" yaml:"rate"`
}

// Tiers is evaluated top-down, first match wins.
type Tiers []Tier

// DefaultTiers is the storefront's standard volume discount.
var DefaultTiers = Tiers{
	{MinProducts: 10, Rate: 0.20},
	{MinProducts: 7, Rate: 0.15},
	{MinProducts: 5, Rate: 0.10},
	{MinProducts: 3, Rate: 0.05},
}

var ErrInvalidTiers = errors.New("invalid discount tiers")

// Rate returns the discount rate for n selected products.
func (t Tiers) Rate(n int) float64 {
	for _, tier := range t {
		if n >= tier.MinProducts {
			return tier.Rate
		}
	}
	return 0
}

// Validate checks that the table is ordered and that a higher count never
// yields a lower rate.
func (t Tiers) Validate() error {
	for i, tier := range t {
		if tier.MinProducts < 0 {
			return fmt.Errorf("%w: tier %d has negative minProducts", ErrInvalidTiers, i)
		}
		if tier.Rate < 0 || tier.Rate > 1 {
			return fmt.Errorf("%w: tier %d rate %.4f outside [0,1]", ErrInvalidTiers, i, tier.Rate)
		}
		if i == 0 {
			continue
		}
		prev := t[i-1]
		if tier.MinProducts >= prev.MinProducts {
			return fmt.Errorf("%w: minProducts must be strictly descending (tier %d)", ErrInvalidTiers, i)
		}
		if tier.Rate > prev.Rate {
			return fmt.Errorf("%w: rate of tier %d exceeds the rate of a larger tier", ErrInvalidTiers, i)
		}
	}
	return nil
}

// TotalPrice is the box price plus every product price, computed from scratch.
func TotalPrice(box *BoxSelection, products []GiftProduct) float64 {
	total := 0.0
	if box != nil {
		total = box.Price
	}
	for _, p := range products {
		total += p.Price
	}
	return total
}

// Discount applies the tier rate for the product count to total.
func (t Tiers) Discount(total float64, count int) float64 {
	return total * t.Rate(count)
}
