package giftbuilder

import "maps"

// BoxSelection is the gift box chosen in the first step of the flow.
type BoxSelection struct {
	BoxID       string            `json:"boxId" yaml:"boxId"`
	VariantID   string            `json:"variantId" yaml:"variantId"`
	Price       float64           `json:"price" yaml:"price"`
	MaxProducts int               `json:"maxProducts" yaml:"maxProducts"`
	Options     map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// GiftProduct is an item placed inside the selected box.
type GiftProduct struct {
	ProductID string  `json:"productId" yaml:"productId"`
	VariantID string  `json:"variantId" yaml:"variantId"`
	Title     string  `json:"title" yaml:"title"`
	Price     float64 `json:"price" yaml:"price"`
	Image     string  `json:"image,omitempty" yaml:"image,omitempty"`
}

// State is the whole builder aggregate. TotalPrice and Discount are derived
// and only ever written by the reducer.
type State struct {
	Step             Step          `json:"step"`
	SelectedBox      *BoxSelection `json:"selectedBox"`
	SelectedProducts []GiftProduct `json:"selectedProducts"`
	EditingProductID *string       `json:"editingProductId"`
	TotalPrice       float64       `json:"totalPrice"`
	Discount         float64       `json:"discount"`
}

// InitialState returns the defaults used on mount and on Reset.
func InitialState() State {
	return State{
		Step:             StepChooseBox,
		SelectedProducts: []GiftProduct{},
	}
}

// Clone returns a deep copy that shares no slices, maps or pointers with s.
func (s State) Clone() State {
	out := s
	if s.SelectedBox != nil {
		box := s.SelectedBox.clone()
		out.SelectedBox = &box
	}
	out.SelectedProducts = make([]GiftProduct, len(s.SelectedProducts))
	copy(out.SelectedProducts, s.SelectedProducts)
	if s.EditingProductID != nil {
		id := *s.EditingProductID
		out.EditingProductID = &id
	}
	return out
}

// HasProduct reports whether a product with the given id is already selected.
func (s State) HasProduct(productID string) bool {
	return s.indexOf(productID) >= 0
}

// RemainingCapacity is the number of products that still fit in the box.
// It is zero when no box is selected.
func (s State) RemainingCapacity() int {
	if s.SelectedBox == nil {
		return 0
	}
	n := s.SelectedBox.MaxProducts - len(s.SelectedProducts)
	if n < 0 {
		return 0
	}
	return n
}

func (s State) indexOf(productID string) int {
	for i, p := range s.SelectedProducts {
		if p.ProductID == productID {
			return i
		}
	}
	return -1
}

func (b BoxSelection) clone() BoxSelection {
	out := b
	if b.Options != nil {
		out.Options = maps.Clone(b.Options)
	}
	return out
}
