// Package giftbuilder is the gift bundle state machine: a pure, synchronous
// reducer over State. Invalid transitions are no-ops that return the input
// unchanged; nothing in this package returns an error from Reduce.
package giftbuilder

// Reducer applies actions using a discount tier table.
type Reducer struct {
	Tiers Tiers
}

// NewReducer returns a reducer for tiers, or DefaultTiers when tiers is empty.
func NewReducer(tiers Tiers) Reducer {
	if len(tiers) == 0 {
		tiers = DefaultTiers
	}
	return Reducer{Tiers: tiers}
}

var defaultReducer = Reducer{Tiers: DefaultTiers}

// Reduce applies a using DefaultTiers.
func Reduce(s State, a Action) State {
	return defaultReducer.Reduce(s, a)
}

// Reduce returns the successor of s under a. The input is never mutated.
func (r Reducer) Reduce(s State, a Action) State {
	switch act := a.(type) {
	case SetStep:
		next := s
		next.Step = act.Step
		return next

	case SelectBox:
		next := s
		box := act.Box.clone()
		next.SelectedBox = &box
		return r.recompute(next)

	case AddProduct:
		if s.SelectedBox == nil || len(s.SelectedProducts) >= s.SelectedBox.MaxProducts {
			return s
		}
		next := s
		next.SelectedProducts = make([]GiftProduct, 0, len(s.SelectedProducts)+1)
		next.SelectedProducts = append(next.SelectedProducts, s.SelectedProducts...)
		next.SelectedProducts = append(next.SelectedProducts, act.Product)
		return r.recompute(next)

	case RemoveProduct:
		i := s.indexOf(act.ProductID)
		if i < 0 {
			return s
		}
		next := s
		next.SelectedProducts = make([]GiftProduct, 0, len(s.SelectedProducts)-1)
		next.SelectedProducts = append(next.SelectedProducts, s.SelectedProducts[:i]...)
		next.SelectedProducts = append(next.SelectedProducts, s.SelectedProducts[i+1:]...)
		return r.recompute(next)

	case EditProduct:
		next := s
		id := act.ProductID
		next.EditingProductID = &id
		next.Step = StepAddProducts
		return next

	case Reset:
		return InitialState()
	}
	return s
}

func (r Reducer) recompute(s State) State {
	s.TotalPrice = TotalPrice(s.SelectedBox, s.SelectedProducts)
	s.Discount = r.Tiers.Discount(s.TotalPrice, len(s.SelectedProducts))
	return s
}
