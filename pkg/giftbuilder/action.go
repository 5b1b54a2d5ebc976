package giftbuilder

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownAction   = errors.New("unknown action type")
	ErrMalformedAction = errors.New("malformed action payload")
)

// Kind discriminates the Action variants on the wire.
type Kind string

const (
	KindSetStep       Kind = "SET_STEP"
	KindSelectBox     Kind = "SELECT_BOX"
	KindAddProduct    Kind = "ADD_PRODUCT"
	KindRemoveProduct Kind = "REMOVE_PRODUCT"
	KindEditProduct   Kind = "EDIT_PRODUCT"
	KindReset         Kind = "RESET"
)

// Action is a user intent dispatched into the reducer. The set of variants
// is closed.
type Action interface {
	Kind() Kind
	isAction()
}

type SetStep struct{ Step Step }

type SelectBox struct{ Box BoxSelection }

type AddProduct struct{ Product GiftProduct }

type RemoveProduct struct{ ProductID string }

type EditProduct struct{ ProductID string }

type Reset struct{}

func (SetStep) Kind() Kind       { return KindSetStep }
func (SelectBox) Kind() Kind     { return KindSelectBox }
func (AddProduct) Kind() Kind    { return KindAddProduct }
func (RemoveProduct) Kind() Kind { return KindRemoveProduct }
func (EditProduct) Kind() Kind   { return KindEditProduct }
func (Reset) Kind() Kind         { return KindReset }

func (SetStep) isAction()       {}
func (SelectBox) isAction()     {}
func (AddProduct) isAction()    {}
func (RemoveProduct) isAction() {}
func (EditProduct) isAction()   {}
func (Reset) isAction()         {}

// Envelope is the wire form of an Action.
type Envelope struct {
	Type      Kind          `json:"type" yaml:"type"`
	Step      *Step         `json:"step,omitempty" yaml:"step,omitempty"`
	Box       *BoxSelection `json:"box,omitempty" yaml:"box,omitempty"`
	Product   *GiftProduct  `json:"product,omitempty" yaml:"product,omitempty"`
	ProductID string        `json:"productId,omitempty" yaml:"productId,omitempty"`
}

// Action converts the envelope into its typed variant.
func (e Envelope) Action() (Action, error) {
	switch e.Type {
	case KindSetStep:
		if e.Step == nil {
			return nil, fmt.Errorf("%w: %s requires step", ErrMalformedAction, e.Type)
		}
		return SetStep{Step: *e.Step}, nil
	case KindSelectBox:
		if e.Box == nil {
			return nil, fmt.Errorf("%w: %s requires box", ErrMalformedAction, e.Type)
		}
		return SelectBox{Box: e.Box.clone()}, nil
	case KindAddProduct:
		if e.Product == nil {
			return nil, fmt.Errorf("%w: %s requires product", ErrMalformedAction, e.Type)
		}
		return AddProduct{Product: *e.Product}, nil
	case KindRemoveProduct:
		if e.ProductID == "" {
			return nil, fmt.Errorf("%w: %s requires productId", ErrMalformedAction, e.Type)
		}
		return RemoveProduct{ProductID: e.ProductID}, nil
	case KindEditProduct:
		if e.ProductID == "" {
			return nil, fmt.Errorf("%w: %s requires productId", ErrMalformedAction, e.Type)
		}
		return EditProduct{ProductID: e.ProductID}, nil
	case KindReset:
		return Reset{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAction, e.Type)
}

// NewEnvelope is the inverse of Envelope.Action.
func NewEnvelope(a Action) (Envelope, error) {
	switch v := a.(type) {
	case SetStep:
		step := v.Step
		return Envelope{Type: KindSetStep, Step: &step}, nil
	case SelectBox:
		box := v.Box.clone()
		return Envelope{Type: KindSelectBox, Box: &box}, nil
	case AddProduct:
		p := v.Product
		return Envelope{Type: KindAddProduct, Product: &p}, nil
	case RemoveProduct:
		return Envelope{Type: KindRemoveProduct, ProductID: v.ProductID}, nil
	case EditProduct:
		return Envelope{Type: KindEditProduct, ProductID: v.ProductID}, nil
	case Reset:
		return Envelope{Type: KindReset}, nil
	}
	return Envelope{}, ErrUnknownAction
}

// DecodeAction parses a JSON action envelope.
func DecodeAction(data []byte) (Action, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	return env.Action()
}

// EncodeAction renders an action as a JSON envelope.
func EncodeAction(a Action) ([]byte, error) {
	env, err := NewEnvelope(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}
