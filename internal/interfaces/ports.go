package interfaces

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain"
	"github.com/Victor-armando18/service-giftbuilder/internal/domain/model"
	"github.com/Victor-armando18/service-giftbuilder/pkg/giftbuilder"
)

// SessionStore holds one session per user flow.
type SessionStore interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	// Update runs fn under the store's write lock and persists what it returns.
	Update(ctx context.Context, id string, fn func(domain.Session) (domain.Session, error)) (domain.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteIfVersion removes the session only while it is still at version.
	// It reports false when a newer version is stored.
	DeleteIfVersion(ctx context.Context, id string, version int) (bool, error)
	PurgeIdle(ctx context.Context, idleSince time.Time) (int, error)
	Count(ctx context.Context) (int, error)
}

// BoxVariant is one purchasable variant of a gift box.
type BoxVariant struct {
	ID    string  `json:"id" yaml:"id"`
	Title string  `json:"title" yaml:"title"`
	Price float64 `json:"price" yaml:"price"`
}

// OptionSet is a named customization with its allowed values.
type OptionSet struct {
	Name   string   `json:"name" yaml:"name"`
	Values []string `json:"values" yaml:"values"`
}

type BoxDefinition struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	MaxProducts int          `json:"maxProducts" yaml:"maxProducts"`
	Variants    []BoxVariant `json:"variants" yaml:"variants"`
	OptionSets  []OptionSet  `json:"optionSets" yaml:"optionSets"`
}

type ProductVariant struct {
	ID    string  `json:"id" yaml:"id"`
	Title string  `json:"title" yaml:"title"`
	Price float64 `json:"price" yaml:"price"`
}

type ProductDefinition struct {
	ID       string           `json:"id" yaml:"id"`
	Title    string           `json:"title" yaml:"title"`
	Image    string           `json:"image,omitempty" yaml:"image,omitempty"`
	Variants []ProductVariant `json:"variants" yaml:"variants"`
}

// CatalogService supplies boxes and products from the commerce backend.
type CatalogService interface {
	ListBoxes(ctx context.Context) ([]BoxDefinition, error)
	GetBox(ctx context.Context, id string) (BoxDefinition, error)
	ListProducts(ctx context.Context) ([]ProductDefinition, error)
	GetProduct(ctx context.Context, id string) (ProductDefinition, error)
}

// CartService receives the finalized bundle at checkout.
type CartService interface {
	Submit(ctx context.Context, submission model.CartSubmission) (model.CartSubmission, error)
}

// GuardPackLoader loads checkout guards by version.
type GuardPackLoader interface {
	Load(ctx context.Context, version string) (*domain.GuardPack, error)
}

// GuardExecutor evaluates a JsonLogic rule against a data document.
type GuardExecutor interface {
	Execute(ctx context.Context, ruleData map[string]any, data map[string]any) (any, error)
}

// DispatchResult is what the presentation layer renders after an action.
type DispatchResult struct {
	Session domain.Session  `json:"session"`
	Applied bool            `json:"applied"`
	Delta   json.RawMessage `json:"delta"`
}

// BuilderFacade is the application entry point.
type BuilderFacade interface {
	Create(ctx context.Context) (domain.Session, error)
	Get(ctx context.Context, id string) (domain.Session, error)
	Delete(ctx context.Context, id string) error
	Dispatch(ctx context.Context, id string, action giftbuilder.Action) (DispatchResult, error)
	SelectCatalogBox(ctx context.Context, id, boxID, variantID string, options map[string]string) (DispatchResult, error)
	AddCatalogProduct(ctx context.Context, id, productID, variantID string) (DispatchResult, error)
	PatchBoxOptions(ctx context.Context, id string, patch []byte) (DispatchResult, error)
	Checkout(ctx context.Context, id string) (domain.CheckoutResult, error)
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
