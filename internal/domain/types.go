package domain

import (
	"errors"
	"time"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain/model"
	"github.com/Victor-armando18/service-giftbuilder/pkg/giftbuilder"
)

// --- Sessions ---

// Session owns the single builder state of one user flow.
type Session struct {
	ID        string            `json:"id"`
	State     giftbuilder.State `json:"state"`
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Clone copies the session so callers never share the stored state.
func (s Session) Clone() Session {
	s.State = s.State.Clone()
	return s
}

// --- Checkout ---

// GuardRule is a JsonLogic condition; a truthy result blocks checkout.
type GuardRule struct {
	ID           string         `json:"id" yaml:"id"`
	Logic        map[string]any `json:"logic" yaml:"logic"`
	ErrorMessage string         `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// GuardPack is a versioned set of checkout guards.
type GuardPack struct {
	Version     string      `json:"version" yaml:"version"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Guards      []GuardRule `json:"guards" yaml:"guards"`
}

type GuardViolation struct {
	RuleID  string `json:"ruleId"`
	Reason  string `json:"reason"`
	Context string `json:"context"`
}

type CheckoutResult struct {
	Submission   *model.CartSubmission `json:"submission,omitempty"`
	GuardsHit    []GuardViolation      `json:"guardsHit"`
	RulesVersion string                `json:"rulesVersion"`
}

// --- Domain errors ---
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrBoxNotFound         = errors.New("box not found")
	ErrVariantNotFound     = errors.New("variant not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidOption       = errors.New("invalid box option")
	ErrNoBoxSelected       = errors.New("no box selected")
	ErrDuplicateProduct    = errors.New("product already in bundle")
	ErrCheckoutBlocked     = errors.New("checkout blocked by guards")
	ErrRuleExecutionFailed = errors.New("rule execution failed")
	ErrRulePackNotFound    = errors.New("rule pack not found")
	ErrInvalidPatch        = errors.New("invalid patch")
	ErrSessionChanged      = errors.New("session changed during checkout")
)
