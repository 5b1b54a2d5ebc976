package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Victor-armando18/service-giftbuilder/internal/domain"
	"github.com/Victor-armando18/service-giftbuilder/internal/domain/model"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/jsonlogic"
	"github.com/Victor-armando18/service-giftbuilder/internal/infrastructure/patch"
	"github.com/Victor-armando18/service-giftbuilder/internal/interfaces"
	"github.com/Victor-armando18/service-giftbuilder/internal/metrics"
	"github.com/Victor-armando18/service-giftbuilder/pkg/giftbuilder"
)

type Dependencies struct {
	Store    interfaces.SessionStore
	Catalog  interfaces.CatalogService
	Cart     interfaces.CartService
	Guards   interfaces.GuardPackLoader
	Executor interfaces.GuardExecutor
	Metrics  *metrics.Metrics
	Logger   *zap.Logger

	Tiers        giftbuilder.Tiers
	RulesVersion string
	SessionTTL   time.Duration
}

// SessionService owns every builder session. Each session holds exactly one
// state, and all transitions go through the reducer.
type SessionService struct {
	store    interfaces.SessionStore
	catalog  interfaces.CatalogService
	cart     interfaces.CartService
	guards   interfaces.GuardPackLoader
	executor interfaces.GuardExecutor
	metrics  *metrics.Metrics
	logger   *zap.Logger

	reducer      giftbuilder.Reducer
	rulesVersion string
	ttl          time.Duration

	now   func() time.Time
	newID func() string
}

var _ interfaces.BuilderFacade = (*SessionService)(nil)

func NewSessionService(deps Dependencies) *SessionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &SessionService{
		store:        deps.Store,
		catalog:      deps.Catalog,
		cart:         deps.Cart,
		guards:       deps.Guards,
		executor:     deps.Executor,
		metrics:      m,
		logger:       logger,
		reducer:      giftbuilder.NewReducer(deps.Tiers),
		rulesVersion: deps.RulesVersion,
		ttl:          deps.SessionTTL,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

func (s *SessionService) Create(ctx context.Context) (domain.Session, error) {
	now := s.now()
	session := domain.Session{
		ID:        s.newID(),
		State:     giftbuilder.InitialState(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	s.refreshActive(ctx)
	s.logger.Info("session created", zap.String("session_id", session.ID))
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, id string) (domain.Session, error) {
	return s.store.Get(ctx, id)
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.refreshActive(ctx)
	s.logger.Info("session discarded", zap.String("session_id", id))
	return nil
}

// Dispatch runs one action through the reducer. A rejected action is not an
// error: the result reports Applied=false and an empty delta.
func (s *SessionService) Dispatch(ctx context.Context, id string, action giftbuilder.Action) (interfaces.DispatchResult, error) {
	return s.apply(ctx, id, func(giftbuilder.State) (giftbuilder.Action, error) {
		return action, nil
	})
}

// SelectCatalogBox resolves a box variant from the catalog and selects it.
func (s *SessionService) SelectCatalogBox(ctx context.Context, id, boxID, variantID string, options map[string]string) (interfaces.DispatchResult, error) {
	def, err := s.catalog.GetBox(ctx, boxID)
	if err != nil {
		return interfaces.DispatchResult{}, err
	}
	variant, err := boxVariant(def, variantID)
	if err != nil {
		return interfaces.DispatchResult{}, err
	}
	if err := validateOptions(def, options); err != nil {
		return interfaces.DispatchResult{}, err
	}

	box := giftbuilder.BoxSelection{
		BoxID:       def.ID,
		VariantID:   variant.ID,
		Price:       variant.Price,
		MaxProducts: def.MaxProducts,
		Options:     maps.Clone(options),
	}
	return s.Dispatch(ctx, id, giftbuilder.SelectBox{Box: box})
}

// AddCatalogProduct resolves a product variant and adds it to the bundle.
// Unlike a raw ADD_PRODUCT dispatch, a duplicate is reported as an error.
func (s *SessionService) AddCatalogProduct(ctx context.Context, id, productID, variantID string) (interfaces.DispatchResult, error) {
	def, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return interfaces.DispatchResult{}, err
	}
	variant, err := productVariant(def, variantID)
	if err != nil {
		return interfaces.DispatchResult{}, err
	}

	product := giftbuilder.GiftProduct{
		ProductID: def.ID,
		VariantID: variant.ID,
		Title:     def.Title,
		Price:     variant.Price,
		Image:     def.Image,
	}
	return s.apply(ctx, id, func(st giftbuilder.State) (giftbuilder.Action, error) {
		if st.HasProduct(product.ProductID) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateProduct, product.ProductID)
		}
		return giftbuilder.AddProduct{Product: product}, nil
	})
}

// PatchBoxOptions applies an RFC 6902 patch to the selected box's options
// and reselects the box with the result.
func (s *SessionService) PatchBoxOptions(ctx context.Context, id string, patchData []byte) (interfaces.DispatchResult, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return interfaces.DispatchResult{}, err
	}
	if current.State.SelectedBox == nil {
		return interfaces.DispatchResult{}, domain.ErrNoBoxSelected
	}

	var def *interfaces.BoxDefinition
	if d, err := s.catalog.GetBox(ctx, current.State.SelectedBox.BoxID); err == nil {
		def = &d
	} else if !errors.Is(err, domain.ErrBoxNotFound) {
		return interfaces.DispatchResult{}, err
	}

	return s.apply(ctx, id, func(st giftbuilder.State) (giftbuilder.Action, error) {
		if st.SelectedBox == nil {
			return nil, domain.ErrNoBoxSelected
		}
		options := st.SelectedBox.Options
		if options == nil {
			options = map[string]string{}
		}
		var patched map[string]string
		if err := patch.ApplyJSONPatch(options, patchData, &patched); err != nil {
			return nil, err
		}
		if def != nil && def.ID == st.SelectedBox.BoxID {
			if err := validateOptions(*def, patched); err != nil {
				return nil, err
			}
		}
		box := *st.SelectedBox
		box.Options = patched
		return giftbuilder.SelectBox{Box: box}, nil
	})
}

// Checkout evaluates the guard pack on the bundle and, when nothing blocks
// it, hands the bundle to the cart and ends the session. Guards run on a
// snapshot; the move to the checkout step only commits if the session is
// still at that snapshot's version, otherwise ErrSessionChanged is returned
// and nothing reaches the cart.
func (s *SessionService) Checkout(ctx context.Context, id string) (domain.CheckoutResult, error) {
	snapshot, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.CheckoutResult{}, err
	}

	pack, err := s.guards.Load(ctx, s.rulesVersion)
	if err != nil {
		s.metrics.ObserveCheckout("failed")
		return domain.CheckoutResult{}, err
	}

	hits, err := s.evaluateGuards(ctx, pack, model.NewCartSubmission(id, snapshot.State))
	if err != nil {
		s.metrics.ObserveCheckout("failed")
		return domain.CheckoutResult{}, err
	}
	result := domain.CheckoutResult{GuardsHit: hits, RulesVersion: pack.Version}
	if len(hits) > 0 {
		s.metrics.ObserveCheckout("blocked")
		s.logger.Info("checkout blocked",
			zap.String("session_id", id),
			zap.Int("guards_hit", len(hits)),
			zap.String("rules_version", pack.Version))
		return result, fmt.Errorf("%w: %d guard(s) hit", domain.ErrCheckoutBlocked, len(hits))
	}

	var submission model.CartSubmission
	committed, err := s.store.Update(ctx, id, func(cur domain.Session) (domain.Session, error) {
		if cur.Version != snapshot.Version {
			return cur, fmt.Errorf("%w: version %d, guards evaluated at %d", domain.ErrSessionChanged, cur.Version, snapshot.Version)
		}
		next := s.reducer.Reduce(cur.State, giftbuilder.SetStep{Step: giftbuilder.StepCheckout})
		if next.Step != cur.State.Step {
			cur.State = next
			cur.Version++
			cur.UpdatedAt = s.now()
		}
		submission = model.NewCartSubmission(id, cur.State)
		return cur, nil
	})
	if err != nil {
		s.metrics.ObserveCheckout("failed")
		if errors.Is(err, domain.ErrSessionChanged) {
			s.logger.Info("checkout aborted, session changed", zap.String("session_id", id))
		}
		return domain.CheckoutResult{}, err
	}

	submitted, err := s.cart.Submit(ctx, submission)
	if err != nil {
		s.metrics.ObserveCheckout("failed")
		s.logger.Error("cart handoff failed", zap.String("session_id", id), zap.Error(err))
		return domain.CheckoutResult{}, fmt.Errorf("cart handoff failed: %w", err)
	}

	deleted, err := s.store.DeleteIfVersion(ctx, id, committed.Version)
	switch {
	case err != nil && !errors.Is(err, domain.ErrSessionNotFound):
		s.logger.Warn("failed to discard session after checkout", zap.String("session_id", id), zap.Error(err))
	case err == nil && !deleted:
		s.logger.Warn("session changed after checkout, kept",
			zap.String("session_id", id),
			zap.String("submission_id", submitted.ID))
	}
	s.refreshActive(ctx)
	s.metrics.ObserveCheckout("submitted")
	s.logger.Info("checkout submitted",
		zap.String("session_id", id),
		zap.String("submission_id", submitted.ID),
		zap.Float64("final_price", submitted.FinalPrice))

	result.Submission = &submitted
	return result, nil
}

// PurgeExpired ends sessions idle for longer than the configured TTL.
func (s *SessionService) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	n, err := s.store.PurgeIdle(ctx, now.Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	s.refreshActive(ctx)
	if n > 0 {
		s.logger.Info("expired sessions purged", zap.Int("count", n))
	}
	return n, nil
}

func (s *SessionService) apply(ctx context.Context, id string, build func(giftbuilder.State) (giftbuilder.Action, error)) (interfaces.DispatchResult, error) {
	var (
		delta []byte
		kind  = "UNKNOWN"
	)
	session, err := s.store.Update(ctx, id, func(cur domain.Session) (domain.Session, error) {
		action, err := build(cur.State)
		if err != nil {
			return cur, err
		}
		if action != nil {
			kind = string(action.Kind())
		}

		next := s.reduce(cur.State, action)
		delta, err = patch.MergeDelta(cur.State, next)
		if err != nil {
			return cur, err
		}
		cur.UpdatedAt = s.now()
		if !patch.IsEmpty(delta) {
			cur.State = next
			cur.Version++
		}
		return cur, nil
	})
	if err != nil {
		return interfaces.DispatchResult{}, err
	}

	applied := !patch.IsEmpty(delta)
	outcome := "ignored"
	if applied {
		outcome = "applied"
	}
	s.metrics.ObserveAction(kind, outcome)
	s.logger.Debug("action dispatched",
		zap.String("session_id", id),
		zap.String("action", kind),
		zap.Bool("applied", applied),
		zap.Int("version", session.Version))

	return interfaces.DispatchResult{Session: session, Applied: applied, Delta: delta}, nil
}

// reduce is the reducer's caller: it keeps product ids unique before the
// reducer sees an AddProduct.
func (s *SessionService) reduce(st giftbuilder.State, action giftbuilder.Action) giftbuilder.State {
	if add, ok := action.(giftbuilder.AddProduct); ok && st.HasProduct(add.Product.ProductID) {
		return st
	}
	return s.reducer.Reduce(st, action)
}

func (s *SessionService) evaluateGuards(ctx context.Context, pack *domain.GuardPack, submission model.CartSubmission) ([]domain.GuardViolation, error) {
	data := submission.ToMap()
	hits := []domain.GuardViolation{}
	for _, guard := range pack.Guards {
		out, err := s.executor.Execute(ctx, guard.Logic, data)
		if err != nil {
			return nil, fmt.Errorf("guard %s: %w", guard.ID, err)
		}
		if !jsonlogic.Truthy(out) {
			continue
		}
		msg := guard.ErrorMessage
		if msg == "" {
			msg = "Restrictive condition reached"
		}
		hits = append(hits, domain.GuardViolation{
			RuleID:  guard.ID,
			Reason:  "Violation Detected",
			Context: msg,
		})
	}
	return hits, nil
}

func (s *SessionService) refreshActive(ctx context.Context) {
	n, err := s.store.Count(ctx)
	if err != nil {
		s.logger.Warn("failed to count sessions", zap.Error(err))
		return
	}
	s.metrics.SetActiveSessions(n)
}

func boxVariant(def interfaces.BoxDefinition, variantID string) (interfaces.BoxVariant, error) {
	if variantID == "" && len(def.Variants) == 1 {
		return def.Variants[0], nil
	}
	for _, v := range def.Variants {
		if v.ID == variantID {
			return v, nil
		}
	}
	return interfaces.BoxVariant{}, fmt.Errorf("%w: box %s variant %q", domain.ErrVariantNotFound, def.ID, variantID)
}

func productVariant(def interfaces.ProductDefinition, variantID string) (interfaces.ProductVariant, error) {
	if variantID == "" && len(def.Variants) == 1 {
		return def.Variants[0], nil
	}
	for _, v := range def.Variants {
		if v.ID == variantID {
			return v, nil
		}
	}
	return interfaces.ProductVariant{}, fmt.Errorf("%w: product %s variant %q", domain.ErrVariantNotFound, def.ID, variantID)
}

func validateOptions(def interfaces.BoxDefinition, options map[string]string) error {
	for name, value := range options {
		allowed := false
		known := false
		for _, set := range def.OptionSets {
			if set.Name != name {
				continue
			}
			known = true
			for _, v := range set.Values {
				if v == value {
					allowed = true
					break
				}
			}
		}
		if !known {
			return fmt.Errorf("%w: box %s has no option %q", domain.ErrInvalidOption, def.ID, name)
		}
		if !allowed {
			return fmt.Errorf("%w: %q is not a value of %q", domain.ErrInvalidOption, value, name)
		}
	}
	return nil
}
