package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/shopfront/client/internal/application/store"
	"github.com/shopfront/client/internal/domain/session"
	"github.com/shopfront/client/internal/domain/shop"
	"github.com/shopfront/client/internal/infrastructure/api"
	"github.com/shopfront/client/internal/infrastructure/localdata"
	"github.com/shopfront/client/internal/infrastructure/sessionstore"
)

// LoginInput is the payload for a login round-trip.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterInput is the payload for a registration round-trip.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// tokenResponse is the body returned by login/register endpoints.
type tokenResponse struct {
	Token string `json:"token"`
}

// Service owns the authentication round-trips and the session hand-off:
// a successful login establishes the session (which resynchronizes every
// domain store) and then merges any local guest cart into the server cart.
type Service struct {
	client   *api.Client
	sessions *sessionstore.Store
	guest    *localdata.GuestStore // nil when the local fallback is disabled
	cart     *store.Cart
	validate *validator.Validate
	log      *zap.Logger
}

// NewService creates the auth service.
func NewService(client *api.Client, sessions *sessionstore.Store, guest *localdata.GuestStore, cart *store.Cart, log *zap.Logger) *Service {
	return &Service{
		client:   client,
		sessions: sessions,
		guest:    guest,
		cart:     cart,
		validate: validator.New(),
		log:      log.Named("auth"),
	}
}

// Login authenticates against the backend and establishes the session.
// Invalid credentials surface as shop.ErrInvalidCredentials; a blocked
// account surfaces as shop.ErrAccountBlocked.
func (s *Service) Login(ctx context.Context, in LoginInput) (*session.Session, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", shop.ErrInvalidInput, err)
	}

	var resp tokenResponse
	if err := s.client.Do(ctx, "POST", "/auth/login/", in, &resp); err != nil {
		switch {
		case errors.Is(err, api.ErrUnauthorized):
			return nil, shop.ErrInvalidCredentials
		case errors.Is(err, api.ErrForbidden):
			return nil, shop.ErrAccountBlocked
		}
		return nil, err
	}

	return s.establish(ctx, resp.Token)
}

// Register creates an account and establishes the session.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*session.Session, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", shop.ErrInvalidInput, err)
	}

	var resp tokenResponse
	if err := s.client.Do(ctx, "POST", "/auth/register/", in, &resp); err != nil {
		return nil, err
	}

	return s.establish(ctx, resp.Token)
}

// Logout notifies the backend best-effort and clears the session. The clear
// is unconditional: every domain store empties even if the network call fails.
func (s *Service) Logout(ctx context.Context) {
	if s.sessions.Current() != nil {
		if err := s.client.Do(ctx, "POST", "/auth/logout/", nil, nil); err != nil {
			s.log.Debug("logout call failed, clearing session anyway", zap.Error(err))
		}
	}
	s.sessions.Clear()
}

func (s *Service) establish(ctx context.Context, token string) (*session.Session, error) {
	sess, err := session.FromToken(token)
	if err != nil {
		return nil, fmt.Errorf("auth: backend returned an unusable token: %w", err)
	}
	if err := s.sessions.Establish(sess); err != nil {
		return nil, err
	}

	s.mergeGuestState(ctx)
	return sess, nil
}

// mergeGuestState replays the local guest cart as add intents against the
// server cart, summing quantities on conflict, then discards the local copy.
// Guest wishlist entries are replayed the same way; duplicate adds are
// tolerated since the wishlist has set semantics. Lines that fail to replay
// stay local for the next login.
func (s *Service) mergeGuestState(ctx context.Context) {
	if s.guest == nil {
		return
	}

	lines, err := s.guest.Lines()
	if err != nil {
		s.log.Warn("guest cart unreadable, skipping merge", zap.Error(err))
	}
	for _, line := range lines {
		err := s.cart.Add(ctx, shop.AddToCartInput{
			ProductID: line.ProductID,
			Size:      line.Size,
			Quantity:  line.Quantity,
		})
		if err != nil {
			s.log.Warn("guest cart line not merged",
				zap.Int64("product_id", line.ProductID),
				zap.String("size", line.Size),
				zap.Error(err))
			continue
		}
		if err := s.guest.RemoveLine(line.ID); err != nil {
			s.log.Warn("merged guest line not removed locally", zap.Error(err))
		}
	}

	entries, err := s.guest.WishlistEntries()
	if err != nil {
		s.log.Warn("guest wishlist unreadable, skipping merge", zap.Error(err))
		return
	}
	merged := true
	for _, entry := range entries {
		body := map[string]int64{"product_id": entry.ProductID}
		if err := s.client.Do(ctx, "POST", "/wishlist/add/", body, nil); err != nil {
			var apiErr *api.Error
			// An existing entry is fine; the wishlist is a set.
			if !errors.As(err, &apiErr) || apiErr.StatusCode != 409 {
				s.log.Warn("guest wishlist entry not merged",
					zap.Int64("product_id", entry.ProductID),
					zap.Error(err))
				merged = false
				continue
			}
		}
	}
	if merged && len(entries) > 0 {
		if err := s.guest.ClearWishlist(); err != nil {
			s.log.Warn("guest wishlist not cleared after merge", zap.Error(err))
		}
	}
}
