package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/fjod/go_cart/storefront/domain"
	"github.com/fjod/go_cart/storefront/internal/remote"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

const currentUserKey = "current_user_id"

var ErrNoSession = errors.New("no active session")

func tokenKey(userID int64) string {
	return fmt.Sprintf("token_%d", userID)
}

// Manager turns the credential store into an explicit domain.Session.
type Manager struct {
	store  Store
	client *remote.Client
}

func NewManager(store Store, client *remote.Client) *Manager {
	return &Manager{store: store, client: client}
}

// Login authenticates against the backend and stores the token together with the
// current user pointer. When the login answer lacks a user id it is looked up.
func (m *Manager) Login(ctx context.Context, identifier, password string) (*domain.Session, error) {
	res := m.client.Login(ctx, identifier, password)
	if !res.Success {
		return nil, res.Err()
	}

	token := res.Data.JWTToken
	if token == "" {
		return nil, &domain.Error{Kind: domain.KindBackendRejection, Status: res.Status, Message: "Invalid credentials received."}
	}

	userID := res.Data.User.ID
	if userID == 0 {
		info := m.client.WithToken(token).CurrentUserInfo(ctx)
		if !info.Success {
			return nil, info.Err()
		}
		userID = info.Data.UserID
	}

	if err := m.store.Set(ctx, tokenKey(userID), token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	if err := m.store.Set(ctx, currentUserKey, strconv.FormatInt(userID, 10)); err != nil {
		return nil, fmt.Errorf("failed to store current user: %w", err)
	}

	logger.Info("user logged in", map[string]interface{}{"user_id": userID})
	return &domain.Session{UserID: userID, Token: token}, nil
}

func (m *Manager) Logout(ctx context.Context) error {
	raw, err := m.store.Get(ctx, currentUserKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read current user: %w", err)
	}

	keys := []string{currentUserKey}
	if userID, err := strconv.ParseInt(raw, 10, 64); err == nil {
		keys = append(keys, tokenKey(userID))
	}
	if err := m.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (m *Manager) Current(ctx context.Context) (*domain.Session, error) {
	raw, err := m.store.Get(ctx, currentUserKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read current user: %w", err)
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return nil, ErrNoSession
	}

	token, err := m.store.Get(ctx, tokenKey(userID))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	return &domain.Session{UserID: userID, Token: token}, nil
}
