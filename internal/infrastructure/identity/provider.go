// Package identity implements the Identity & Profile Service
// collaborator: credential storage in MongoDB, HS256 session tokens
// registered in Redis, change notifications on a channel, and the
// asynchronous profile trigger the session store races against.
package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/shopnow/auth-agent/internal/core/domain"
	"github.com/shopnow/auth-agent/internal/core/ports"
)

const changeBuffer = 16

// AccountStore abstracts credential persistence (MongoDB in production).
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
}

// SessionRegistry abstracts live-token tracking (Redis in production).
type SessionRegistry interface {
	Put(ctx context.Context, token, accountID string, ttl time.Duration) error
	Resolve(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

// Config tunes the provider.
type Config struct {
	JWTSecret  string
	SessionTTL time.Duration
	// Trigger enables the server-side profile provisioner; Delay is how
	// long after account creation it fires.
	TriggerEnabled bool
	TriggerDelay   time.Duration
}

// Provider implements ports.IdentityProvider. It holds the current
// session token the way a client SDK would: one live session per agent
// process.
type Provider struct {
	accounts AccountStore
	registry SessionRegistry
	trigger  *ProfileTrigger
	cfg      Config
	log      zerolog.Logger

	mu    sync.Mutex
	token string

	changes chan ports.SessionChange
}

// NewProvider wires the provider. trigger may be nil when the backend
// has no profile trigger configured.
func NewProvider(accounts AccountStore, registry SessionRegistry, trigger *ProfileTrigger, cfg Config, log zerolog.Logger) *Provider {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &Provider{
		accounts: accounts,
		registry: registry,
		trigger:  trigger,
		cfg:      cfg,
		log:      log,
		changes:  make(chan ports.SessionChange, changeBuffer),
	}
}

// CreateAccount registers credentials, starts a session for the new
// account, and kicks the profile trigger when one is configured.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	created, err := p.accounts.Create(ctx, &domain.Account{
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return "", err
	}

	if err := p.startSession(ctx, created.ID); err != nil {
		return "", err
	}

	if p.cfg.TriggerEnabled && p.trigger != nil {
		p.trigger.Fire(created.ID, created.Email)
	}

	return created.ID, nil
}

// IssueSession verifies credentials and starts a session.
func (p *Provider) IssueSession(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	account, err := p.accounts.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	if err := p.startSession(ctx, account.ID); err != nil {
		return "", err
	}
	return account.ID, nil
}

// ActiveSession resolves the current session, if any. Expired tokens
// and revoked registry entries both report no session rather than an
// error.
func (p *Provider) ActiveSession(ctx context.Context) (string, bool, error) {
	p.mu.Lock()
	token := p.token
	p.mu.Unlock()
	if token == "" {
		return "", false, nil
	}

	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(p.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		p.dropToken(token)
		return "", false, nil
	}

	accountID, err := p.registry.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveSession) {
			p.dropToken(token)
			return "", false, nil
		}
		return "", false, err
	}
	return accountID, true, nil
}

// RevokeSession ends the current session. The local token is cleared
// even when the registry delete fails.
func (p *Provider) RevokeSession(ctx context.Context) error {
	p.mu.Lock()
	token := p.token
	p.token = ""
	p.mu.Unlock()
	if token == "" {
		return nil
	}

	err := p.registry.Delete(ctx, token)
	p.notify(ports.SessionChange{Active: false})
	return err
}

// SessionChanges returns the notification channel. Single consumer.
func (p *Provider) SessionChanges() <-chan ports.SessionChange {
	return p.changes
}

func (p *Provider) startSession(ctx context.Context, accountID string) error {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   accountID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.SessionTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.JWTSecret))
	if err != nil {
		return err
	}

	if err := p.registry.Put(ctx, token, accountID, p.cfg.SessionTTL); err != nil {
		return err
	}

	p.mu.Lock()
	p.token = token
	p.mu.Unlock()

	p.notify(ports.SessionChange{AccountID: accountID, Active: true})
	return nil
}

// dropToken clears a token that turned out dead, emitting the
// corresponding change so listeners reconcile.
func (p *Provider) dropToken(token string) {
	p.mu.Lock()
	cleared := p.token == token
	if cleared {
		p.token = ""
	}
	p.mu.Unlock()
	if cleared {
		p.notify(ports.SessionChange{Active: false})
	}
}

// notify never blocks the caller; with a single live consumer the
// buffer only fills if the listener is gone, and then the freshest
// state is recoverable via CheckAuth anyway.
func (p *Provider) notify(change ports.SessionChange) {
	select {
	case p.changes <- change:
	default:
		p.log.Warn().Bool("active", change.Active).Msg("session change dropped, listener not keeping up")
	}
}
