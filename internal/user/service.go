package user

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-credential-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-credential-go/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-credential-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-credential-go/pkg/mailer"
	"github.com/ovaphlow/pitchfork/service-credential-go/pkg/utilities"
)

// Store is the user-record collaborator. UpdatePasswordHash must only apply
// when the stored credential version still equals expectedVersion.
type Store interface {
	Create(ctx context.Context, u *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	UpdatePasswordHash(ctx context.Context, id string, expectedVersion int64, hash string) error
}

// Mailer is the email-delivery collaborator.
type Mailer interface {
	Deliver(ctx context.Context, msg mailer.Message) error
}

// UserService orchestrates registration, login and password recovery flows.
type UserService struct {
	store    Store
	mail     Mailer
	hasher   PasswordHasher
	sessions *token.SessionTokens
	resets   *token.ResetTokens
	validate *requestValidator
	cfg      Config
	logger   *zap.SugaredLogger

	// dummyHash is verified against when a login email is unknown so both
	// failure paths do the same bcrypt work.
	dummyHash string
}

func NewUserService(store Store, mail Mailer, cfg Config, logger *zap.SugaredLogger, opts ...token.Option) *UserService {
	hasher := BcryptHasher{Cost: cfg.BcryptCost}
	dummy, err := hasher.Hash(utilities.NewKSUID())
	if err != nil {
		logger.Warnw("dummy password hash unavailable", "err", err)
	}
	return &UserService{
		store:     store,
		mail:      mail,
		hasher:    hasher,
		sessions:  token.NewSessionTokens(cfg.Secret, opts...),
		resets:    token.NewResetTokens(cfg.Secret, cfg.ResetTTL, opts...),
		validate:  newRequestValidator(),
		cfg:       cfg,
		logger:    logger,
		dummyHash: dummy,
	}
}

func (s *UserService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func (s *UserService) hash(pw string) (string, error) {
	h, err := s.hasher.Hash(pw)
	if errors.Is(err, ErrPasswordTooLong) {
		return "", invalid(msgTooLong)
	}
	if err != nil {
		return "", internalErr("hash password", err)
	}
	return h, nil
}

// Register creates an account and returns a session token for it.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.check(req); err != nil {
		return "", err
	}

	sctx, cancel := s.storeCtx(ctx)
	_, err := s.store.GetByEmail(sctx, req.Email)
	cancel()
	switch {
	case err == nil:
		return "", ErrEmailTaken
	case !errors.Is(err, userrepo.ErrNotFound):
		return "", internalErr("lookup user by email", err)
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return "", err
	}
	u := &entity.User{
		ID:                utilities.NewKSUID(),
		Name:              req.Name,
		Email:             req.Email,
		PasswordHash:      hash,
		CredentialVersion: 1,
		TermsAccepted:     req.TermsAccepted,
	}

	sctx, cancel = s.storeCtx(ctx)
	err = s.store.Create(sctx, u)
	cancel()
	if errors.Is(err, userrepo.ErrDuplicateEmail) {
		return "", ErrEmailTaken
	}
	if err != nil {
		return "", internalErr("create user", err)
	}

	tok, err := s.sessions.Issue(u.ID, s.cfg.SessionTTL)
	if err != nil {
		return "", internalErr("issue session token", err)
	}
	s.logger.Debugw("user registered", "user_id", u.ID)
	return tok, nil
}

// Login checks email and password and returns a fresh session token.
// Unknown email and wrong password fail identically.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (string, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.check(req); err != nil {
		return "", err
	}

	sctx, cancel := s.storeCtx(ctx)
	u, err := s.store.GetByEmail(sctx, req.Email)
	cancel()
	target := s.dummyHash
	switch {
	case err == nil:
		target = u.PasswordHash
	case !errors.Is(err, userrepo.ErrNotFound):
		return "", internalErr("lookup user by email", err)
	}

	ok := s.hasher.Verify(target, req.Password)
	if u == nil || !ok {
		return "", ErrBadCredentials
	}

	tok, err := s.sessions.Issue(u.ID, s.cfg.SessionTTL)
	if err != nil {
		return "", internalErr("issue session token", err)
	}
	return tok, nil
}

// Authenticate verifies a bearer session token and resolves it to a live user.
func (s *UserService) Authenticate(ctx context.Context, bearer string) (Identity, error) {
	userID, err := s.sessions.Verify(bearer)
	if err != nil {
		return Identity{}, ErrUnauthorized
	}
	if _, err := s.currentUser(ctx, userID); err != nil {
		return Identity{}, err
	}
	return Identity{UserID: userID}, nil
}

func (s *UserService) currentUser(ctx context.Context, id string) (*entity.User, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	u, err := s.store.GetByID(sctx, id)
	if errors.Is(err, userrepo.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, internalErr("lookup user by id", err)
	}
	return u, nil
}

// Profile returns the public view of the authenticated user.
func (s *UserService) Profile(ctx context.Context, id Identity) (*entity.PublicProfile, error) {
	u, err := s.currentUser(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	return u.Profile(), nil
}

// ChangePassword overwrites the caller's password. The write is conditional
// on the credential version read here, so a concurrent reset or change makes
// this call fail with ErrPasswordRace instead of silently winning.
func (s *UserService) ChangePassword(ctx context.Context, id Identity, req ChangePasswordRequest) error {
	if err := s.validate.check(req); err != nil {
		return err
	}
	u, err := s.currentUser(ctx, id.UserID)
	if err != nil {
		return err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	err = s.store.UpdatePasswordHash(sctx, u.ID, u.CredentialVersion, hash)
	if errors.Is(err, userrepo.ErrConflictRetry) {
		return ErrPasswordRace
	}
	if err != nil {
		return internalErr("update password hash", err)
	}
	s.logger.Debugw("password changed", "user_id", u.ID)
	return nil
}

// ForgotPassword mails a reset link to a known address. A delivery failure is
// reported but the issued token stays valid until it expires.
func (s *UserService) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) error {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.check(req); err != nil {
		return err
	}

	sctx, cancel := s.storeCtx(ctx)
	u, err := s.store.GetByEmail(sctx, req.Email)
	cancel()
	if errors.Is(err, userrepo.ErrNotFound) {
		return ErrEmailNotFound
	}
	if err != nil {
		return internalErr("lookup user by email", err)
	}

	tok, err := s.resets.Issue(u)
	if err != nil {
		return internalErr("issue reset token", err)
	}
	msg, err := renderResetEmail(u.Email, u.Name, s.resetLink(u.ID, tok), s.resets.TTL())
	if err != nil {
		return internalErr("render reset email", err)
	}

	mctx, mcancel := context.WithTimeout(ctx, s.mailTimeout())
	defer mcancel()
	if err := s.mail.Deliver(mctx, msg); err != nil {
		return internalErr("deliver reset email", err)
	}
	s.logger.Debugw("reset email sent", "user_id", u.ID)
	return nil
}

func (s *UserService) resetLink(userID, tok string) string {
	return s.cfg.ResetLinkBase + "/" + url.PathEscape(userID) + "/" + url.PathEscape(tok)
}

func (s *UserService) mailTimeout() time.Duration {
	if s.cfg.MailTimeout <= 0 {
		return 10 * time.Second
	}
	return s.cfg.MailTimeout
}

// ResetPassword consumes a reset token. Unknown user, bad token and a lost
// race all surface as ErrInvalidToken.
func (s *UserService) ResetPassword(ctx context.Context, userID, tok string, req ResetPasswordRequest) error {
	if err := s.validate.check(req); err != nil {
		return err
	}

	sctx, cancel := s.storeCtx(ctx)
	u, err := s.store.GetByID(sctx, userID)
	cancel()
	if errors.Is(err, userrepo.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return internalErr("lookup user by id", err)
	}
	if err := s.resets.Verify(u, tok); err != nil {
		return ErrInvalidToken
	}

	hash, err := s.hash(req.Password)
	if err != nil {
		return err
	}
	sctx, cancel = s.storeCtx(ctx)
	defer cancel()
	err = s.store.UpdatePasswordHash(sctx, u.ID, u.CredentialVersion, hash)
	if errors.Is(err, userrepo.ErrConflictRetry) {
		return ErrInvalidToken
	}
	if err != nil {
		return internalErr("update password hash", err)
	}
	s.logger.Debugw("password reset", "user_id", u.ID)
	return nil
}
