package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/application/cascade"
	"github.com/rentflow/backend/internal/application/uow"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/auth"
	"github.com/rentflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var (
	ErrEmailTaken       = shared.NewConflictError("EMAIL_TAKEN", "Email is already registered")
	ErrTelephoneTaken   = shared.NewConflictError("TELEPHONE_TAKEN", "Telephone number is already registered")
	ErrNationalIDTaken  = shared.NewConflictError("NATIONAL_ID_TAKEN", "PESEL is already registered")
	ErrRoleChangeLocked = shared.NewInvalidStateError("ROLE_CHANGE_LOCKED", "Release the apartment and managed buildings before changing the role")

	ErrInvalidCredentials = shared.NewDomainError(shared.KindUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrAccountDisabled    = shared.NewDomainError(shared.KindForbidden, "ACCOUNT_DISABLED", "Account has been disabled")
	ErrTokenInvalid       = shared.NewDomainError(shared.KindUnauthorized, "TOKEN_INVALID", "Invalid token")
	ErrTokenExpired       = shared.NewDomainError(shared.KindUnauthorized, "TOKEN_EXPIRED", "Token has expired")
	ErrTokenRevoked       = shared.NewDomainError(shared.KindUnauthorized, "TOKEN_REVOKED", "Token has been revoked")
	ErrTokenMaxRefresh    = shared.NewDomainError(shared.KindUnauthorized, "TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
)

// UserService handles registration, authentication and account management.
// Administrators are not stored users: they authenticate through the
// AdminDirectory and receive tokens without a user id.
type UserService struct {
	scope          uow.TransactionScope
	coordinator    *cascade.Coordinator
	tokens         *auth.JWTService
	blacklist      auth.TokenBlacklist
	admins         identity.AdminDirectory
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewUserService creates a new UserService. A nil blacklist keeps revocations in memory.
func NewUserService(
	scope uow.TransactionScope,
	coordinator *cascade.Coordinator,
	tokens *auth.JWTService,
	blacklist auth.TokenBlacklist,
	admins identity.AdminDirectory,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if blacklist == nil {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}
	return &UserService{
		scope:       scope,
		coordinator: coordinator,
		tokens:      tokens,
		blacklist:   blacklist,
		admins:      admins,
		logger:      logger,
	}
}

// SetEventPublisher sets the publisher that receives user events after commit
func (s *UserService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Register creates a tenant account
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "register")
	defer span.End()

	nationalID, err := identity.ParseNationalID(req.NationalID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if s.admins != nil && s.admins.IsAdmin(identity.NormalizeEmail(req.Email)) {
		telemetry.RecordError(span, ErrEmailTaken)
		return nil, ErrEmailTaken
	}
	user, err := identity.NewUser(req.Email, req.profile(), nationalID, req.Password)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var events uow.EventBuffer
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		users := repos.Users()
		exists, err := users.ExistsByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if exists {
			return ErrEmailTaken
		}
		if exists, err = users.ExistsByTelephone(ctx, user.Telephone, nil); err != nil {
			return err
		} else if exists {
			return ErrTelephoneTaken
		}
		if exists, err = users.ExistsByNationalID(ctx, user.NationalID); err != nil {
			return err
		} else if exists {
			return ErrNationalIDTaken
		}
		if err := users.Save(ctx, user); err != nil {
			return err
		}
		events.Collect(user)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, user.ID.String())
	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
	)
	events.Flush(ctx, s.eventPublisher, s.logger)

	response := ToUserResponse(user)
	return &response, nil
}

// Authenticate exchanges email and password for a token pair
func (s *UserService) Authenticate(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "authenticate")
	defer span.End()

	email := identity.NormalizeEmail(req.Email)
	if s.admins != nil && s.admins.IsAdmin(email) {
		if !s.admins.VerifyAdmin(ctx, email, req.Password) {
			s.logger.Warn("Invalid administrator credentials", zap.String("email", email))
			telemetry.RecordError(span, ErrInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		subject := auth.Subject{Email: email, Role: identity.RoleAdmin.String()}
		resp, err := s.issue(subject, nil)
		if err != nil {
			telemetry.RecordError(span, err)
		}
		return resp, err
	}

	var user *identity.User
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		user, err = repos.Users().FindByEmail(ctx, email)
		return err
	})
	if errors.Is(err, shared.ErrNotFound) {
		s.logger.Warn("Login attempt for unknown email", zap.String("email", email))
		telemetry.RecordError(span, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !user.VerifyPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", user.ID.String()))
		telemetry.RecordError(span, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	if !user.Enabled {
		s.logger.Warn("Login attempt for disabled account", zap.String("user_id", user.ID.String()))
		telemetry.RecordError(span, ErrAccountDisabled)
		return nil, ErrAccountDisabled
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, user.ID.String())
	subject := auth.Subject{UserID: user.ID, Email: user.Email, Role: user.Role.String()}
	resp, err := s.issue(subject, user)
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return resp, err
}

func (s *UserService) issue(subject auth.Subject, user *identity.User) (*LoginResponse, error) {
	pair, err := s.tokens.GenerateTokenPair(subject)
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, err
	}
	s.logger.Info("User logged in",
		zap.String("email", subject.Email),
		zap.String("role", subject.Role),
	)
	return toLoginResponse(pair, subject, user), nil
}

// Refresh rotates a refresh token. The presented token is revoked so it cannot be replayed.
func (s *UserService) Refresh(ctx context.Context, req RefreshRequest) (*LoginResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "refresh")
	defer span.End()

	claims, err := s.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		err = tokenError(err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.CheckRevocation(ctx, claims); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	subject, err := claims.Identity()
	if err != nil {
		telemetry.RecordError(span, ErrTokenInvalid)
		return nil, ErrTokenInvalid
	}
	var user *identity.User
	if subject.UserID != uuid.Nil {
		err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
			var err error
			user, err = repos.Users().FindByID(ctx, subject.UserID)
			return err
		})
		if errors.Is(err, shared.ErrNotFound) {
			telemetry.RecordError(span, ErrTokenInvalid)
			return nil, ErrTokenInvalid
		}
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if !user.Enabled {
			telemetry.RecordError(span, ErrAccountDisabled)
			return nil, ErrAccountDisabled
		}
	}

	pair, err := s.tokens.RefreshTokenPair(req.RefreshToken)
	if err != nil {
		err = tokenError(err)
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke rotated refresh token", zap.Error(err))
	}

	s.logger.Debug("Token refreshed",
		zap.String("email", subject.Email),
		zap.Int("refresh_count", claims.RefreshCount+1),
	)
	return toLoginResponse(pair, subject, user), nil
}

// Logout revokes the caller's access token and, when given, its refresh token
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims, req LogoutRequest) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "logout")
	defer span.End()

	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if req.RefreshToken != "" {
		refresh, err := s.tokens.ValidateRefreshToken(req.RefreshToken)
		if err == nil && refresh.Email == claims.Email {
			if err := s.blacklist.Revoke(ctx, refresh.ID, refresh.RemainingTTL()); err != nil {
				telemetry.RecordError(span, err)
				return err
			}
		}
	}

	s.logger.Info("User logged out", zap.String("email", claims.Email))
	return nil
}

// CheckRevocation fails with ErrTokenRevoked when the token or every token of its subject was revoked
func (s *UserService) CheckRevocation(ctx context.Context, claims *auth.Claims) error {
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsSubjectRevoked(ctx, claims.Email, claims.IssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return ErrTokenExpired
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return ErrTokenMaxRefresh
	default:
		return ErrTokenInvalid
	}
}

// Get returns one user
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "get")
	defer span.End()

	user, err := s.load(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	response := ToUserResponse(user)
	return &response, nil
}

// List returns every user
func (s *UserService) List(ctx context.Context) ([]UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "list")
	defer span.End()

	var users []identity.User
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		users, err = repos.Users().FindAll(ctx)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return ToUserResponses(users), nil
}

// UpdateProfile replaces a user's name and telephone
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "update_profile")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, id.String())

	var user *identity.User
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		user, err = repos.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		taken, err := repos.Users().ExistsByTelephone(ctx, req.Telephone, &user.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrTelephoneTaken
		}
		if err := user.UpdateProfile(identity.Profile{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Telephone: req.Telephone,
		}); err != nil {
			return err
		}
		return repos.Users().Save(ctx, user)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("User profile updated", zap.String("user_id", id.String()))
	response := ToUserResponse(user)
	return &response, nil
}

// ChangeRole switches a user between tenant and manager. A user still
// renting an apartment or managing buildings keeps the role. Issued tokens
// carry the old role and are revoked.
func (s *UserService) ChangeRole(ctx context.Context, id uuid.UUID, req ChangeRoleRequest) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "change_role")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrUserID, id.String())

	role := identity.Role(req.Role)
	var (
		user    *identity.User
		changed bool
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		user, err = repos.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if user.Role == role {
			return nil
		}
		if user.ApartmentID != nil || len(user.ManagedBuildingIDs) > 0 {
			return ErrRoleChangeLocked
		}
		if err := user.ChangeRole(role); err != nil {
			return err
		}
		changed = true
		return repos.Users().Save(ctx, user)
	})
	if err != nil {
		if errors.Is(err, shared.ErrInvalidState) {
			s.logger.Warn("Role change refused", zap.String("user_id", id.String()), zap.Error(err))
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	if changed {
		s.revokeSubject(ctx, user.Email)
		s.logger.Info("User role changed",
			zap.String("user_id", id.String()),
			zap.String("role", role.String()),
		)
	}
	response := ToUserResponse(user)
	return &response, nil
}

// AssignApartment moves a tenant into an apartment, or out when the request carries none
func (s *UserService) AssignApartment(ctx context.Context, id uuid.UUID, req AssignApartmentRequest) (*UserResponse, error) {
	user, err := s.coordinator.AssignApartment(ctx, id, req.ApartmentID)
	if err != nil {
		return nil, err
	}
	response := ToUserResponse(user)
	return &response, nil
}

// UpdateManagedBuildings replaces the set of buildings a manager manages
func (s *UserService) UpdateManagedBuildings(ctx context.Context, id uuid.UUID, req UpdateManagedBuildingsRequest) (*UserResponse, error) {
	user, err := s.coordinator.UpdateManagedBuildings(ctx, id, req.BuildingIDs)
	if err != nil {
		return nil, err
	}
	response := ToUserResponse(user)
	return &response, nil
}

// Delete removes a user through the deletion cascade and revokes their tokens
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.coordinator.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.revokeSubject(ctx, user.Email)
	return nil
}

// ResolveIdentity returns the identity fields copied onto invoices for the user with this email
func (s *UserService) ResolveIdentity(ctx context.Context, email string) (identity.PersonSnapshot, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "user", "resolve_identity")
	defer span.End()

	var snapshot identity.PersonSnapshot
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		snapshot, err = identity.ResolveSnapshot(ctx, repos.Users(), email)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return identity.PersonSnapshot{}, err
	}
	return snapshot, nil
}

func (s *UserService) load(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	var user *identity.User
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		user, err = repos.Users().FindByID(ctx, id)
		return err
	})
	return user, err
}

func (s *UserService) revokeSubject(ctx context.Context, email string) {
	if err := s.blacklist.RevokeSubject(ctx, email, s.tokens.RefreshTokenExpiration()); err != nil {
		s.logger.Warn("Failed to revoke user tokens", zap.String("email", email), zap.Error(err))
	}
}
