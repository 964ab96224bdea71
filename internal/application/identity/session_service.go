package identity

import (
	"context"

	"github.com/clinicore/backend/internal/domain/identity"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService issues and refreshes clinic-scoped token pairs. The acting
// role is always resolved from the stored membership set; nothing in the
// request can select a role directly.
type SessionService struct {
	membershipRepo identity.MembershipRepository
	jwtService     *auth.JWTService
	revoker        auth.TokenRevoker
	logger         *zap.Logger
}

// NewSessionService creates a new session service. The revoker may be nil,
// in which case logout only discards client-side tokens.
func NewSessionService(membershipRepo identity.MembershipRepository, jwtService *auth.JWTService, revoker auth.TokenRevoker, logger *zap.Logger) *SessionService {
	return &SessionService{
		membershipRepo: membershipRepo,
		jwtService:     jwtService,
		revoker:        revoker,
		logger:         logger,
	}
}

// Start resolves the acting role for the requested clinic and mints a
// token pair. ErrForbidden when the user holds no membership there.
func (s *SessionService) Start(ctx context.Context, req StartSessionRequest) (*SessionResponse, error) {
	role, err := s.resolveRole(ctx, req.UserID, req.ClinicID)
	if err != nil {
		return nil, err
	}

	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		ClinicID: req.ClinicID,
		UserID:   req.UserID,
		Name:     req.Name,
		Role:     role,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Session started",
		zap.String("user_id", req.UserID.String()),
		zap.String("clinic_id", req.ClinicID.String()),
		zap.String("role", role.String()))

	return toSessionResponse(pair, req.ClinicID, req.UserID, role), nil
}

// Refresh exchanges a refresh token. The role is re-resolved from the
// current membership set so revoked memberships take effect on rotation.
func (s *SessionService) Refresh(ctx context.Context, req RefreshSessionRequest) (*SessionResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Refresh token is not valid")
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Refresh token carries malformed claims")
	}
	clinicID, err := claims.GetClinicUUID()
	if err != nil {
		return nil, shared.NewDomainError("TOKEN_INVALID", "Refresh token carries malformed claims")
	}

	role, err := s.resolveRole(ctx, userID, clinicID)
	if err != nil {
		return nil, err
	}

	pair, err := s.jwtService.RefreshTokenPair(req.RefreshToken, role)
	if err != nil {
		if err == auth.ErrMaxRefreshExceeded {
			return nil, shared.NewDomainError("TOKEN_MAX_REFRESH", "Refresh limit reached, sign in again")
		}
		return nil, shared.NewDomainError("TOKEN_INVALID", "Refresh token is not valid")
	}

	return toSessionResponse(pair, clinicID, userID, role), nil
}

// End revokes the presented access token for its remaining lifetime so the
// auth middleware rejects it from the next request on.
func (s *SessionService) End(ctx context.Context, claims *auth.Claims) error {
	if s.revoker == nil || claims == nil {
		return nil
	}
	ttl := claims.GetRemainingTTL()
	if ttl <= 0 {
		return nil
	}

	if err := s.revoker.Revoke(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("Failed to revoke token on logout",
			zap.String("user_id", claims.UserID),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Could not end the session")
	}

	s.logger.Info("Session ended",
		zap.String("user_id", claims.UserID),
		zap.String("clinic_id", claims.ClinicID))
	return nil
}

// EndAllSessions revokes every token the user currently holds, scoped by the
// refresh token lifetime so the revocation outlives any outstanding token.
func (s *SessionService) EndAllSessions(ctx context.Context, userID uuid.UUID) error {
	if s.revoker == nil {
		return nil
	}

	if err := s.revoker.RevokeUser(ctx, userID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke user sessions",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Could not end the user's sessions")
	}

	s.logger.Info("All sessions ended", zap.String("user_id", userID.String()))
	return nil
}

func (s *SessionService) resolveRole(ctx context.Context, userID, clinicID uuid.UUID) (identity.Role, error) {
	memberships, err := s.membershipRepo.FindByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return identity.ResolveActingRole(memberships, clinicID)
}

func toSessionResponse(pair *auth.TokenPair, clinicID, userID uuid.UUID, role identity.Role) *SessionResponse {
	return &SessionResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.AccessTokenExpiresAt,
		ClinicID:     clinicID,
		UserID:       userID,
		Role:         role,
	}
}
