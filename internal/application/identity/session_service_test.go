package identity

import (
	"context"
	"testing"
	"time"

	"github.com/clinicore/backend/internal/domain/identity"
	"github.com/clinicore/backend/internal/domain/shared"
	"github.com/clinicore/backend/internal/infrastructure/auth"
	"github.com/clinicore/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockMembershipRepository is a mock implementation of MembershipRepository
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]identity.Membership, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]identity.Membership), args.Error(1)
}

func (m *MockMembershipRepository) FindByUserAndClinic(ctx context.Context, userID, clinicID uuid.UUID) (*identity.Membership, error) {
	args := m.Called(ctx, userID, clinicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Membership), args.Error(1)
}

func (m *MockMembershipRepository) Save(ctx context.Context, membership *identity.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func newTestSessionService(repo *MockMembershipRepository) *SessionService {
	return newTestSessionServiceWithRevoker(repo, nil)
}

func newTestSessionServiceWithRevoker(repo *MockMembershipRepository, revoker auth.TokenRevoker) *SessionService {
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-key-at-least-32-char",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "clinic-backend-test",
		MaxRefreshCount:        10,
	})
	return NewSessionService(repo, jwtService, revoker, zap.NewNop())
}

func membershipFor(userID, clinicID uuid.UUID, role identity.Role) identity.Membership {
	m, err := identity.NewMembership(userID, clinicID, role)
	if err != nil {
		panic(err)
	}
	return *m
}

func TestSessionService_Start(t *testing.T) {
	userID := uuid.New()
	clinicID := uuid.New()

	repo := new(MockMembershipRepository)
	repo.On("FindByUser", mock.Anything, userID).Return([]identity.Membership{
		membershipFor(userID, clinicID, identity.RoleDoctor),
	}, nil)

	svc := newTestSessionService(repo)
	session, err := svc.Start(context.Background(), StartSessionRequest{
		UserID:   userID,
		ClinicID: clinicID,
		Name:     "Dr. Yusuf",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, identity.RoleDoctor, session.Role)
	assert.Equal(t, clinicID, session.ClinicID)
	assert.True(t, session.ExpiresAt.After(time.Now()))
}

func TestSessionService_Start_NoMembershipInClinic(t *testing.T) {
	userID := uuid.New()

	repo := new(MockMembershipRepository)
	repo.On("FindByUser", mock.Anything, userID).Return([]identity.Membership{
		membershipFor(userID, uuid.New(), identity.RoleReceptionist),
	}, nil)

	svc := newTestSessionService(repo)
	_, err := svc.Start(context.Background(), StartSessionRequest{
		UserID:   userID,
		ClinicID: uuid.New(),
	})

	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestSessionService_Start_SuperAdminBypassesClinicCheck(t *testing.T) {
	userID := uuid.New()

	repo := new(MockMembershipRepository)
	repo.On("FindByUser", mock.Anything, userID).Return([]identity.Membership{
		membershipFor(userID, uuid.New(), identity.RoleSuperAdmin),
	}, nil)

	svc := newTestSessionService(repo)
	session, err := svc.Start(context.Background(), StartSessionRequest{
		UserID:   userID,
		ClinicID: uuid.New(),
	})

	require.NoError(t, err)
	assert.Equal(t, identity.RoleSuperAdmin, session.Role)
}

func TestSessionService_Start_HighestRoleWins(t *testing.T) {
	userID := uuid.New()
	clinicID := uuid.New()

	repo := new(MockMembershipRepository)
	repo.On("FindByUser", mock.Anything, userID).Return([]identity.Membership{
		membershipFor(userID, clinicID, identity.RoleReceptionist),
		membershipFor(userID, clinicID, identity.RoleAdmin),
	}, nil)

	svc := newTestSessionService(repo)
	session, err := svc.Start(context.Background(), StartSessionRequest{
		UserID:   userID,
		ClinicID: clinicID,
	})

	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, session.Role)
}

func TestSessionService_Refresh(t *testing.T) {
	userID := uuid.New()
	clinicID := uuid.New()

	repo := new(MockMembershipRepository)
	repo.On("FindByUser", mock.Anything, userID).Return([]identity.Membership{
		membershipFor(userID, clinicID, identity.RolePharmacy),
	}, nil)

	svc := newTestSessionService(repo)
	session, err := svc.Start(context.Background(), StartSessionRequest{
		UserID:   userID,
		ClinicID: clinicID,
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), RefreshSessionRequest{
		RefreshToken: session.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, identity.RolePharmacy, refreshed.Role)
	assert.Equal(t, userID, refreshed.UserID)
}

func TestSessionService_Refresh_InvalidToken(t *testing.T) {
	repo := new(MockMembershipRepository)
	svc := newTestSessionService(repo)

	_, err := svc.Refresh(context.Background(), RefreshSessionRequest{
		RefreshToken: "not-a-token",
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "TOKEN_INVALID", domainErr.Code)
}

func TestSessionService_Refresh_MembershipRevoked(t *testing.T) {
	userID := uuid.New()
	clinicID := uuid.New()

	repo := new(MockMembershipRepository)
	repo.On("FindByUser", mock.Anything, userID).Return([]identity.Membership{
		membershipFor(userID, clinicID, identity.RoleLab),
	}, nil).Once()

	svc := newTestSessionService(repo)
	session, err := svc.Start(context.Background(), StartSessionRequest{
		UserID:   userID,
		ClinicID: clinicID,
	})
	require.NoError(t, err)

	// Membership set is emptied before the rotation
	repo.On("FindByUser", mock.Anything, userID).Return([]identity.Membership{}, nil)

	_, err = svc.Refresh(context.Background(), RefreshSessionRequest{
		RefreshToken: session.RefreshToken,
	})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestSessionService_End_RevokesToken(t *testing.T) {
	userID := uuid.New()
	clinicID := uuid.New()

	repo := new(MockMembershipRepository)
	repo.On("FindByUser", mock.Anything, userID).Return([]identity.Membership{
		membershipFor(userID, clinicID, identity.RoleDoctor),
	}, nil)

	revoker := auth.NewInMemoryTokenRevoker()
	svc := newTestSessionServiceWithRevoker(repo, revoker)
	session, err := svc.Start(context.Background(), StartSessionRequest{
		UserID:   userID,
		ClinicID: clinicID,
	})
	require.NoError(t, err)

	claims, err := svc.jwtService.ValidateAccessToken(session.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.End(context.Background(), claims))

	revoked, err := revoker.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestSessionService_End_NoRevokerIsNoop(t *testing.T) {
	svc := newTestSessionService(new(MockMembershipRepository))
	assert.NoError(t, svc.End(context.Background(), nil))
}

func TestSessionService_EndAllSessions(t *testing.T) {
	userID := uuid.New()

	revoker := auth.NewInMemoryTokenRevoker()
	svc := newTestSessionServiceWithRevoker(new(MockMembershipRepository), revoker)

	issuedBefore := time.Now().Add(-time.Minute)
	require.NoError(t, svc.EndAllSessions(context.Background(), userID))

	revoked, err := revoker.IsUserRevoked(context.Background(), userID.String(), issuedBefore)
	require.NoError(t, err)
	assert.True(t, revoked)
}
