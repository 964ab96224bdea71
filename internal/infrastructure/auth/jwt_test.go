package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/backend/internal/domain/identity"
	"github.com/clinicore/backend/internal/infrastructure/config"
)

// clinicSigner builds a JWTService with sane clinic defaults; mutators tweak
// individual config fields per test.
func clinicSigner(mutators ...func(*config.JWTConfig)) *JWTService {
	cfg := config.JWTConfig{
		Secret:                 "clinic-access-secret-32-characters",
		RefreshSecret:          "clinic-refresh-secret-32-character",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "clinic-backend",
		MaxRefreshCount:        10,
	}
	for _, m := range mutators {
		m(&cfg)
	}
	return NewJWTService(cfg)
}

// sharedSecret makes access and refresh tokens verifiable with one key, so a
// token of the wrong type passes signature checks and exercises type checks.
func sharedSecret(cfg *config.JWTConfig) {
	cfg.RefreshSecret = cfg.Secret
}

func doctorInput() GenerateTokenInput {
	return GenerateTokenInput{
		ClinicID: uuid.New(),
		UserID:   uuid.New(),
		Name:     "Dr. Adeyemi",
		Role:     identity.RoleDoctor,
	}
}

func TestNewJWTService_AppliesConfig(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:                 "clinic-access-secret-32-characters",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "clinic-backend",
		MaxRefreshCount:        5,
	}

	svc := NewJWTService(cfg)

	require.NotNil(t, svc)
	assert.Equal(t, []byte(cfg.Secret), svc.accessSecret)
	assert.Equal(t, cfg.AccessTokenExpiration, svc.accessExpiration)
	assert.Equal(t, cfg.RefreshTokenExpiration, svc.refreshExpiration)
	assert.Equal(t, cfg.Issuer, svc.issuer)
	assert.Equal(t, cfg.MaxRefreshCount, svc.maxRefreshCount)

	// With no dedicated refresh secret the access secret signs both tokens.
	assert.Equal(t, []byte(cfg.Secret), svc.refreshSecret)
}

func TestGenerateTokenPair(t *testing.T) {
	pair, err := clinicSigner().GenerateTokenPair(doctorInput())

	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.AccessTokenExpiresAt.After(time.Now()))
	assert.True(t, pair.RefreshTokenExpiresAt.After(pair.AccessTokenExpiresAt))
}

func TestValidateAccessToken(t *testing.T) {
	svc := clinicSigner()
	input := doctorInput()

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)

	require.NoError(t, err)
	assert.Equal(t, input.ClinicID.String(), claims.ClinicID)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, input.Name, claims.Name)
	assert.Equal(t, identity.RoleDoctor, claims.GetRole())
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestValidateAccessToken_Rejections(t *testing.T) {
	cases := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "garbage token",
			token:   func(t *testing.T) string { return "not-a-jwt" },
			wantErr: ErrInvalidToken,
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				expired := clinicSigner(func(cfg *config.JWTConfig) {
					cfg.AccessTokenExpiration = -time.Hour
				})
				pair, err := expired.GenerateTokenPair(doctorInput())
				require.NoError(t, err)
				return pair.AccessToken
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "refresh token presented as access",
			token: func(t *testing.T) string {
				pair, err := clinicSigner(sharedSecret).GenerateTokenPair(doctorInput())
				require.NoError(t, err)
				return pair.RefreshToken
			},
			wantErr: ErrInvalidTokenType,
		},
		{
			name: "signed by another clinic deployment",
			token: func(t *testing.T) string {
				foreign := clinicSigner(func(cfg *config.JWTConfig) {
					cfg.Secret = "some-other-deployment-secret-key!!"
				})
				pair, err := foreign.GenerateTokenPair(doctorInput())
				require.NoError(t, err)
				return pair.AccessToken
			},
			wantErr: ErrInvalidToken,
		},
	}

	svc := clinicSigner(sharedSecret)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tc.token(t))
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	svc := clinicSigner()
	input := doctorInput()

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(pair.RefreshToken)

	require.NoError(t, err)
	assert.Equal(t, input.ClinicID.String(), claims.ClinicID)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.Equal(t, 0, claims.RefreshCount)
}

func TestValidateRefreshToken_RejectsAccessToken(t *testing.T) {
	svc := clinicSigner(sharedSecret)

	pair, err := svc.GenerateTokenPair(doctorInput())
	require.NoError(t, err)

	_, err = svc.ValidateRefreshToken(pair.AccessToken)

	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestRefreshTokenPair_RotatesAndRestampsRole(t *testing.T) {
	svc := clinicSigner()

	pair, err := svc.GenerateTokenPair(doctorInput())
	require.NoError(t, err)

	// The caller passes the user's current role so a promotion between
	// sessions takes effect at the next refresh.
	newPair, err := svc.RefreshTokenPair(pair.RefreshToken, identity.RoleAdmin)

	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, newPair.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	claims, err := svc.ValidateAccessToken(newPair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, identity.RoleAdmin, claims.GetRole())
}

func TestRefreshTokenPair_CountsAndCaps(t *testing.T) {
	svc := clinicSigner(func(cfg *config.JWTConfig) {
		cfg.MaxRefreshCount = 2
	})

	pair, err := svc.GenerateTokenPair(doctorInput())
	require.NoError(t, err)

	for wantCount := 1; wantCount <= 2; wantCount++ {
		pair, err = svc.RefreshTokenPair(pair.RefreshToken, identity.RoleDoctor)
		require.NoError(t, err)

		claims, err := svc.ValidateRefreshToken(pair.RefreshToken)
		require.NoError(t, err)
		assert.Equal(t, wantCount, claims.RefreshCount)
	}

	// The cap forces a fresh login rather than refreshing forever.
	_, err = svc.RefreshTokenPair(pair.RefreshToken, identity.RoleDoctor)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
}

func TestRefreshTokenPair_RejectsBadTokens(t *testing.T) {
	svc := clinicSigner(sharedSecret)

	pair, err := svc.GenerateTokenPair(doctorInput())
	require.NoError(t, err)

	_, err = svc.RefreshTokenPair("not-a-jwt", identity.RoleDoctor)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.RefreshTokenPair(pair.AccessToken, identity.RoleDoctor)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestClaims_UUIDAccessors(t *testing.T) {
	svc := clinicSigner()
	input := doctorInput()

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	clinicID, err := claims.GetClinicUUID()
	require.NoError(t, err)
	assert.Equal(t, input.ClinicID, clinicID)

	userID, err := claims.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, userID)
}

func TestClaims_ActsAs(t *testing.T) {
	pharmacist := &Claims{Role: identity.RolePharmacy.String()}

	assert.True(t, pharmacist.ActsAs(identity.RolePharmacy))
	assert.True(t, pharmacist.ActsAs(identity.RoleAdmin, identity.RolePharmacy))
	assert.False(t, pharmacist.ActsAs(identity.RoleDoctor))
	assert.False(t, pharmacist.ActsAs(identity.RoleLab, identity.RoleRadiology))

	superAdmin := &Claims{Role: identity.RoleSuperAdmin.String()}
	assert.True(t, superAdmin.ActsAs(identity.RoleDoctor))
	assert.True(t, superAdmin.ActsAs(identity.RoleAccountant))
}
