package services_test

import (
	"time"

	"devcatalyst/portal/internal/models"
	"devcatalyst/portal/internal/services"

	"github.com/golang-jwt/jwt/v5"
)

func (s *PortalTestSuite) TestLoginIssuesTokens() {
	user, pair, err := s.auth.Login(s.ctx, "alice", "alice-pw")
	s.Require().NoError(err)
	s.Equal("alice", user.Name)
	s.Equal("Bearer", pair.TokenType)
	s.Equal(int64(3600), pair.ExpiresIn)
	s.NotEmpty(pair.RefreshToken)

	claims, err := s.auth.ParseAccessToken(pair.AccessToken)
	s.Require().NoError(err)
	s.Equal(s.alice, claims.Actor())
	s.Equal("devcatalyst-test", claims.Issuer)
}

func (s *PortalTestSuite) TestLoginRejectsBadCredentials() {
	_, _, err := s.auth.Login(s.ctx, "alice", "wrong")
	s.ErrorIs(err, services.ErrInvalidCredentials)

	_, _, err = s.auth.Login(s.ctx, "mallory", "alice-pw")
	s.ErrorIs(err, services.ErrInvalidCredentials)
}

func (s *PortalTestSuite) TestRefreshRotatesToken() {
	_, pair, err := s.auth.Login(s.ctx, "rhea", "rhea-pw")
	s.Require().NoError(err)

	rotated, err := s.auth.Refresh(s.ctx, pair.RefreshToken)
	s.Require().NoError(err)
	s.NotEqual(pair.RefreshToken, rotated.RefreshToken)

	_, err = s.auth.Refresh(s.ctx, pair.RefreshToken)
	s.ErrorIs(err, services.ErrInvalidToken)

	s.Require().NoError(s.auth.Revoke(s.ctx, rotated.RefreshToken))
	s.ErrorIs(s.auth.Revoke(s.ctx, rotated.RefreshToken), services.ErrInvalidToken)
	_, err = s.auth.Refresh(s.ctx, rotated.RefreshToken)
	s.ErrorIs(err, services.ErrInvalidToken)
}

func (s *PortalTestSuite) TestParseAccessTokenRejects() {
	sign := func(secret string, claims services.Claims) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		s.Require().NoError(err)
		return token
	}
	valid := services.Claims{
		UserID: s.alice.UserID.String(),
		Name:   "alice",
		Role:   models.RoleMember,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "devcatalyst-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	_, err := s.auth.ParseAccessToken(sign("test-secret", valid))
	s.Require().NoError(err)

	_, err = s.auth.ParseAccessToken(sign("other-secret", valid))
	s.ErrorIs(err, services.ErrInvalidToken)

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	_, err = s.auth.ParseAccessToken(sign("test-secret", expired))
	s.ErrorIs(err, services.ErrInvalidToken)

	foreign := valid
	foreign.Issuer = "someone-else"
	_, err = s.auth.ParseAccessToken(sign("test-secret", foreign))
	s.ErrorIs(err, services.ErrInvalidToken)

	badRole := valid
	badRole.Role = "Owner"
	_, err = s.auth.ParseAccessToken(sign("test-secret", badRole))
	s.ErrorIs(err, services.ErrInvalidToken)

	_, err = s.auth.ParseAccessToken("not.a.token")
	s.ErrorIs(err, services.ErrInvalidToken)
}

func (s *PortalTestSuite) TestPasswordHashing() {
	hash, err := services.HashPassword("secret", 4)
	s.Require().NoError(err)
	s.True(services.VerifyPassword(hash, "secret"))
	s.False(services.VerifyPassword(hash, "Secret"))
}
