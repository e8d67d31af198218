package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

// JWTTestSuite JWT工具测试套件
type JWTTestSuite struct {
	suite.Suite
	manager *JWTManager
}

func (suite *JWTTestSuite) SetupTest() {
	suite.manager = NewJWTManager("test-secret-key", "geo-guess", time.Hour)
}

// 测试生成并验证令牌
func (suite *JWTTestSuite) TestGenerateAndValidate() {
	token, err := suite.manager.GenerateToken(123, "alice", "member")
	suite.Require().NoError(err)
	suite.NotEmpty(token)

	claims, err := suite.manager.ValidateToken(token)
	suite.Require().NoError(err)
	suite.Equal(uint(123), claims.UserID)
	suite.Equal("alice", claims.Username)
	suite.Equal("member", claims.Role)
	suite.Equal("geo-guess", claims.Issuer)
	suite.Equal(time.Hour, suite.manager.GetTokenExpiry())
}

// 测试过期令牌
func (suite *JWTTestSuite) TestExpiredToken() {
	token, err := suite.manager.GenerateToken(1, "alice", "member")
	suite.Require().NoError(err)

	suite.manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = suite.manager.ValidateToken(token)
	suite.ErrorIs(err, ErrExpiredToken)
}

// 测试错误的密钥和签发者
func (suite *JWTTestSuite) TestForeignToken() {
	other := NewJWTManager("another-secret", "geo-guess", time.Hour)
	token, err := other.GenerateToken(1, "mallory", "admin")
	suite.Require().NoError(err)
	_, err = suite.manager.ValidateToken(token)
	suite.Error(err)

	issuer := NewJWTManager("test-secret-key", "someone-else", time.Hour)
	token, err = issuer.GenerateToken(1, "mallory", "admin")
	suite.Require().NoError(err)
	_, err = suite.manager.ValidateToken(token)
	suite.Error(err)

	_, err = suite.manager.ValidateToken("not-a-token")
	suite.Error(err)
}

// 测试非HMAC签名被拒绝
func (suite *JWTTestSuite) TestUnsignedToken() {
	claims := &JWTClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "geo-guess",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	suite.Require().NoError(err)

	_, err = suite.manager.ValidateToken(token)
	suite.Error(err)
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}
