package gateway

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/apexgp/paddock/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
)

const tokenTTL = 3 * time.Hour

// JWTAuth issues and verifies fan access tokens.
type JWTAuth struct {
	Config models.Config
	Key    []byte
}

// TokenClaims is the paddock standard claim set.
type TokenClaims struct {
	FanID  uint   `json:"fan_id"`
	Mobile string `json:"mobile"`
	jwt.StandardClaims
}

// Init loads the signing key from config, generating an ephemeral one
// when none is configured (tokens won't survive a restart in that case).
func (j *JWTAuth) Init() {
	if j.Config.JWTKey != "" {
		j.Key = []byte(j.Config.JWTKey)
		return
	}
	key, err := GenerateSecretKey(32)
	if err != nil {
		panic(fmt.Sprintf("jwt key generation: %v", err))
	}
	j.Key = key
}

// GenerateJWT signs a token for the given fan.
func (j *JWTAuth) GenerateJWT(fanID uint, mobile string) (string, error) {
	if len(j.Key) == 0 {
		return "", errors.New("empty jwt key")
	}
	now := time.Now().UTC()
	claims := TokenClaims{
		FanID:  fanID,
		Mobile: mobile,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenTTL).Unix(),
			Issuer:    "paddock",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.Key)
}

// VerifyJWT parses and validates a token. On expiry the parsed claims
// are still returned alongside the error so refresh can use them.
func (j *JWTAuth) VerifyJWT(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Key, nil
	})
	if err != nil {
		return claims, err
	}
	if !token.Valid {
		return claims, errors.New("invalid token")
	}
	return claims, nil
}

// AuthMiddleware guards fan endpoints. The verified mobile and fan id
// are placed into locals for downstream handlers.
func (j *JWTAuth) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"code": "empty_authorization", "message": "empty header was sent"})
		}
		claims, err := j.VerifyJWT(header)
		if err != nil {
			if ve, ok := err.(*jwt.ValidationError); ok {
				if ve.Errors&jwt.ValidationErrorExpired != 0 {
					return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
						"code": "jwt_expired", "message": "token has expired"})
				}
				return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
					"code": "jwt_malformed", "message": "malformed token"})
			}
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
				"code": "jwt_malformed", "message": "malformed token"})
		}
		c.Locals("mobile", claims.Mobile)
		c.Locals("fan_id", claims.FanID)
		return c.Next()
	}
}

// GenerateSecretKey returns n bytes of cryptographic randomness.
func GenerateSecretKey(n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}
