package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atoms-tech/mcpregistry/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrMissingUserID     = errors.New("missing user ID in token")
)

// JWKSet represents a JSON Web Key Set
type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kid string   `json:"kid"`
	Kty string   `json:"kty"`
	Use string   `json:"use"`
	N   string   `json:"n"`
	E   string   `json:"e"`
	X5c []string `json:"x5c"`
}

// IdentityConfig holds the identity provider configuration
type IdentityConfig struct {
	Issuer   string
	JWKSURL  string
	Audience string
}

// NewIdentityConfig creates a new identity provider configuration
func NewIdentityConfig(issuer, jwksURL, audience string) *IdentityConfig {
	return &IdentityConfig{
		Issuer:   issuer,
		JWKSURL:  jwksURL,
		Audience: audience,
	}
}

// Authentication middleware extracts the caller identity from a bearer
// JWT without signature verification. Use AuthenticationVerified() in
// production.
func Authentication() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.Debug("Authentication middleware invoked")

		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(authHeader) < len(prefix) || authHeader[:len(prefix)] != prefix {
			logger.WithField("path", c.Request.URL.Path).Warn("Authentication failed: missing or invalid authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Missing or invalid authorization header",
			})
			return
		}

		tokenString := authHeader[len(prefix):]

		parts := strings.Split(tokenString, ".")
		if len(parts) != 3 {
			logger.WithFields(map[string]interface{}{
				"path":        c.Request.URL.Path,
				"parts_count": len(parts),
			}).Warn("Authentication failed: malformed token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "malformed_token",
				"message": fmt.Sprintf("JWT token must have 3 parts (header.payload.signature), got %d part(s)", len(parts)),
			})
			return
		}

		parser := jwt.NewParser(jwt.WithoutClaimsValidation())
		token, _, err := parser.ParseUnverified(tokenString, jwt.MapClaims{})

		if err != nil || token == nil {
			logger.Debugf("Token parse error: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": fmt.Sprintf("Failed to parse token: %v", err),
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Invalid token claims",
			})
			return
		}

		if exp, ok := claims["exp"].(float64); ok {
			if time.Now().Unix() > int64(exp) {
				logger.WithField("path", c.Request.URL.Path).Warn("Authentication failed: token expired")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "token_expired",
					"message": "Token has expired",
				})
				return
			}
		}

		// The subject claim is the external user id
		var userId string
		if sub, ok := claims["sub"].(string); ok {
			userId = sub
		} else {
			logger.WithField("path", c.Request.URL.Path).Warn("Authentication failed: missing user ID in token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Missing user ID in token",
			})
			return
		}

		c.Set("user_id", userId)
		c.Set("token_claims", claims)

		logger.WithFields(map[string]interface{}{
			"user_id": userId,
			"path":    c.Request.URL.Path,
		}).Debug("Authentication successful")

		c.Next()
	}
}

// AuthenticationVerified middleware validates bearer JWTs with full
// signature verification against the provider's JWKS endpoint
func AuthenticationVerified(config *IdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.Debug("AuthenticationVerified middleware invoked")

		authHeader := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(authHeader) < len(prefix) || !strings.HasPrefix(authHeader, prefix) {
			logger.WithField("path", c.Request.URL.Path).Warn("Authentication failed: missing or invalid authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Missing or invalid authorization header",
			})
			return
		}

		tokenString := authHeader[len(prefix):]

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}

			cert, err := getPemCert(token, config.JWKSURL)
			if err != nil {
				return nil, err
			}

			return jwt.ParseRSAPublicKeyFromPEM([]byte(cert))
		})

		if err != nil {
			logger.WithFields(map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			}).Warn("Authentication failed: token validation error")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": err.Error(),
			})
			return
		}

		if !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Token is not valid",
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Invalid token claims",
			})
			return
		}

		if config.Audience != "" && !audienceMatches(claims, config.Audience) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Invalid audience",
			})
			return
		}

		if config.Issuer != "" {
			if iss, ok := claims["iss"].(string); !ok || iss != config.Issuer {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "invalid_token",
					"message": "Invalid issuer",
				})
				return
			}
		}

		var userId string
		if sub, ok := claims["sub"].(string); ok {
			userId = sub
		} else {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Missing user ID in token",
			})
			return
		}

		c.Set("user_id", userId)
		c.Set("token_claims", claims)

		c.Next()
	}
}

// audienceMatches checks the aud claim in both string and array forms
func audienceMatches(claims jwt.MapClaims, audience string) bool {
	if aud, ok := claims["aud"].(string); ok {
		return aud == audience
	}
	if audArray, ok := claims["aud"].([]interface{}); ok {
		for _, a := range audArray {
			if audStr, ok := a.(string); ok && audStr == audience {
				return true
			}
		}
	}
	return false
}

// getPemCert fetches the PEM certificate from the provider's JWKS endpoint
func getPemCert(token *jwt.Token, jwksURL string) (string, error) {
	cert := ""

	resp, err := http.Get(jwksURL)
	if err != nil {
		return cert, err
	}
	defer resp.Body.Close()

	var jwks JWKSet
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return cert, err
	}

	kid, ok := token.Header["kid"].(string)
	if !ok {
		return cert, errors.New("missing kid in token header")
	}

	for _, key := range jwks.Keys {
		if key.Kid == kid {
			if len(key.X5c) > 0 {
				cert = fmt.Sprintf("-----BEGIN CERTIFICATE-----\n%s\n-----END CERTIFICATE-----", key.X5c[0])
				return cert, nil
			}
		}
	}

	return cert, errors.New("unable to find appropriate key")
}
