package middleware

import (
	"crypto/rsa"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// MachineLocalKey marks requests authenticated with the worker credential.
const MachineLocalKey = "machine"

// ErrMachineKeyMissing is returned when no worker public key is configured.
var ErrMachineKeyMissing = errors.New("machine public key is not configured")

// ParseMachineKey decodes the PEM encoded RSA public key used by the image worker.
func ParseMachineKey(pemKey string) (*rsa.PublicKey, error) {
	if strings.TrimSpace(pemKey) == "" {
		return nil, ErrMachineKeyMissing
	}
	// Env files often carry the PEM on one line with literal \n sequences.
	pemKey = strings.ReplaceAll(pemKey, `\n`, "\n")
	return jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
}

// MachineAuth accepts only RS256 tokens signed by the processing worker.
// A nil key rejects every request.
func MachineAuth(key *rsa.PublicKey) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
				"code":  "UNAUTHORIZED",
			})
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(c.Get("Authorization"), "Bearer "))
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
				"code":  "UNAUTHORIZED",
			})
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
				"code":  "UNAUTHORIZED",
			})
		}

		c.Locals(MachineLocalKey, true)
		return c.Next()
	}
}
