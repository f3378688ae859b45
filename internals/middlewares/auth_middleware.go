package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"absenku_backend/internals/configs"
	helper "absenku_backend/internals/helpers"
)

const (
	LocalsUserID = "user_id"
	LocalsRole   = "role"
)

// AuthRequired: validasi Bearer JWT (HS256), taruh user_id & role di Locals.
// Operasi inti mengasumsikan caller sudah ter-otorisasi; gating peran terjadi
// di level route, bukan di dalam service.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(authz, "Bearer ") {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Token tidak ditemukan")
		}
		raw := strings.TrimPrefix(authz, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(configs.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Token tidak valid atau kedaluwarsa")
		}

		sub, _ := claims["sub"].(string)
		userID, err := uuid.Parse(sub)
		if err != nil {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Token tidak memuat user id")
		}
		role, _ := claims["role"].(string)

		c.Locals(LocalsUserID, userID)
		c.Locals(LocalsRole, role)
		return c.Next()
	}
}

// RoleRequired: gate route untuk peran tertentu (dipasang SETELAH AuthRequired).
func RoleRequired(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(LocalsRole).(string)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return helper.JsonError(c, fiber.StatusForbidden, "Peran tidak diizinkan mengakses operasi ini")
	}
}

// UserIDFromLocals: ambil user id hasil AuthRequired.
func UserIDFromLocals(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(LocalsUserID).(uuid.UUID)
	return id, ok
}
