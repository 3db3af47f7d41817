package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_secret"
	}
	return []byte(secret)
}

// ParseToken validates an HS256 bearer token and returns its claims.
func ParseToken(tokenStr string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid claims")
	}
	return claims, nil
}

func JwtMiddleware(ctx *fiber.Ctx) error {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse("Missing token"))
	}

	claims, err := ParseToken(authHeader[7:])
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(err.Error()))
	}

	ctx.Locals("user_id", claims["user_id"])
	if name, ok := claims["full_name"].(string); ok {
		ctx.Locals("full_name", name)
	}
	return ctx.Next()
}

// CurrentUser reads the identity JwtMiddleware stored on the request.
func CurrentUser(ctx *fiber.Ctx) (uuid.UUID, string, error) {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, "", fiber.NewError(fiber.StatusUnauthorized, "Missing user identity")
	}
	name, _ := ctx.Locals("full_name").(string)
	return userId, name, nil
}
