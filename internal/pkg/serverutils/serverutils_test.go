package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codedError struct{ code int }

func (e codedError) Error() string   { return "session has ended" }
func (e codedError) StatusCode() int { return e.code }

func decode(t *testing.T, resp *http.Response) Response[any] {
	t.Helper()
	var body Response[any]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestErrorHandlerMiddleware(t *testing.T) {
	type request struct {
		Title string `validate:"required"`
	}

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"coded", fmt.Errorf("post: %w", codedError{code: fiber.StatusConflict}), fiber.StatusConflict},
		{"fiber", fiber.NewError(fiber.StatusUnauthorized, "Missing user identity"), fiber.StatusUnauthorized},
		{"validation", ValidateRequest(request{}), fiber.StatusBadRequest},
		{"unknown", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(ErrorHandlerMiddleware())
			app.Get("/", func(ctx *fiber.Ctx) error { return tc.err })

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			body := decode(t, resp)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestJwtMiddleware(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/me", JwtMiddleware, func(ctx *fiber.Ctx) error {
		id, name, err := CurrentUser(ctx)
		if err != nil {
			return err
		}
		return ctx.JSON(SuccessResponse("ok", fiber.Map{"id": id.String(), "name": name}))
	})

	sign := func(secret string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id":   "6f1c1a52-8f59-4a8e-bd2a-3c6f0b1d2e4f",
			"full_name": "Ada",
			"exp":       time.Now().Add(time.Hour).Unix(),
		})
		s, err := token.SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+sign("test-secret"))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decode(t, resp)
		data := body.Data.(map[string]interface{})
		assert.Equal(t, "Ada", data["name"])
		assert.Equal(t, "6f1c1a52-8f59-4a8e-bd2a-3c6f0b1d2e4f", data["id"])
	})

	t.Run("wrong secret", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+sign("other"))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("missing header", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
