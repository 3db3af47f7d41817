package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mindstorm-be/internal/dto"
	"mindstorm-be/internal/pkg/serverutils"
	"mindstorm-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChat struct {
	actor   service.Actor
	posted  *dto.PostMessageRequest
	warning string
	err     error
}

func (f *fakeChat) List(ctx context.Context, actor service.Actor, sessionId uuid.UUID) ([]*dto.MessageResponse, error) {
	return []*dto.MessageResponse{}, f.err
}

func (f *fakeChat) Post(ctx context.Context, actor service.Actor, sessionId uuid.UUID, req *dto.PostMessageRequest) (*dto.PostMessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.actor = actor
	f.posted = req
	res := &dto.PostMessageResponse{Message: dto.MessageResponse{Id: uuid.New(), SessionId: sessionId, Content: req.Content, Speaker: "user"}}
	if f.warning != "" {
		res.Warning = &f.warning
	}
	return res, nil
}

const testUser = "1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed"

func newTestApp(t *testing.T, chat service.IChatService) *fiber.App {
	t.Setenv("JWT_SECRET", "controller-secret")
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewChatController(chat).RegisterRoutes(app.Group("/api"))
	return app
}

func bearer(t *testing.T) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":   testUser,
		"full_name": "Grace",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte("controller-secret"))
	require.NoError(t, err)
	return "Bearer " + s
}

func postMessage(t *testing.T, app *fiber.App, path, body string) (*http.Response, serverutils.Response[json.RawMessage]) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var out serverutils.Response[json.RawMessage]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestChatPostCarriesActorAndWarning(t *testing.T) {
	chat := &fakeChat{warning: "the AI participant could not answer right now"}
	app := newTestApp(t, chat)

	path := "/api/sessions/v1/" + uuid.NewString() + "/messages"
	resp, body := postMessage(t, app, path, `{"content":"@spark ideas for onboarding"}`)

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, body.Success)
	assert.Equal(t, "Grace", chat.actor.DisplayName)
	assert.Equal(t, uuid.MustParse(testUser), chat.actor.UserId)
	assert.Equal(t, "@spark ideas for onboarding", chat.posted.Content)

	var data dto.PostMessageResponse
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.NotNil(t, data.Warning)
	assert.Nil(t, data.Reply)
}

func TestChatPostRejections(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		body   string
		err    error
		status int
	}{
		{"empty content", "/api/sessions/v1/" + uuid.NewString() + "/messages", `{"content":""}`, nil, fiber.StatusBadRequest},
		{"bad session id", "/api/sessions/v1/not-a-uuid/messages", `{"content":"hi"}`, nil, fiber.StatusBadRequest},
		{"ended session", "/api/sessions/v1/" + uuid.NewString() + "/messages", `{"content":"hi"}`, service.ErrSessionEnded, fiber.StatusConflict},
		{"not a participant", "/api/sessions/v1/" + uuid.NewString() + "/messages", `{"content":"hi"}`, service.ErrNotParticipant, fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, &fakeChat{err: tc.err})
			resp, body := postMessage(t, app, tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.False(t, body.Success)
		})
	}
}
