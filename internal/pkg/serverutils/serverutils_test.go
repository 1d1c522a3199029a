package serverutils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Question string `json:"question" validate:"required,max=5"`
	Format   string `json:"format" validate:"omitempty,oneof=table natural_language"`
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    sampleRequest
		fields []string
	}{
		{name: "valid", req: sampleRequest{Question: "hi"}},
		{name: "missing question", req: sampleRequest{}, fields: []string{"Question"}},
		{name: "too long and bad format", req: sampleRequest{Question: "toolong", Format: "pdf"}, fields: []string{"Question", "Format"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			for _, f := range tt.fields {
				assert.Contains(t, ve.Fields, f)
			}
		})
	}
}

func newApp(secret string) *fiber.App {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/validate", func(ctx *fiber.Ctx) error {
		return ValidateRequest(sampleRequest{})
	})
	app.Get("/missing", func(ctx *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Attachment not found")
	})
	app.Get("/secure", JwtMiddleware(secret), func(ctx *fiber.Ctx) error {
		return ctx.JSON(SuccessResponse("ok", ctx.Locals("user_id")))
	})
	return app
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := newApp("")

	resp, err := app.Test(httptest.NewRequest("GET", "/validate", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	var body BaseResponse[map[string]string]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "is required", body.Data["Question"])

	resp, err = app.Test(httptest.NewRequest("GET", "/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	var errBody BaseResponse[any]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
	assert.Equal(t, "Attachment not found", errBody.Message)
}

func TestJwtMiddleware(t *testing.T) {
	secret := "s3cret"
	app := newApp(secret)

	resp, err := app.Test(httptest.NewRequest("GET", "/secure", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "user-1"}).SignedString([]byte(secret))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body BaseResponse[string]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "user-1", body.Data)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("other"))
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestJwtMiddlewareDisabledWithoutSecret(t *testing.T) {
	app := newApp("")
	resp, err := app.Test(httptest.NewRequest("GET", "/secure", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
