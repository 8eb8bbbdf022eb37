package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail":"Invalid credentials"}`, "Invalid credentials"},
		{"error field", `{"error":"boom"}`, "boom"},
		{"message field", `{"message":"nope"}`, "nope"},
		{"detail wins", `{"message":"m","detail":"d"}`, "d"},
		{"nested error", `{"error":{"code":400,"message":"bad input"}}`, "bad input"},
		{"validation list", `{"detail":[{"loc":["body","email"],"msg":"field required","type":"missing"}]}`, "email: field required"},
		{"empty detail falls through", `{"detail":"","error":"fallback"}`, "fallback"},
		{"no known field", `{"status":"x"}`, ""},
		{"not json", `<html>oops</html>`, ""},
		{"empty", ``, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage([]byte(tt.body)))
		})
	}
}

func TestRespondWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithError(c, http.StatusNotFound, "Medicine not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Medicine not found"}`, w.Body.String())
	assert.True(t, c.IsAborted())
}
