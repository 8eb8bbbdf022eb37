package httputil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error shape the backend uses
type ErrorBody struct {
	Detail string `json:"detail"`
}

// validationDetail is one entry of a 422 detail list
type validationDetail struct {
	Loc []interface{} `json:"loc"`
	Msg string        `json:"msg"`
}

// ErrorMessage extracts a human readable message from an error body. It looks
// at detail, then error, then message. Returns "" when none is usable.
func ErrorMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}

	for _, key := range []string{"detail", "error", "message"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if msg := messageFrom(raw); msg != "" {
			return msg
		}
	}
	return ""
}

func messageFrom(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []validationDetail
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		msg := list[0].Msg
		if n := len(list[0].Loc); n > 0 {
			if field, ok := list[0].Loc[n-1].(string); ok {
				msg = field + ": " + msg
			}
		}
		return strings.TrimSpace(msg)
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}

// RespondWithError aborts with {"detail": message}
func RespondWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Detail: message})
}

// RespondWithMessage sends {"message": message} with 200
func RespondWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"message": message})
}
