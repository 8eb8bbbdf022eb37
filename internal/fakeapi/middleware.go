package fakeapi

import (
	stderrors "errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/healthhub-client/pkg/auth"
	"github.com/jwalitptl/healthhub-client/pkg/httputil"
)

const (
	HeaderXRequestID = "X-Request-ID"
	ContextRequestID = "request_id"
	contextUserID    = "user_id"
)

// requestID echoes the caller's request id or assigns one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderXRequestID)
		if rid == "" {
			rid = uuid.New().String()
		}

		c.Set(ContextRequestID, rid)
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Warn("request panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"request_id", c.GetString(ContextRequestID),
				)
				httputil.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
			}
		}()
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Debug("request processed",
			"request_id", c.GetString(ContextRequestID),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
}

// intercept counts requests, runs the test hook and serves queued failures
func (s *Server) intercept() gin.HandlerFunc {
	return func(c *gin.Context) {
		hook, failure := s.nextInterception()
		if hook != nil {
			hook(c.Request)
		}
		if failure != nil {
			httputil.RespondWithError(c, failure.status, failure.detail)
			return
		}
		c.Next()
	}
}

// authenticate mirrors the backend's bearer checks and their messages
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			httputil.RespondWithError(c, http.StatusForbidden, "Not authenticated")
			return
		}

		claims, err := s.tokens.ValidateToken(parts[1])
		if err != nil {
			detail := "Invalid token"
			if stderrors.Is(err, auth.ErrTokenExpired) {
				detail = "Token expired"
			}
			httputil.RespondWithError(c, http.StatusUnauthorized, detail)
			return
		}

		if _, ok := s.data.userByEmail(claims.Email); !ok {
			httputil.RespondWithError(c, http.StatusUnauthorized, "User not found")
			return
		}

		c.Set(contextUserID, claims.UserID)
		c.Next()
	}
}
