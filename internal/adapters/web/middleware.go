package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ogurasousui/codex-employee-import/internal/platform/logging"
)

const (
	requestIDHeader = "X-Request-Id"
	sessionKey      = "employee_import.session_id"
	roleKey         = "employee_import.role"
)

// requestLogger はリクエスト単位の logrus.Entry をコンテキストに格納し、完了時に 1 行記録します。
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		entry := logrus.NewEntry(s.logger).WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
		})
		c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), entry))

		start := time.Now()
		c.Next()

		entry = entry.WithFields(logrus.Fields{
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Error("http request")
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Warn("http request")
		default:
			entry.Info("http request")
		}
	}
}

// sessionMiddleware はセッション Cookie を検証し、無ければ新しいセッション ID を発行します。
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(s.session.CookieName)
		if err != nil || uuid.Validate(sessionID) != nil {
			sessionID = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.session.CookieName, sessionID, int(s.session.TTL/time.Second), "/", "", c.Request.TLS != nil, true)
		c.Set(sessionKey, sessionID)
		c.Next()
	}
}

// roleMiddleware はロールを決定します。ヘッダーは信頼設定が有効な場合だけ読みます。
func (s *Server) roleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := s.defaultRole
		if s.trustRoleHeader {
			if v := strings.TrimSpace(c.GetHeader(s.roleHeader)); v != "" {
				role = v
			}
		}
		c.Set(roleKey, role)
		c.Next()
	}
}

// authorize は object に対する action を要求します。
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authz.Authorize(c.Request.Context(), c.GetString(roleKey), object, action); err != nil {
			s.fail(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}
