package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const loggerKey = "logger"

// ErrorBody is the error object every failing endpoint returns.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps ErrorBody under "error".
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// SetLogger stores the request scoped logger.
func SetLogger(c *gin.Context, logger *zap.Logger) {
	c.Set(loggerKey, logger)
}

// Logger returns the request logger, or a no-op logger when none is set.
func Logger(c *gin.Context) *zap.Logger {
	if c != nil {
		if l, ok := c.Get(loggerKey); ok {
			if logger, ok := l.(*zap.Logger); ok && logger != nil {
				return logger
			}
		}
	}
	return zap.NewNop()
}

// Error logs an http.error line and aborts with the error envelope.
// Client mistakes are logged at warn, server failures at error.
func Error(c *gin.Context, status int, code, message string, details any) {
	level := zapcore.WarnLevel
	if status >= http.StatusInternalServerError {
		level = zapcore.ErrorLevel
	}
	if ce := Logger(c).Check(level, "http.error"); ce != nil {
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("code", code),
			zap.String("message", message),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		}
		if sessionID := c.GetString("sessionId"); sessionID != "" {
			fields = append(fields, zap.String("session_id", sessionID))
		}
		if userID := c.GetString("userId"); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		ce.Write(fields...)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{Code: code, Message: message, Details: details},
	})
}
