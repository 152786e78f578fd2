package middleware

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mockmate/internal/shared/server/respond"
)

// Recovery turns a handler panic into a 500 envelope. A panic caused by the
// client hanging up is logged without writing a response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger := respond.Logger(c)
			if err, ok := rec.(error); ok && brokenPipe(err) {
				logger.Warn("client disconnected", zap.String("path", c.Request.URL.Path), zap.Error(err))
				c.Abort()
				return
			}
			logger.Error("panic",
				zap.String("error", fmt.Sprint(rec)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("session_id", c.GetString("sessionId")),
				zap.ByteString("stack", debug.Stack()),
			)
			respond.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		}()
		c.Next()
	}
}

func brokenPipe(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if errors.As(opErr, &sysErr) {
		return errors.Is(sysErr.Err, syscall.EPIPE) || errors.Is(sysErr.Err, syscall.ECONNRESET)
	}
	return false
}
