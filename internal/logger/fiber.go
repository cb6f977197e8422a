package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	// RequestIDLocal is where fiber's requestid middleware stores the id.
	RequestIDLocal = "requestid"
	userIDLocal    = "user_id"
	loggerLocal    = "logger"
)

// Middleware logs every request once it has been handled. The level
// follows the response status.
func Middleware(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqLog := log.With(
			zap.String("request_id", requestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		)
		c.Locals(loggerLocal, reqLog)

		chainErr := c.Next()
		if chainErr != nil {
			// run the error handler now so the logged status is the real one
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.IP()),
		}
		if uid, ok := c.Locals(userIDLocal).(uint); ok {
			fields = append(fields, zap.Uint("user_id", uid))
		}
		if q := string(c.Request().URI().QueryString()); q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if chainErr != nil {
			fields = append(fields, zap.Error(chainErr))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			reqLog.Error("HTTP Request", fields...)
		case status >= fiber.StatusBadRequest:
			reqLog.Warn("HTTP Request", fields...)
		default:
			reqLog.Info("HTTP Request", fields...)
		}
		return nil
	}
}

// Recovery turns a panic into a 500 and logs it with a stack trace.
func Recovery(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic recovered",
					zap.String("request_id", requestID(c)),
					zap.String("method", c.Method()),
					zap.String("path", c.Path()),
					zap.Any("error", r),
					zap.Stack("stacktrace"),
				)
				err = fiber.NewError(fiber.StatusInternalServerError, "internal error")
			}
		}()
		return c.Next()
	}
}

// FromCtx returns the request logger, or a no-op logger outside Middleware.
func FromCtx(c *fiber.Ctx) *zap.Logger {
	if l, ok := c.Locals(loggerLocal).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDLocal).(string)
	return id
}
