package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// 1リクエスト1行のアクセスログ
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				//ステータスを確定させてから記録する
				c.Error(err)
			}

			req := c.Request()
			_, hasSession := SessionIDFrom(c)
			attrs := []any{
				"method", req.Method,
				"uri", req.RequestURI,
				"status", c.Response().Status,
				"latency_ms", time.Since(start).Milliseconds(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"remote_ip", c.RealIP(),
				"session", hasSession,
			}
			if c.Response().Status >= 500 {
				logger.Error("request", attrs...)
			} else {
				logger.Info("request", attrs...)
			}
			return nil
		}
	}
}
