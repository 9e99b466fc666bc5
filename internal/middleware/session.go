package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"storefront/internal/config"
)

const (
	CtxSessionIDKey = "session_id" // string
)

// Cookieのセッションを読み、無ければ発行する。
// カートはこのIDをキーにセッションストアへ置く。
func Session(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(cfg.SessionCookie); err == nil {
				//uuidでなければ捨てて作り直す
				if id, err := uuid.Parse(ck.Value); err == nil {
					sid = id.String()
				}
			}
			if sid == "" {
				sid = uuid.NewString()
			}

			//毎回貼り直して有効期限を延ばす
			c.SetCookie(&http.Cookie{
				Name:     cfg.SessionCookie,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(cfg.SessionTTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.IsProd(),
				SameSite: http.SameSiteLaxMode,
			})

			c.Set(CtxSessionIDKey, sid)
			return next(c)
		}
	}
}

// contextからセッションIDを取り出す
func SessionIDFrom(c echo.Context) (string, bool) {
	sid, ok := c.Get(CtxSessionIDKey).(string)
	return sid, ok && sid != ""
}
