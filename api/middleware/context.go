package middleware

import (
	"hwlock/internal/entity"

	"github.com/labstack/echo/v4"
)

const (
	contextUserKey    = "auth_user"
	contextSessionKey = "auth_session"
)

func SetAuthContext(c echo.Context, user *entity.User, session *entity.Session) {
	c.Set(contextUserKey, user)
	c.Set(contextSessionKey, session)
}

func UserFromContext(c echo.Context) (*entity.User, bool) {
	user, ok := c.Get(contextUserKey).(*entity.User)
	return user, ok && user != nil
}

func SessionFromContext(c echo.Context) (*entity.Session, bool) {
	session, ok := c.Get(contextSessionKey).(*entity.Session)
	return session, ok && session != nil
}
