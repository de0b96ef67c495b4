package helpers

import "github.com/gin-gonic/gin"

const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	refreshTokenMaxAge = 3600 * 24 * 30
)

// SetAuthCookies stores the session tokens as HTTP-only cookies; the domain
// is left to gin.
func SetAuthCookies(c *gin.Context, accessToken string, expiresIn int, refreshToken string, secure bool) {
	c.SetCookie(AccessTokenCookie, accessToken, expiresIn, "/", "", secure, true)
	if refreshToken != "" {
		c.SetCookie(RefreshTokenCookie, refreshToken, refreshTokenMaxAge, "/", "", secure, true)
	}
}

func ClearAuthCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}
