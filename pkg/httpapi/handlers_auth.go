package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ondrejsika/audioserve-go/pkg/errcodes"
	"github.com/ondrejsika/audioserve-go/pkg/token"
)

// authenticateHandler implements §4.D "/authenticate": parse the shared
// secret challenge, constant-time compare, mint and return a token. The
// form body is read directly with FormValue rather than through the full
// Binder pipeline, since Binder.Bind's multipart-form fallback is tuned
// for JSON-shaped request bodies and this endpoint reads exactly one raw
// form field.
func authenticateHandler(c echo.Context) error {
	d := deps(c)

	if d.Config.NoAuthentication {
		return errcodes.BadRequest("authentication is disabled")
	}

	secret := c.FormValue("secret")
	if secret == "" {
		return errcodes.BadRequest("missing secret")
	}

	if !token.VerifySharedSecretChallenge(secret, d.Config.SharedSecret) {
		return errcodes.Unauthorized("invalid shared secret")
	}

	tok, err := d.Signer.Mint()
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(d.Config.TokenValidFor / time.Second),
		HttpOnly: true,
	})

	return c.JSON(http.StatusOK, map[string]string{"token": tok})
}
