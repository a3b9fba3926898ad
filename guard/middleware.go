package guard

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
)

// ContextKeyDecision holds the Decision of a rendered request on the echo context.
const ContextKeyDecision = "guard.decision"

// Middleware applies the route's decision before the handler runs. Redirects use 302;
// a login redirect carries the attempted path as the "from" query parameter.
func (g *Guard) Middleware(r Route) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			d := g.Resolve(req.Context(), r, req.URL.Path)

			switch d.Outcome {
			case OutcomeRender:
				c.Set(ContextKeyDecision, d)
				return next(c)
			case OutcomeLoading:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "loading"})
			case OutcomeRedirectLogin:
				return c.Redirect(http.StatusFound, LoginRedirectURL(d))
			default:
				return c.Redirect(http.StatusFound, d.Location)
			}
		}
	}
}

// LoginRedirectURL builds the redirect target of a login decision.
func LoginRedirectURL(d Decision) string {
	if d.From == "" {
		return d.Location
	}

	return d.Location + "?" + url.Values{"from": {d.From}}.Encode()
}
