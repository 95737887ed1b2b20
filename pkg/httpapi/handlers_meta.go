package httpapi

import (
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"

	"github.com/ondrejsika/audioserve-go/pkg/config"
)

// collectionsHandler implements §4.D "/collections".
func collectionsHandler(c echo.Context) error {
	d := deps(c)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":           d.Registry.Count(),
		"names":           d.Registry.Names(),
		"folder_download": !d.Config.DisableFolderDownload,
	})
}

// transcodingsHandler implements §4.D "/transcodings": the profile set
// selected by the request's User-Agent, plus the process's max-parallel
// transcodings count.
func transcodingsHandler(c echo.Context) error {
	d := deps(c)
	profiles := selectProfiles(d.Config, c.Request().UserAgent())

	return c.JSON(http.StatusOK, map[string]interface{}{
		"max_transcodings": d.Config.MaxTranscodings,
		"profiles":         profiles,
	})
}

// selectProfiles resolves the profile set for userAgent (§4.B "alternative
// profile sets keyed by a User-Agent regex, first match wins, else
// DefaultProfiles").
func selectProfiles(cfg *config.Config, userAgent string) map[string]config.Profile {
	for _, alt := range cfg.AltProfileSets {
		if alt.UserAgentRegex != nil && matchesUserAgent(alt.UserAgentRegex, userAgent) {
			return alt.Profiles
		}
	}
	return cfg.DefaultProfiles
}

func matchesUserAgent(re *regexp.Regexp, ua string) bool {
	return re.MatchString(ua)
}
