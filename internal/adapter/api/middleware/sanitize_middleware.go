package middleware

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	scriptTagPattern     = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	javascriptURIPattern = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerPattern  = regexp.MustCompile(`(?i)on\w+\s*=\s*("[^"]*"|'[^']*')`)
)

func SanitizeString(s string) string {
	s = strings.TrimSpace(s)
	s = scriptTagPattern.ReplaceAllString(s, "")
	s = javascriptURIPattern.ReplaceAllString(s, "")
	s = eventHandlerPattern.ReplaceAllString(s, "")
	return s
}

// SanitizeValue walks decoded JSON and cleans every string it finds.
func SanitizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return SanitizeString(t)
	case []interface{}:
		for i := range t {
			t[i] = SanitizeValue(t[i])
		}
		return t
	case map[string]interface{}:
		for k, val := range t {
			t[k] = SanitizeValue(val)
		}
		return t
	default:
		return v
	}
}

// Sanitize cleans JSON request bodies and query values before binding.
func Sanitize() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if query := req.URL.Query(); len(query) > 0 {
				for key, values := range query {
					for i := range values {
						values[i] = SanitizeString(values[i])
					}
					query[key] = values
				}
				req.URL.RawQuery = query.Encode()
			}

			if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) &&
				req.Body != nil {
				body, _, err := readJSONObject(c)
				if err != nil || len(body) == 0 {
					return next(c)
				}

				var decoded interface{}
				if err := json.Unmarshal(body, &decoded); err != nil {
					// Leave malformed bodies for Bind to report.
					return next(c)
				}

				cleaned, err := json.Marshal(SanitizeValue(decoded))
				if err == nil {
					replaceBody(c, cleaned)
				}
			}

			return next(c)
		}
	}
}
