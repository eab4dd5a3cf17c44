package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

var (
	// Three dot-separated base64url segments, the JWT shape.
	jwtPattern = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)

	bearerPattern    = regexp.MustCompile(`(?i)^bearer\s+.+$`)
	basicAuthPattern = regexp.MustCompile(`(?i)^basic\s+.+$`)
)

// DefaultRedactOptions lists the masq rules applied to every log record.
// Besides the usual credential shapes this covers the anonymous visitor
// identity: the user_id cookie is still an identifier and stays out of logs.
func DefaultRedactOptions() []masq.Option {
	return []masq.Option{
		masq.WithFieldName("password"),
		masq.WithFieldName("secret"),
		masq.WithFieldName("token"),
		masq.WithFieldName("apiKey"),
		masq.WithFieldName("api_key"),
		masq.WithFieldName("accessToken"),
		masq.WithFieldName("access_token"),
		masq.WithFieldName("credential"),
		masq.WithFieldName("credentials"),
		masq.WithFieldName("authorization"),
		masq.WithFieldName("auth"),
		masq.WithFieldName("bearer"),

		// Visitor identity rides in cookies; neither the raw cookie headers
		// nor the extracted id belong in log output.
		masq.WithFieldName("cookie"),
		masq.WithFieldName("set-cookie"),
		masq.WithFieldName("user_id"),
		masq.WithFieldName("visitor_id"),
		masq.WithFieldName("session"),

		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),

		masq.WithRegex(jwtPattern),
		masq.WithRegex(bearerPattern),
		masq.WithRegex(basicAuthPattern),
	}
}

// NewReplaceAttr builds the slog.HandlerOptions ReplaceAttr hook from
// DefaultRedactOptions plus any extra masq rules the caller adds.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	allOpts := append(DefaultRedactOptions(), opts...)
	return masq.New(allOpts...)
}
