package fetcher

import (
	"context"
	"io"
	"regexp"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/metabolome-tools/enrich-cli/internal/resilience"
)

// FetchVersion scrapes a download page for the published dataset version
// string using a capturing regex. Any failure (network or pattern miss) is
// retried up to maxRetries times; a missing version is fatal for the collect
// stage since every later artifact filename inherits it.
func FetchVersion(ctx context.Context, f Fetcher, pageURL, pattern string, maxRetries int) (string, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return "", eris.Wrapf(err, "version: compile pattern %q", pattern)
	}

	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = maxRetries
	cfg.ShouldRetry = func(error) bool { return true }
	cfg.OnRetry = resilience.RetryLogger("collect", "fetch version")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		body, err := f.Download(ctx, pageURL)
		if err != nil {
			return "", eris.Wrapf(err, "version: fetch %s", pageURL)
		}
		defer body.Close() //nolint:errcheck

		html, err := io.ReadAll(body)
		if err != nil {
			return "", eris.Wrap(err, "version: read page")
		}

		m := re.FindSubmatch(html)
		if len(m) < 2 {
			return "", eris.Errorf("version: pattern %q not found at %s", pattern, pageURL)
		}

		version := string(m[1])
		zap.L().Info("remote version found",
			zap.String("url", pageURL),
			zap.String("version", version),
		)
		return version, nil
	})
}
