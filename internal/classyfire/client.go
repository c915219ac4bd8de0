// Package classyfire queries the ClassyFire entity endpoint to fill the
// 5-level chemical taxonomy for records whose source document carries none.
package classyfire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/metabolome-tools/enrich-cli/internal/config"
	"github.com/metabolome-tools/enrich-cli/internal/model"
)

// The service publishes no concurrency tolerance, so callers must invoke
// Classify serially. Every successful call is followed by a short courtesy
// pause with jitter.
const (
	successPause = 100 * time.Millisecond
	backoffBase  = 500 * time.Millisecond
	backoffCap   = 1500 * time.Millisecond
	networkPause = time.Second
)

// Client is a serial ClassyFire API client.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxAttempts int
	sleep       func(context.Context, time.Duration)
}

// New creates a Client from configuration.
func New(cfg config.ClassyFireConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     cfg.BaseURL,
		maxAttempts: attempts,
		sleep:       sleepCtx,
	}
}

// entityResponse mirrors the entity JSON: each level is an optional object
// whose name field carries the classification.
type entityResponse struct {
	Kingdom      *levelName `json:"kingdom"`
	SuperClass   *levelName `json:"superclass"`
	Class        *levelName `json:"class"`
	SubClass     *levelName `json:"subclass"`
	DirectParent *levelName `json:"direct_parent"`
}

type levelName struct {
	Name string `json:"name"`
}

// Classify fetches the taxonomy for an InChIKey. A nil taxonomy with a nil
// error never occurs: absence is always reported as an error so the caller
// can log the cause and proceed with absent fields.
//
// Retry policy: up to maxAttempts tries. HTTP 429 backs off exponentially
// from 500ms capped at 1.5s. Any other non-200 status fails immediately
// without retry. A network-level error sleeps 1s and retries.
func (c *Client) Classify(ctx context.Context, inchikey string) (*model.Taxonomy, error) {
	log := zap.L().With(zap.String("component", "classyfire"), zap.String("inchikey", inchikey))
	url := fmt.Sprintf("%s/entities/%s.json", c.baseURL, inchikey)

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "classyfire: cancelled")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, eris.Wrap(err, "classyfire: build request")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Warn("request failed", zap.Int("attempt", attempt+1), zap.Error(err))
			c.sleep(ctx, networkPause)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			tax, err := decodeTaxonomy(resp.Body)
			_ = resp.Body.Close()
			if err != nil {
				return nil, err
			}
			c.sleep(ctx, successPause+jitter())
			return tax, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			_ = resp.Body.Close()
			wait := backoffBase << attempt
			if wait > backoffCap {
				wait = backoffCap
			}
			log.Warn("rate limited, backing off",
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait),
			)
			c.sleep(ctx, wait)

		default:
			_ = resp.Body.Close()
			return nil, eris.Errorf("classyfire: http %d for %s", resp.StatusCode, inchikey)
		}
	}

	return nil, eris.Errorf("classyfire: giving up on %s after %d attempts", inchikey, c.maxAttempts)
}

func decodeTaxonomy(r io.Reader) (*model.Taxonomy, error) {
	var entity entityResponse
	if err := json.NewDecoder(r).Decode(&entity); err != nil {
		return nil, eris.Wrap(err, "classyfire: parse response")
	}

	return &model.Taxonomy{
		Kingdom:      nameOf(entity.Kingdom),
		SuperClass:   nameOf(entity.SuperClass),
		Class:        nameOf(entity.Class),
		SubClass:     nameOf(entity.SubClass),
		DirectParent: nameOf(entity.DirectParent),
	}, nil
}

func nameOf(l *levelName) *string {
	if l == nil {
		return nil
	}
	return model.OptString(l.Name)
}

func jitter() time.Duration {
	return 10*time.Millisecond + time.Duration(rand.Int63n(int64(20*time.Millisecond)))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
