// Package npclassifier assigns the 3-level natural-product taxonomy by
// querying the NPClassifier service with each record's SMILES string.
package npclassifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/metabolome-tools/enrich-cli/internal/config"
	"github.com/metabolome-tools/enrich-cli/internal/model"
)

// Client is a NPClassifier API client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a Client from configuration.
func New(cfg config.NPClassifierConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
	}
}

type classifyResponse struct {
	PathwayResults    ResultField `json:"pathway_results"`
	SuperclassResults ResultField `json:"superclass_results"`
	ClassResults      ResultField `json:"class_results"`
}

// Classify issues one classification request for a SMILES string. The string
// is percent-escaped in full since SMILES uses most URL-reserved characters.
func (c *Client) Classify(ctx context.Context, smiles string) (model.NPTaxonomy, error) {
	reqURL := fmt.Sprintf("%s/classify?smiles=%s", c.baseURL, url.QueryEscape(smiles))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.NPTaxonomy{}, eris.Wrap(err, "npclassifier: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NPTaxonomy{}, eris.Wrap(err, "npclassifier: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return model.NPTaxonomy{}, eris.Errorf("HTTP error %d", resp.StatusCode)
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.NPTaxonomy{}, eris.Wrap(err, "npclassifier: parse response")
	}

	return model.NPTaxonomy{
		Pathway:    Unwrap(result.PathwayResults),
		SuperClass: Unwrap(result.SuperclassResults),
		Class:      Unwrap(result.ClassResults),
	}, nil
}
