package digitalocean

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sapslaj/do-dyndns/pkg/log"
	"github.com/sapslaj/do-dyndns/provider"
)

const defaultBaseURL = "https://api.digitalocean.com"

// TokenEnvVar is the environment variable supplying the API token.
const TokenEnvVar = "DIGITALOCEAN_TOKEN"

type doProvider struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// NewProvider builds a provider.Provider backed by the DigitalOcean Domains
// API using the given pre-obtained token.
func NewProvider(token string) (provider.Provider, error) {
	if token == "" {
		return nil, fmt.Errorf("digitalocean: missing API token (set %s)", TokenEnvVar)
	}
	return &doProvider{
		baseURL: defaultBaseURL,
		token:   token,
		client:  http.DefaultClient,
		logger:  log.MustNewLogger().Named("digitalocean_provider"),
	}, nil
}

type domainRecord struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
	Data string `json:"data"`
	TTL  int64  `json:"ttl"`
}

func (r domainRecord) toRecord() provider.Record {
	return provider.Record{
		ID:   strconv.FormatInt(r.ID, 10),
		Type: r.Type,
		Name: r.Name,
		Data: r.Data,
		TTL:  r.TTL,
	}
}

type listResponse struct {
	DomainRecords []domainRecord `json:"domain_records"`
}

type recordResponse struct {
	DomainRecord domainRecord `json:"domain_record"`
}

type apiErrorBody struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (p *doProvider) ListRecords(ctx context.Context, domain string) ([]provider.Record, error) {
	url := fmt.Sprintf("%s/v2/domains/%s/records?per_page=200", p.baseURL, domain)
	var res listResponse
	err := p.do(ctx, http.MethodGet, url, nil, &res)
	if err != nil {
		return nil, err
	}
	records := make([]provider.Record, 0, len(res.DomainRecords))
	for _, r := range res.DomainRecords {
		records = append(records, r.toRecord())
	}
	return records, nil
}

func (p *doProvider) CreateRecord(ctx context.Context, domain, recordType, name, data string, ttl int64) (provider.Record, error) {
	url := fmt.Sprintf("%s/v2/domains/%s/records", p.baseURL, domain)
	body := map[string]any{
		"type": recordType,
		"name": name,
		"data": data,
		"ttl":  ttl,
	}
	var res recordResponse
	err := p.do(ctx, http.MethodPost, url, body, &res)
	if err != nil {
		return provider.Record{}, err
	}
	return res.DomainRecord.toRecord(), nil
}

func (p *doProvider) UpdateRecord(ctx context.Context, domain, recordID, data string, ttl int64) (provider.Record, error) {
	url := fmt.Sprintf("%s/v2/domains/%s/records/%s", p.baseURL, domain, recordID)
	body := map[string]any{
		"data": data,
		"ttl":  ttl,
	}
	var res recordResponse
	err := p.do(ctx, http.MethodPut, url, body, &res)
	if err != nil {
		return provider.Record{}, err
	}
	return res.DomainRecord.toRecord(), nil
}

func (p *doProvider) do(ctx context.Context, method, url string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &provider.APIError{Kind: provider.KindTransport, Err: err}
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return &provider.APIError{Kind: provider.KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := p.client.Do(req)
	if err != nil {
		return &provider.APIError{Kind: provider.KindTransport, Err: err}
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return &provider.APIError{Kind: provider.KindTransport, Err: err}
	}
	p.logger.Sugar().Debugw(
		"api response",
		"method", method,
		"url", url,
		"status", res.StatusCode,
		"body", string(resBody),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return p.classify(res.StatusCode, resBody)
	}

	err = json.Unmarshal(resBody, out)
	if err != nil {
		return &provider.APIError{
			Kind:    provider.KindServerError,
			Message: "could not parse response body",
			Err:     err,
		}
	}
	return nil
}

func (p *doProvider) classify(status int, body []byte) error {
	var errBody apiErrorBody
	// Best effort; the status code alone is enough to classify.
	_ = json.Unmarshal(body, &errBody)
	message := errBody.Message
	if message == "" {
		message = http.StatusText(status)
	}
	message = fmt.Sprintf("%s (HTTP %d)", message, status)

	kind := provider.KindServerError
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = provider.KindAuth
	case status == http.StatusNotFound:
		kind = provider.KindNotFound
	case status == http.StatusTooManyRequests:
		kind = provider.KindRateLimited
	}
	return &provider.APIError{Kind: kind, Message: message}
}
