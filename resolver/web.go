package resolver

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/sapslaj/do-dyndns/address"
	"github.com/sapslaj/do-dyndns/pkg/log"
)

// DefaultServiceURLs are public echo services that return the caller's
// address as the first line of a plain text response.
var DefaultServiceURLs = []string{
	"https://ifconfig.co",
	"https://ipinfo.io/ip",
	"https://ifconfig.me",
}

const lookupTimeout = 15 * time.Second

// WebResolver resolves the public address by asking external echo services.
// Each request is pinned to the requested family's network so that a
// dual-stack host gets an answer for the family it asked about. Services are
// tried in order; the first parseable response wins.
type WebResolver struct {
	ServiceURLs []string
	// HTTPClient overrides the per-family pinned client when set. Mostly
	// useful for tests.
	HTTPClient *http.Client
	Logger     *zap.Logger

	clients map[address.Family]*http.Client
}

func NewWebResolver(serviceURLs []string) *WebResolver {
	if len(serviceURLs) == 0 {
		serviceURLs = DefaultServiceURLs
	}
	return &WebResolver{
		ServiceURLs: serviceURLs,
		Logger:      log.MustNewLogger().Named("web_resolver"),
		clients: map[address.Family]*http.Client{
			address.FamilyIPv4: newFamilyClient(address.FamilyIPv4),
			address.FamilyIPv6: newFamilyClient(address.FamilyIPv6),
		},
	}
}

func newFamilyClient(family address.Family) *http.Client {
	dialer := &net.Dialer{}
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.DialContext(ctx, family.DialNetwork(), addr)
			},
		},
	}
}

// Resolve implements Resolver.
func (r *WebResolver) Resolve(ctx context.Context, family address.Family) (address.PublicAddress, error) {
	var errs error
	for _, serviceURL := range r.ServiceURLs {
		addr, err := r.lookup(ctx, serviceURL, family)
		if err != nil {
			r.Logger.Sugar().Debugw(
				"echo service lookup failed",
				"service", serviceURL,
				"family", family,
				"err", err,
			)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", serviceURL, err))
			continue
		}
		return addr, nil
	}
	if errs == nil {
		errs = fmt.Errorf("no echo services configured")
	}
	return address.PublicAddress{}, &NetworkError{Family: family, Err: errs}
}

func (r *WebResolver) lookup(ctx context.Context, serviceURL string, family address.Family) (address.PublicAddress, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serviceURL, nil)
	if err != nil {
		return address.PublicAddress{}, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	client := r.HTTPClient
	if client == nil {
		client = r.clients[family]
	}
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return address.PublicAddress{}, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return address.PublicAddress{}, fmt.Errorf("request returned %s", res.Status)
	}

	line, _ := bufio.NewReader(res.Body).ReadString('\n')
	return address.Parse(family, strings.TrimSpace(line))
}
