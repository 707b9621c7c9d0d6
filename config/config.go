package config

import (
	"time"

	"github.com/sapslaj/do-dyndns/address"
)

// Provider names accepted by the -provider flag.
const (
	ProviderDigitalOcean = "digitalocean"
	ProviderRoute53      = "route53"
)

// ConfigError is a fatal configuration problem, reported before any
// reconciliation pass runs.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Message
}

// Config is everything a run needs, assembled once at startup from flags and
// environment and passed down explicitly. Nothing reads ambient state after
// this is built.
type Config struct {
	// The domain to update
	Domain string
	// The subdomain label to update or create, "@" for the apex
	Subdomain string
	// Manage the A record
	IPv4 bool
	// Manage the AAAA record
	IPv6 bool
	// TTL for the record, seconds
	TTL int64
	// Sleep interval between passes
	SleepInterval time.Duration
	// Compute and log decisions without mutating remote state
	DryRun bool
	// Run a single pass and exit
	Once bool
	// Which provider implementation to use
	Provider string
	// Hosted zone ID, route53 provider only
	Route53ZoneID string
	// Echo service URLs; empty means the default list
	ServiceURLs []string
	// Optional prometheus listen address; empty disables the listener
	MetricsListen string
	// Pre-obtained provider API token
	Token string
}

// Families returns the enabled address families in a stable order.
func (c *Config) Families() []address.Family {
	families := make([]address.Family, 0, 2)
	if c.IPv4 {
		families = append(families, address.FamilyIPv4)
	}
	if c.IPv6 {
		families = append(families, address.FamilyIPv6)
	}
	return families
}

// Validate checks the assembled configuration. Any returned error is a
// *ConfigError and fatal.
func (c *Config) Validate() error {
	if c.Domain == "" {
		return &ConfigError{Message: "a domain must be specified"}
	}
	if c.Subdomain == "" {
		return &ConfigError{Message: "subdomain must not be empty (use \"@\" for the apex)"}
	}
	if !c.IPv4 && !c.IPv6 {
		return &ConfigError{Message: "at least one of -4 or -6 must be specified"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Message: "TTL must be greater than 0"}
	}
	if c.SleepInterval <= 0 {
		return &ConfigError{Message: "sleep interval must be greater than 0"}
	}
	switch c.Provider {
	case ProviderDigitalOcean:
		if c.Token == "" {
			return &ConfigError{Message: "missing API token (set DIGITALOCEAN_TOKEN)"}
		}
	case ProviderRoute53:
		if c.Route53ZoneID == "" {
			return &ConfigError{Message: "-route53-zone-id is required with -provider route53"}
		}
	default:
		return &ConfigError{Message: "unknown provider " + c.Provider}
	}
	return nil
}
