package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sapslaj/do-dyndns/config"
	"github.com/sapslaj/do-dyndns/controller"
	"github.com/sapslaj/do-dyndns/pkg/log"
	"github.com/sapslaj/do-dyndns/provider"
	"github.com/sapslaj/do-dyndns/provider/digitalocean"
	"github.com/sapslaj/do-dyndns/provider/route53"
	"github.com/sapslaj/do-dyndns/reconciler"
	"github.com/sapslaj/do-dyndns/resolver"
)

type stringSliceFlag []string

func (f *stringSliceFlag) String() string {
	return strings.Join(*f, ",")
}

func (f *stringSliceFlag) Set(value string) error {
	*f = append(*f, value)
	return nil
}

var (
	dryRun        = flag.Bool("dry-run", false, "Don't actually change anything, just log changes (default: disabled)")
	once          = flag.Bool("once", false, "Run a single reconciliation pass and exit (default: disabled)")
	ipv4          = flag.Bool("ipv4", false, "Create and update the A record")
	ipv6          = flag.Bool("ipv6", false, "Create and update the AAAA record")
	sleepInterval = flag.Int64("sleep-interval", 300, "Sleep interval between passes in seconds (default: 300)")
	ttl           = flag.Int64("ttl", 60, "TTL for the record in seconds (default: 60)")
	subdomain     = flag.String("subdomain", "@", "The subdomain to update or create (default: \"@\", the domain itself)")
	providerName  = flag.String("provider", config.ProviderDigitalOcean, "DNS provider: digitalocean or route53 (default: digitalocean)")
	route53ZoneID = flag.String("route53-zone-id", "", "Route 53 hosted zone ID (route53 provider only)")
	metricsListen = flag.String("metrics-listen", "", "Optional listen address for prometheus metrics (default: disabled)")
	ipServices    stringSliceFlag
)

func init() {
	flag.Var(&ipServices, "ip-service", "Echo service URL returning the caller's address; repeatable, replaces the default list")
	// Short aliases matching the historical CLI surface.
	flag.BoolVar(dryRun, "n", false, "Alias for -dry-run")
	flag.BoolVar(once, "o", false, "Alias for -once")
	flag.BoolVar(ipv4, "4", false, "Alias for -ipv4")
	flag.BoolVar(ipv6, "6", false, "Alias for -ipv6")
	flag.Int64Var(sleepInterval, "i", 300, "Alias for -sleep-interval")
	flag.Int64Var(ttl, "t", 60, "Alias for -ttl")
	flag.StringVar(subdomain, "s", "@", "Alias for -subdomain")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <DOMAIN>\n\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Keeps a DNS address record pointed at this host's current public address.\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Supply the provider API token via the environment variable %s.\n\n", digitalocean.TokenEnvVar)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.MustNewLogger().Named("main")
	defer func() {
		err := logger.Sync()
		var perr *fs.PathError
		if err != nil && !errors.As(err, &perr) {
			panic(err)
		}
	}()
	logger.Info("Starting do-dyndns v" + VERSION)

	cfg := &config.Config{
		Domain:        flag.Arg(0),
		Subdomain:     *subdomain,
		IPv4:          *ipv4,
		IPv6:          *ipv6,
		TTL:           *ttl,
		SleepInterval: time.Duration(*sleepInterval) * time.Second,
		DryRun:        *dryRun,
		Once:          *once,
		Provider:      *providerName,
		Route53ZoneID: *route53ZoneID,
		ServiceURLs:   ipServices,
		MetricsListen: *metricsListen,
		Token:         os.Getenv(digitalocean.TokenEnvVar),
	}
	err := cfg.Validate()
	if err != nil {
		flag.Usage()
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(cancel, logger)

	prov, err := newProvider(cfg)
	if err != nil {
		logger.Fatal("could not create provider", zap.Error(err))
	}

	if cfg.MetricsListen != "" {
		go serveMetrics(cfg.MetricsListen, logger)
	}

	ctrl := &controller.Controller{
		Reconciler: &reconciler.Reconciler{
			Resolver: resolver.NewWebResolver(cfg.ServiceURLs),
			Provider: prov,
			Target: reconciler.Target{
				Domain:    cfg.Domain,
				Subdomain: cfg.Subdomain,
				TTL:       cfg.TTL,
			},
			DryRun: cfg.DryRun,
			Logger: logger.Named("reconciler"),
		},
		Families: cfg.Families(),
		Interval: cfg.SleepInterval,
		Logger:   logger.Named("controller"),
	}

	if cfg.Once {
		err := ctrl.RunOnce(ctx)
		if err != nil {
			logger.Fatal("reconciliation pass failed", zap.Error(err))
		}
		return
	}

	err = ctrl.Run(ctx)
	if err != nil {
		logger.Fatal("reconciliation loop stopped", zap.Error(err))
	}
}

func newProvider(cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case config.ProviderDigitalOcean:
		return digitalocean.NewProvider(cfg.Token)
	case config.ProviderRoute53:
		return route53.NewProvider(cfg.Route53ZoneID)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func serveMetrics(listen string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	err := http.ListenAndServe(listen, mux)
	if err != nil {
		logger.Error("metrics listener stopped", zap.Error(err))
	}
}

func handleSignals(cancel func(), logger *zap.Logger) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	<-signals
	logger.Info("Received termination signal. Terminating...")
	cancel()
}
