package route53

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/sapslaj/do-dyndns/pkg/log"
	"github.com/sapslaj/do-dyndns/provider"
)

// Route53Client is the subset of the Route 53 API the provider uses.
type Route53Client interface {
	GetHostedZone(
		ctx context.Context,
		params *route53.GetHostedZoneInput,
		optFns ...func(*route53.Options),
	) (*route53.GetHostedZoneOutput, error)
	ListResourceRecordSets(
		ctx context.Context,
		params *route53.ListResourceRecordSetsInput,
		optFns ...func(*route53.Options),
	) (*route53.ListResourceRecordSetsOutput, error)
	ChangeResourceRecordSets(
		ctx context.Context,
		params *route53.ChangeResourceRecordSetsInput,
		optFns ...func(*route53.Options),
	) (*route53.ChangeResourceRecordSetsOutput, error)
}

type route53Provider struct {
	zoneID   string
	zoneName string
	client   Route53Client
	logger   *zap.Logger
}

func defaultR53Client() (*route53.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, fmt.Errorf("could not get default AWS config: %w", err)
	}
	return route53.NewFromConfig(cfg), nil
}

// NewProvider builds a provider.Provider backed by an AWS Route 53 hosted
// zone. Route 53 has no per-record identifier, so record IDs are synthesized
// as "TYPE/name" and UpdateRecord is expressed as an UPSERT of that (type,
// name) pair.
func NewProvider(zoneID string) (provider.Provider, error) {
	if zoneID == "" {
		return nil, fmt.Errorf("route53: missing hosted zone ID")
	}
	client, err := defaultR53Client()
	if err != nil {
		return nil, fmt.Errorf("route53: could not get default Route53 client: %w", err)
	}
	return &route53Provider{
		zoneID: zoneID,
		client: client,
		logger: log.MustNewLogger().Named("route53_provider"),
	}, nil
}

func (p *route53Provider) ensureZoneName(ctx context.Context) error {
	if p.zoneName != "" {
		return nil
	}
	ghzout, err := p.client.GetHostedZone(ctx, &route53.GetHostedZoneInput{
		Id: aws.String(p.zoneID),
	})
	if err != nil {
		return classify(fmt.Errorf("could not get hosted zone information for %s: %w", p.zoneID, err))
	}
	p.zoneName = aws.ToString(ghzout.HostedZone.Name)
	return nil
}

func (p *route53Provider) ListRecords(ctx context.Context, domain string) ([]provider.Record, error) {
	err := p.ensureZoneName(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]provider.Record, 0)
	input := &route53.ListResourceRecordSetsInput{
		HostedZoneId: aws.String(p.zoneID),
	}
	for {
		out, err := p.client.ListResourceRecordSets(ctx, input)
		if err != nil {
			return nil, classify(err)
		}
		for _, rrset := range out.ResourceRecordSets {
			recordType := string(rrset.Type)
			if recordType != "A" && recordType != "AAAA" {
				continue
			}
			if len(rrset.ResourceRecords) == 0 {
				continue
			}
			name := relativeName(aws.ToString(rrset.Name), domain)
			records = append(records, provider.Record{
				ID:   recordID(recordType, name),
				Type: recordType,
				Name: name,
				Data: aws.ToString(rrset.ResourceRecords[0].Value),
				TTL:  aws.ToInt64(rrset.TTL),
			})
		}
		if !out.IsTruncated {
			break
		}
		input.StartRecordName = out.NextRecordName
		input.StartRecordType = out.NextRecordType
	}
	p.logger.Sugar().Debugw(
		"listed address records",
		"zone_id", p.zoneID,
		"zone_name", p.zoneName,
		"records", len(records),
	)
	return records, nil
}

func (p *route53Provider) CreateRecord(ctx context.Context, domain, recordType, name, data string, ttl int64) (provider.Record, error) {
	err := p.upsert(ctx, domain, recordType, name, data, ttl)
	if err != nil {
		return provider.Record{}, err
	}
	return provider.Record{
		ID:   recordID(recordType, name),
		Type: recordType,
		Name: name,
		Data: data,
		TTL:  ttl,
	}, nil
}

func (p *route53Provider) UpdateRecord(ctx context.Context, domain, rID, data string, ttl int64) (provider.Record, error) {
	recordType, name, err := parseRecordID(rID)
	if err != nil {
		return provider.Record{}, &provider.APIError{Kind: provider.KindNotFound, Message: err.Error()}
	}
	err = p.upsert(ctx, domain, recordType, name, data, ttl)
	if err != nil {
		return provider.Record{}, err
	}
	return provider.Record{
		ID:   rID,
		Type: recordType,
		Name: name,
		Data: data,
		TTL:  ttl,
	}, nil
}

func (p *route53Provider) upsert(ctx context.Context, domain, recordType, name, data string, ttl int64) error {
	_, err := p.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(p.zoneID),
		ChangeBatch: &types.ChangeBatch{
			Changes: []types.Change{
				{
					Action: types.ChangeActionUpsert,
					ResourceRecordSet: &types.ResourceRecordSet{
						Name: aws.String(absoluteName(name, domain)),
						Type: types.RRType(recordType),
						TTL:  aws.Int64(ttl),
						ResourceRecords: []types.ResourceRecord{
							{Value: aws.String(data)},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return classify(err)
	}
	p.logger.Sugar().Debugw(
		"submitted record set change",
		"zone_id", p.zoneID,
		"name", absoluteName(name, domain),
		"type", recordType,
	)
	return nil
}

func recordID(recordType, name string) string {
	return recordType + "/" + name
}

func parseRecordID(id string) (recordType, name string, err error) {
	recordType, name, ok := strings.Cut(id, "/")
	if !ok {
		return "", "", fmt.Errorf("route53: malformed record ID %q", id)
	}
	return recordType, name, nil
}

// absoluteName turns a subdomain label into the FQDN Route 53 expects.
func absoluteName(name, domain string) string {
	if name == "@" || name == "" {
		return domain + "."
	}
	return name + "." + domain + "."
}

// relativeName turns a Route 53 FQDN back into a subdomain label, with "@"
// for the apex.
func relativeName(fqdn, domain string) string {
	name := strings.TrimSuffix(fqdn, ".")
	if name == domain {
		return "@"
	}
	return strings.TrimSuffix(name, "."+domain)
}

func classify(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		kind := provider.KindServerError
		switch apiErr.ErrorCode() {
		case "AccessDenied", "AccessDeniedException", "UnrecognizedClientException",
			"InvalidClientTokenId", "ExpiredToken", "SignatureDoesNotMatch":
			kind = provider.KindAuth
		case "Throttling", "ThrottlingException", "PriorRequestNotComplete":
			kind = provider.KindRateLimited
		case "NoSuchHostedZone", "NoSuchResourceRecordSet":
			kind = provider.KindNotFound
		}
		return &provider.APIError{Kind: kind, Message: apiErr.ErrorMessage(), Err: err}
	}
	return &provider.APIError{Kind: provider.KindTransport, Err: err}
}
