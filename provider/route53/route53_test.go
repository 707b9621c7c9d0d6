package route53

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sapslaj/do-dyndns/provider"
)

type mockRoute53Client struct {
	GetHostedZoneCalls  []*route53.GetHostedZoneInput
	GetHostedZoneOutput *route53.GetHostedZoneOutput
	GetHostedZoneError  error

	ListResourceRecordSetsCalls  []*route53.ListResourceRecordSetsInput
	ListResourceRecordSetsOutput *route53.ListResourceRecordSetsOutput
	ListResourceRecordSetsError  error

	ChangeResourceRecordSetsCalls  []*route53.ChangeResourceRecordSetsInput
	ChangeResourceRecordSetsOutput *route53.ChangeResourceRecordSetsOutput
	ChangeResourceRecordSetsError  error
}

func (m *mockRoute53Client) GetHostedZone(
	ctx context.Context,
	params *route53.GetHostedZoneInput,
	optFns ...func(*route53.Options),
) (*route53.GetHostedZoneOutput, error) {
	m.GetHostedZoneCalls = append(m.GetHostedZoneCalls, params)
	out := m.GetHostedZoneOutput
	if out == nil {
		out = &route53.GetHostedZoneOutput{
			HostedZone: &types.HostedZone{
				CallerReference: aws.String(""),
				Id:              params.Id,
				Name:            aws.String("example.com."),
			},
		}
	}
	return out, m.GetHostedZoneError
}

func (m *mockRoute53Client) ListResourceRecordSets(
	ctx context.Context,
	params *route53.ListResourceRecordSetsInput,
	optFns ...func(*route53.Options),
) (*route53.ListResourceRecordSetsOutput, error) {
	m.ListResourceRecordSetsCalls = append(m.ListResourceRecordSetsCalls, params)
	out := m.ListResourceRecordSetsOutput
	if out == nil {
		out = &route53.ListResourceRecordSetsOutput{
			IsTruncated:        false,
			ResourceRecordSets: []types.ResourceRecordSet{},
		}
	}
	return out, m.ListResourceRecordSetsError
}

func (m *mockRoute53Client) ChangeResourceRecordSets(
	ctx context.Context,
	params *route53.ChangeResourceRecordSetsInput,
	optFns ...func(*route53.Options),
) (*route53.ChangeResourceRecordSetsOutput, error) {
	m.ChangeResourceRecordSetsCalls = append(m.ChangeResourceRecordSetsCalls, params)
	out := m.ChangeResourceRecordSetsOutput
	if out == nil {
		out = &route53.ChangeResourceRecordSetsOutput{
			ChangeInfo: &types.ChangeInfo{
				Id:     aws.String(""),
				Status: "PENDING",
			},
		}
	}
	return out, m.ChangeResourceRecordSetsError
}

func newMockProvider(client Route53Client) *route53Provider {
	return &route53Provider{
		zoneID: "Z2FDTNDATAQYW2",
		client: client,
		logger: zap.NewNop(),
	}
}

func TestListRecords(t *testing.T) {
	mockClient := &mockRoute53Client{
		ListResourceRecordSetsOutput: &route53.ListResourceRecordSetsOutput{
			ResourceRecordSets: []types.ResourceRecordSet{
				{
					Name: aws.String("home.example.com."),
					Type: types.RRTypeA,
					TTL:  aws.Int64(60),
					ResourceRecords: []types.ResourceRecord{
						{Value: aws.String("192.0.2.1")},
					},
				},
				{
					Name: aws.String("example.com."),
					Type: types.RRTypeAaaa,
					TTL:  aws.Int64(300),
					ResourceRecords: []types.ResourceRecord{
						{Value: aws.String("2001:db8::1")},
					},
				},
				{
					Name: aws.String("example.com."),
					Type: types.RRTypeNs,
					TTL:  aws.Int64(172800),
					ResourceRecords: []types.ResourceRecord{
						{Value: aws.String("ns-01.awsdns-01.com")},
					},
				},
			},
		},
	}
	p := newMockProvider(mockClient)

	records, err := p.ListRecords(context.Background(), "example.com")
	require.NoError(t, err)

	assert.Len(t, mockClient.GetHostedZoneCalls, 1)
	expected := []provider.Record{
		{ID: "A/home", Type: "A", Name: "home", Data: "192.0.2.1", TTL: 60},
		{ID: "AAAA/@", Type: "AAAA", Name: "@", Data: "2001:db8::1", TTL: 300},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Errorf("ListRecords mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateRecord(t *testing.T) {
	mockClient := &mockRoute53Client{}
	p := newMockProvider(mockClient)

	record, err := p.CreateRecord(context.Background(), "example.com", "A", "home", "192.0.2.1", 60)
	require.NoError(t, err)
	assert.Equal(t, provider.Record{ID: "A/home", Type: "A", Name: "home", Data: "192.0.2.1", TTL: 60}, record)

	require.Len(t, mockClient.ChangeResourceRecordSetsCalls, 1)
	changes := mockClient.ChangeResourceRecordSetsCalls[0].ChangeBatch.Changes
	require.Len(t, changes, 1)
	assert.Equal(t, types.ChangeActionUpsert, changes[0].Action)
	assert.Equal(t, "home.example.com.", aws.ToString(changes[0].ResourceRecordSet.Name))
	assert.Equal(t, types.RRTypeA, changes[0].ResourceRecordSet.Type)
	assert.Equal(t, int64(60), aws.ToInt64(changes[0].ResourceRecordSet.TTL))
}

func TestCreateRecordApex(t *testing.T) {
	mockClient := &mockRoute53Client{}
	p := newMockProvider(mockClient)

	_, err := p.CreateRecord(context.Background(), "example.com", "AAAA", "@", "2001:db8::1", 60)
	require.NoError(t, err)

	require.Len(t, mockClient.ChangeResourceRecordSetsCalls, 1)
	changes := mockClient.ChangeResourceRecordSetsCalls[0].ChangeBatch.Changes
	require.Len(t, changes, 1)
	assert.Equal(t, "example.com.", aws.ToString(changes[0].ResourceRecordSet.Name))
}

func TestUpdateRecord(t *testing.T) {
	mockClient := &mockRoute53Client{}
	p := newMockProvider(mockClient)

	record, err := p.UpdateRecord(context.Background(), "example.com", "A/home", "198.51.100.7", 120)
	require.NoError(t, err)
	assert.Equal(t, provider.Record{ID: "A/home", Type: "A", Name: "home", Data: "198.51.100.7", TTL: 120}, record)

	require.Len(t, mockClient.ChangeResourceRecordSetsCalls, 1)
	changes := mockClient.ChangeResourceRecordSetsCalls[0].ChangeBatch.Changes
	require.Len(t, changes, 1)
	assert.Equal(t, "198.51.100.7", aws.ToString(changes[0].ResourceRecordSet.ResourceRecords[0].Value))
}

func TestUpdateRecordMalformedID(t *testing.T) {
	p := newMockProvider(&mockRoute53Client{})

	_, err := p.UpdateRecord(context.Background(), "example.com", "bogus", "198.51.100.7", 120)
	require.Error(t, err)
	var apiErr *provider.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, provider.KindNotFound, apiErr.Kind)
}

type fakeSmithyError struct {
	code string
}

func (e *fakeSmithyError) Error() string                 { return e.code }
func (e *fakeSmithyError) ErrorCode() string             { return e.code }
func (e *fakeSmithyError) ErrorMessage() string          { return e.code }
func (e *fakeSmithyError) ErrorFault() smithy.ErrorFault { return smithy.FaultUnknown }

func TestClassify(t *testing.T) {
	tests := map[string]struct {
		err    error
		expect provider.ErrorKind
	}{
		"accessDenied": {err: &fakeSmithyError{code: "AccessDenied"}, expect: provider.KindAuth},
		"throttling":   {err: &fakeSmithyError{code: "Throttling"}, expect: provider.KindRateLimited},
		"noSuchZone":   {err: &fakeSmithyError{code: "NoSuchHostedZone"}, expect: provider.KindNotFound},
		"internal":     {err: &fakeSmithyError{code: "InternalError"}, expect: provider.KindServerError},
		"plain":        {err: errors.New("connection reset"), expect: provider.KindTransport},
	}
	for n, tc := range tests {
		tc := tc
		t.Run(n, func(t *testing.T) {
			err := classify(tc.err)
			var apiErr *provider.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tc.expect, apiErr.Kind)
		})
	}
}
