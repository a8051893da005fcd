package salesforce

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockClient implements Client for testing.
type mockClient struct {
	queryFn func(ctx context.Context, soql string, out any) error
	queries []string
}

func (m *mockClient) Query(ctx context.Context, soql string, out any) error {
	m.queries = append(m.queries, soql)
	if m.queryFn != nil {
		return m.queryFn(ctx, soql, out)
	}
	return nil
}

func TestNewClient_ImplementsInterface(t *testing.T) {
	var _ Client = (*sfClient)(nil)
	require.NotNil(t, NewClient(nil))
}

func TestWithRateLimit(t *testing.T) {
	t.Run("sets limiter", func(t *testing.T) {
		c := NewClient(nil, WithRateLimit(10)).(*sfClient)
		require.NotNil(t, c.limiter)
		assert.Equal(t, rate.Limit(10), c.limiter.Limit())
		assert.Equal(t, 10, c.limiter.Burst())
	})

	t.Run("zero rate skips limiter", func(t *testing.T) {
		c := NewClient(nil, WithRateLimit(0)).(*sfClient)
		assert.Nil(t, c.limiter)
	})

	t.Run("fractional rate gets burst of 1", func(t *testing.T) {
		c := NewClient(nil, WithRateLimit(0.5)).(*sfClient)
		require.NotNil(t, c.limiter)
		assert.Equal(t, 1, c.limiter.Burst())
	})
}

func TestRateLimiter_CancelledContext(t *testing.T) {
	c := &sfClient{limiter: rate.NewLimiter(rate.Every(time.Hour), 0)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Query(ctx, "SELECT Id FROM Account", &[]Account{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: rate limit")
}

func TestConnect_RequiresCredentials(t *testing.T) {
	_, err := Connect(Creds{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client id is required")

	_, err = Connect(Creds{ClientID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "private key is required")
}

func TestQueryFunctions_SOQL(t *testing.T) {
	m := &mockClient{}
	ctx := context.Background()

	_, err := QueryAccounts(ctx, m)
	require.NoError(t, err)
	_, err = QueryContacts(ctx, m)
	require.NoError(t, err)
	_, err = QueryOpportunities(ctx, m)
	require.NoError(t, err)
	_, err = QueryContactRoles(ctx, m)
	require.NoError(t, err)
	_, err = QueryContactTasks(ctx, m)
	require.NoError(t, err)
	_, err = QueryCampaignMembers(ctx, m)
	require.NoError(t, err)

	require.Len(t, m.queries, 6)
	assert.Equal(t, "SELECT Id, Name, Website, Industry, Sic, SicDesc, BillingState, NumberOfEmployees, AnnualRevenue FROM Account ORDER BY CreatedDate, Id", m.queries[0])
	assert.Contains(t, m.queries[1], "FROM Contact ORDER BY")
	assert.Contains(t, m.queries[2], "StageName")
	assert.Contains(t, m.queries[3], "FROM OpportunityContactRole")
	assert.Contains(t, m.queries[4], "FROM Task WHERE Who.Type = 'Contact'")
	assert.Contains(t, m.queries[5], "Campaign.Name, Campaign.Type FROM CampaignMember WHERE ContactId != null")
}

func TestQueryOpportunities_Decodes(t *testing.T) {
	m := &mockClient{queryFn: func(_ context.Context, _ string, out any) error {
		opps := out.(*[]Opportunity)
		*opps = []Opportunity{{ID: "006A", Name: "A1-Renewal-2024", AccountID: "001A"}}
		return nil
	}}

	opps, err := QueryOpportunities(context.Background(), m)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "A1-Renewal-2024", opps[0].Name)
}

func TestQueryFunctions_WrapErrors(t *testing.T) {
	m := &mockClient{queryFn: func(context.Context, string, any) error {
		return errors.New("INVALID_SESSION_ID")
	}}

	_, err := QueryCampaignMembers(context.Background(), m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sf: query campaign members")
	assert.Contains(t, err.Error(), "INVALID_SESSION_ID")
}
