package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"memberrelay/internal/membership"
)

var testTables = Tables{
	Member:     "members",
	Contract:   "contracts",
	Suspension: "suspensions",
	Prospect:   "prospects",
}

// fakeDynamo serves GetItem from items keyed by table and returns query
// results one page at a time.
type fakeDynamo struct {
	items   map[string]map[string]types.AttributeValue
	pages   [][]map[string]types.AttributeValue
	err     error
	queries []*dynamodb.QueryInput
}

func (f *fakeDynamo) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[aws.ToString(params.TableName)]}, nil
}

func (f *fakeDynamo) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, params)

	page := len(f.queries) - 1
	if page >= len(f.pages) {
		return &dynamodb.QueryOutput{}, nil
	}
	out := &dynamodb.QueryOutput{Items: f.pages[page]}
	if page < len(f.pages)-1 {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"id": str(f.pages[page][0]["id"].(*types.AttributeValueMemberS).Value)}
	}
	return out, nil
}

func str(v string) types.AttributeValue   { return &types.AttributeValueMemberS{Value: v} }
func num(v string) types.AttributeValue   { return &types.AttributeValueMemberN{Value: v} }
func boolean(v bool) types.AttributeValue { return &types.AttributeValueMemberBOOL{Value: v} }
func null() types.AttributeValue          { return &types.AttributeValueMemberNULL{Value: true} }

func memberAttrs() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"memberId":           str("m1"),
		"homeLocationId":     str("loc-1"),
		"email":              str("jane@example.com"),
		"mobileNumber":       str("0400000000"),
		"surname":            str("Doe"),
		"givenName":          str("Jane"),
		"dob":                str("1990-04-01"),
		"gender":             null(),
		"createdAt":          str("2024-01-01T00:00:00Z"),
		"updatedAt":          str("2024-02-01T10:30:00.000Z"),
		"postCode":           num("2000"),
		"state":              str("NSW"),
		"isBlocked":          boolean(true),
		"outstandingBalance": num("50.75"),
	}
}

func contractAttrs(id, expiry string) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"id":             str(id),
		"memberId":       str("m1"),
		"membershipId":   str("gold"),
		"membershipName": str("Gold"),
		"recurring":      boolean(true),
		"costPrice":      num("19.95"),
		"createdAt":      str("2024-01-01T00:00:00Z"),
		"startDateTime":  str("2024-01-01T00:00:00Z"),
	}
	if expiry != "" {
		item["expiryDateTime"] = str(expiry)
	}
	return item
}

func TestDynamoGetMember(t *testing.T) {
	api := &fakeDynamo{items: map[string]map[string]types.AttributeValue{"members": memberAttrs()}}
	store := NewDynamoStore(api, testTables, nil)

	m, err := store.GetMember(context.Background(), "m1")
	require.NoError(t, err)

	assert.Equal(t, "m1", m.MemberID)
	assert.Equal(t, "loc-1", m.HomeLocationID)
	assert.Nil(t, m.Gender)
	require.NotNil(t, m.PostCode)
	assert.Equal(t, "2000", m.PostCode.String())
	require.NotNil(t, m.State)
	assert.Equal(t, "NSW", *m.State)
	assert.True(t, m.IsBlocked)
	assert.Equal(t, 50.75, m.OutstandingBalance)
	assert.True(t, m.UpdatedAt.Equal(time.Date(2024, 2, 1, 10, 30, 0, 0, time.UTC)))
}

func TestDynamoGetMemberDefaults(t *testing.T) {
	attrs := memberAttrs()
	delete(attrs, "isBlocked")
	delete(attrs, "outstandingBalance")
	attrs["postCode"] = str("0800")
	api := &fakeDynamo{items: map[string]map[string]types.AttributeValue{"members": attrs}}

	m, err := NewDynamoStore(api, testTables, nil).GetMember(context.Background(), "m1")
	require.NoError(t, err)
	assert.False(t, m.IsBlocked)
	assert.Zero(t, m.OutstandingBalance)
	assert.Equal(t, "0800", m.PostCode.String())
}

func TestDynamoGetMemberNotFound(t *testing.T) {
	store := NewDynamoStore(&fakeDynamo{}, testTables, nil)

	_, err := store.GetMember(context.Background(), "ghost")
	require.ErrorIs(t, err, membership.ErrNotFound)
	assert.Contains(t, err.Error(), "error retrieving member with memberId ghost")
}

func TestDynamoGetMemberInvalid(t *testing.T) {
	attrs := memberAttrs()
	delete(attrs, "homeLocationId")
	api := &fakeDynamo{items: map[string]map[string]types.AttributeValue{"members": attrs}}

	_, err := NewDynamoStore(api, testTables, nil).GetMember(context.Background(), "m1")
	assert.ErrorIs(t, err, membership.ErrInvalidRecord)
}

func TestDynamoGetMemberStoreError(t *testing.T) {
	storeErr := errors.New("ProvisionedThroughputExceededException")
	_, err := NewDynamoStore(&fakeDynamo{err: storeErr}, testTables, nil).GetMember(context.Background(), "m1")
	assert.ErrorIs(t, err, storeErr)
}

func TestDynamoGetContracts(t *testing.T) {
	api := &fakeDynamo{pages: [][]map[string]types.AttributeValue{
		{contractAttrs("c1", "2099-01-01T00:00:00Z")},
		{contractAttrs("c2", "")},
	}}
	store := NewDynamoStore(api, testTables, nil)

	contracts, err := store.GetContracts(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	assert.Equal(t, "c1", contracts[0].ID)
	require.NotNil(t, contracts[0].ExpiryDateTime)
	assert.Equal(t, 2099, contracts[0].ExpiryDateTime.Year())
	assert.Equal(t, "c2", contracts[1].ID)
	assert.Nil(t, contracts[1].ExpiryDateTime)
	assert.Equal(t, 19.95, contracts[1].CostPrice)

	require.Len(t, api.queries, 2)
	assert.Equal(t, "byMemberId", aws.ToString(api.queries[0].IndexName))
	assert.Equal(t, "contracts", aws.ToString(api.queries[0].TableName))
}

func TestDynamoGetContractsEmpty(t *testing.T) {
	contracts, err := NewDynamoStore(&fakeDynamo{}, testTables, nil).GetContracts(context.Background(), "m1")
	require.NoError(t, err)
	assert.NotNil(t, contracts)
	assert.Empty(t, contracts)
}

func TestDynamoGetActiveSuspensions(t *testing.T) {
	suspension := func(id, start string, extra map[string]types.AttributeValue) map[string]types.AttributeValue {
		item := map[string]types.AttributeValue{
			"id":                      str(id),
			"memberContractId":        str("c1"),
			"suspensionStartDateTime": str(start),
		}
		for k, v := range extra {
			item[k] = v
		}
		return item
	}

	api := &fakeDynamo{pages: [][]map[string]types.AttributeValue{{
		suspension("s1", "2026-10-01T00:00:00Z", nil),
		suspension("s2", "2026-10-01T00:00:00Z", map[string]types.AttributeValue{"suspensionEndDateTime": str("2026-12-01T00:00:00Z")}),
		suspension("s3", "2026-10-01T00:00:00Z", map[string]types.AttributeValue{"cancelledDateTime": str("2026-10-02T00:00:00Z")}),
		suspension("s4", "2026-10-01T00:00:00Z", map[string]types.AttributeValue{"suspensionEndDateTime": str("2026-10-05T00:00:00Z")}),
	}}}
	store := NewDynamoStore(api, testTables, nil)
	store.now = func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) }

	suspensions, err := store.GetActiveSuspensions(context.Background(), "c1")
	require.NoError(t, err)

	var ids []string
	for _, susp := range suspensions {
		ids = append(ids, susp.ID)
	}
	assert.Equal(t, []string{"s1", "s2"}, ids)

	require.Len(t, api.queries, 1)
	q := api.queries[0]
	assert.Equal(t, "byMemberContractId", aws.ToString(q.IndexName))
	assert.Contains(t, aws.ToString(q.FilterExpression), "attribute_not_exists(cancelledDateTime)")
	assert.Equal(t, str("2026-10-18T00:00:00Z"), q.ExpressionAttributeValues[":now"])
}

func TestDynamoGetProspect(t *testing.T) {
	api := &fakeDynamo{items: map[string]map[string]types.AttributeValue{"prospects": {
		"id":           str("p1"),
		"givenName":    str("Sam"),
		"surname":      str("Lee"),
		"mobileNumber": str("0411111111"),
		"postCode":     num("3000"),
		"dob":          str("1995-05-05"),
		"email":        str("sam@example.com"),
		"gender":       str("X"),
		"memberId":     str("m9"),
		"locationId":   str("venue-7"),
		"createdAt":    str("2025-03-01T00:00:00Z"),
	}}}

	p, err := NewDynamoStore(api, testTables, nil).GetProspect(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "3000", p.PostCode.String())
	require.NotNil(t, p.LocationID)
	assert.Equal(t, "venue-7", *p.LocationID)
}

func TestDynamoGetProspectNotFound(t *testing.T) {
	_, err := NewDynamoStore(&fakeDynamo{}, testTables, nil).GetProspect(context.Background(), "p404")
	require.ErrorIs(t, err, membership.ErrNotFound)
	assert.Contains(t, err.Error(), "error retrieving prospect with prospectId p404")
}

func TestPostCodeFrom(t *testing.T) {
	pc, err := postCodeFrom(nil)
	require.NoError(t, err)
	assert.Nil(t, pc)

	pc, err = postCodeFrom(float64(2600))
	require.NoError(t, err)
	assert.Equal(t, "2600", pc.String())

	_, err = postCodeFrom(true)
	assert.ErrorIs(t, err, membership.ErrInvalidRecord)
}
