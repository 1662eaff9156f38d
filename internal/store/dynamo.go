package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"memberrelay/internal/membership"
)

const (
	memberProjection = "memberId, homeLocationId, email, mobileNumber, surname, givenName, dob, gender, " +
		"joinedDateTime, createdAt, updatedAt, country, postCode, #s, suburb, isBlocked, outstandingBalance"
	contractProjection = "id, memberId, membershipName, recurring, membershipId, description, costPrice, " +
		"createdAt, startDateTime, endDateTime, expiryDateTime"
	suspensionProjection = "id, memberContractId, memberId, suspensionStartDateTime, suspensionEndDateTime, cancelledDateTime"
	prospectProjection   = "id, address, givenName, surname, mobileNumber, postCode, dob, country, email, gender, " +
		"memberId, locationId, membershipId, membershipName, #s, suburb, createdAt"

	contractsByMemberIndex     = "byMemberId"
	suspensionsByContractIndex = "byMemberContractId"
	activeSuspensionFilter     = "suspensionStartDateTime < :now AND (attribute_not_exists(suspensionEndDateTime) OR suspensionEndDateTime > :now OR suspensionEndDateTime = :null) AND (attribute_not_exists(cancelledDateTime) OR cancelledDateTime = :null)"
)

// DynamoAPI is the part of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// DynamoStore reads records from DynamoDB tables.
type DynamoStore struct {
	api    DynamoAPI
	tables Tables
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewDynamoStore creates a store over the given tables.
func NewDynamoStore(api DynamoAPI, tables Tables, logger *zap.Logger) *DynamoStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DynamoStore{
		api:    api,
		tables: tables,
		logger: logger,
		tracer: otel.Tracer("memberrelay/store"),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// GetMember fetches a member by id.
func (s *DynamoStore) GetMember(ctx context.Context, memberID string) (*membership.Member, error) {
	ctx, span := s.tracer.Start(ctx, "store.get_member", trace.WithAttributes(attribute.String("member.id", memberID)))
	defer span.End()

	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.tables.Member),
		Key:                      map[string]types.AttributeValue{"memberId": &types.AttributeValueMemberS{Value: memberID}},
		ProjectionExpression:     aws.String(memberProjection),
		ExpressionAttributeNames: map[string]string{"#s": "state"},
	})
	if err != nil {
		return nil, memberError(memberID, err)
	}
	if len(out.Item) == 0 {
		return nil, memberError(memberID, fmt.Errorf("member with memberId %s: %w", memberID, membership.ErrNotFound))
	}

	var item memberItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, memberError(memberID, err)
	}
	member, err := item.toMember()
	if err != nil {
		return nil, memberError(memberID, err)
	}
	if _, err := membership.ValidRecord(member); err != nil {
		return nil, memberError(memberID, err)
	}

	s.logger.Debug("retrieved member", zap.String("memberId", memberID))
	return &member, nil
}

// GetContracts fetches every contract of a member.
func (s *DynamoStore) GetContracts(ctx context.Context, memberID string) ([]membership.Contract, error) {
	ctx, span := s.tracer.Start(ctx, "store.get_contracts", trace.WithAttributes(attribute.String("member.id", memberID)))
	defer span.End()

	var items []contractItem
	err := s.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Contract),
		IndexName:              aws.String(contractsByMemberIndex),
		KeyConditionExpression: aws.String("memberId = :memberId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":memberId": &types.AttributeValueMemberS{Value: memberID},
		},
		ProjectionExpression: aws.String(contractProjection),
	}, func(page []map[string]types.AttributeValue) error {
		var batch []contractItem
		if err := attributevalue.UnmarshalListOfMaps(page, &batch); err != nil {
			return err
		}
		items = append(items, batch...)
		return nil
	})
	if err != nil {
		return nil, contractsError(memberID, err)
	}

	contracts := make([]membership.Contract, 0, len(items))
	for _, item := range items {
		contracts = append(contracts, item.toContract())
	}
	if _, err := validAll(contracts); err != nil {
		return nil, contractsError(memberID, err)
	}

	span.SetAttributes(attribute.Int("contracts.loaded", len(contracts)))
	s.logger.Debug("retrieved contracts", zap.String("memberId", memberID), zap.Int("count", len(contracts)))
	return contracts, nil
}

// GetActiveSuspensions fetches the suspensions holding a contract right now.
func (s *DynamoStore) GetActiveSuspensions(ctx context.Context, contractID string) ([]membership.Suspension, error) {
	ctx, span := s.tracer.Start(ctx, "store.get_active_suspensions", trace.WithAttributes(attribute.String("contract.id", contractID)))
	defer span.End()

	now := s.now()
	var items []suspensionItem
	err := s.query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tables.Suspension),
		IndexName:              aws.String(suspensionsByContractIndex),
		KeyConditionExpression: aws.String("memberContractId = :contractId"),
		FilterExpression:       aws.String(activeSuspensionFilter),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":contractId": &types.AttributeValueMemberS{Value: contractID},
			":now":        &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
			":null":       &types.AttributeValueMemberNULL{Value: true},
		},
		ProjectionExpression: aws.String(suspensionProjection),
	}, func(page []map[string]types.AttributeValue) error {
		var batch []suspensionItem
		if err := attributevalue.UnmarshalListOfMaps(page, &batch); err != nil {
			return err
		}
		items = append(items, batch...)
		return nil
	})
	if err != nil {
		return nil, suspensionsError(contractID, err)
	}

	suspensions := make([]membership.Suspension, 0, len(items))
	for _, item := range items {
		suspensions = append(suspensions, item.toSuspension())
	}
	if _, err := validAll(suspensions); err != nil {
		return nil, suspensionsError(contractID, err)
	}

	// The filter compares timestamps as strings; re-check on parsed times.
	active := suspensions[:0]
	for _, susp := range suspensions {
		if susp.ActiveAt(now) {
			active = append(active, susp)
		}
	}

	s.logger.Debug("retrieved active suspensions", zap.String("contractId", contractID), zap.Int("count", len(active)))
	return active, nil
}

// GetProspect fetches a prospect by id.
func (s *DynamoStore) GetProspect(ctx context.Context, prospectID string) (*membership.Prospect, error) {
	ctx, span := s.tracer.Start(ctx, "store.get_prospect", trace.WithAttributes(attribute.String("prospect.id", prospectID)))
	defer span.End()

	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.tables.Prospect),
		Key:                      map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: prospectID}},
		ProjectionExpression:     aws.String(prospectProjection),
		ExpressionAttributeNames: map[string]string{"#s": "state"},
	})
	if err != nil {
		return nil, prospectError(prospectID, err)
	}
	if len(out.Item) == 0 {
		return nil, prospectError(prospectID, fmt.Errorf("prospect with id %s: %w", prospectID, membership.ErrNotFound))
	}

	var item prospectItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, prospectError(prospectID, err)
	}
	prospect, err := item.toProspect()
	if err != nil {
		return nil, prospectError(prospectID, err)
	}
	if _, err := membership.ValidRecord(prospect); err != nil {
		return nil, prospectError(prospectID, err)
	}

	s.logger.Debug("retrieved prospect", zap.String("prospectId", prospectID))
	return &prospect, nil
}

func (s *DynamoStore) query(ctx context.Context, input *dynamodb.QueryInput, page func([]map[string]types.AttributeValue) error) error {
	paginator := dynamodb.NewQueryPaginator(s.api, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		if err := page(out.Items); err != nil {
			return err
		}
	}
	return nil
}

type memberItem struct {
	MemberID           string     `dynamodbav:"memberId"`
	HomeLocationID     string     `dynamodbav:"homeLocationId"`
	Email              string     `dynamodbav:"email"`
	MobileNumber       string     `dynamodbav:"mobileNumber"`
	Surname            string     `dynamodbav:"surname"`
	GivenName          string     `dynamodbav:"givenName"`
	DOB                string     `dynamodbav:"dob"`
	Gender             *string    `dynamodbav:"gender"`
	JoinedDateTime     *time.Time `dynamodbav:"joinedDateTime"`
	CreatedAt          time.Time  `dynamodbav:"createdAt"`
	UpdatedAt          time.Time  `dynamodbav:"updatedAt"`
	Country            *string    `dynamodbav:"country"`
	PostCode           any        `dynamodbav:"postCode"`
	State              *string    `dynamodbav:"state"`
	Suburb             *string    `dynamodbav:"suburb"`
	IsBlocked          *bool      `dynamodbav:"isBlocked"`
	OutstandingBalance *float64   `dynamodbav:"outstandingBalance"`
}

func (i memberItem) toMember() (membership.Member, error) {
	postCode, err := postCodeFrom(i.PostCode)
	if err != nil {
		return membership.Member{}, err
	}
	m := membership.Member{
		MemberID:       i.MemberID,
		HomeLocationID: i.HomeLocationID,
		Email:          i.Email,
		MobileNumber:   i.MobileNumber,
		Surname:        i.Surname,
		GivenName:      i.GivenName,
		DOB:            i.DOB,
		Gender:         i.Gender,
		JoinedDateTime: i.JoinedDateTime,
		CreatedAt:      i.CreatedAt,
		UpdatedAt:      i.UpdatedAt,
		Country:        i.Country,
		PostCode:       postCode,
		State:          i.State,
		Suburb:         i.Suburb,
	}
	if i.IsBlocked != nil {
		m.IsBlocked = *i.IsBlocked
	}
	if i.OutstandingBalance != nil {
		m.OutstandingBalance = *i.OutstandingBalance
	}
	return m, nil
}

type contractItem struct {
	ID             string     `dynamodbav:"id"`
	MemberID       string     `dynamodbav:"memberId"`
	MembershipName *string    `dynamodbav:"membershipName"`
	Recurring      bool       `dynamodbav:"recurring"`
	MembershipID   string     `dynamodbav:"membershipId"`
	Description    *string    `dynamodbav:"description"`
	CostPrice      float64    `dynamodbav:"costPrice"`
	CreatedAt      time.Time  `dynamodbav:"createdAt"`
	StartDateTime  time.Time  `dynamodbav:"startDateTime"`
	ExpiryDateTime *time.Time `dynamodbav:"expiryDateTime"`
	EndDateTime    *time.Time `dynamodbav:"endDateTime"`
}

func (i contractItem) toContract() membership.Contract {
	return membership.Contract{
		ID:             i.ID,
		MemberID:       i.MemberID,
		MembershipName: i.MembershipName,
		Recurring:      i.Recurring,
		MembershipID:   i.MembershipID,
		Description:    i.Description,
		CostPrice:      i.CostPrice,
		CreatedAt:      i.CreatedAt,
		StartDateTime:  i.StartDateTime,
		ExpiryDateTime: i.ExpiryDateTime,
		EndDateTime:    i.EndDateTime,
	}
}

type suspensionItem struct {
	ID                      string     `dynamodbav:"id"`
	MemberContractID        string     `dynamodbav:"memberContractId"`
	MemberID                *string    `dynamodbav:"memberId"`
	SuspensionStartDateTime time.Time  `dynamodbav:"suspensionStartDateTime"`
	SuspensionEndDateTime   *time.Time `dynamodbav:"suspensionEndDateTime"`
	CancelledDateTime       *time.Time `dynamodbav:"cancelledDateTime"`
}

func (i suspensionItem) toSuspension() membership.Suspension {
	return membership.Suspension{
		ID:                      i.ID,
		MemberContractID:        i.MemberContractID,
		MemberID:                i.MemberID,
		SuspensionStartDateTime: i.SuspensionStartDateTime,
		SuspensionEndDateTime:   i.SuspensionEndDateTime,
		CancelledDateTime:       i.CancelledDateTime,
	}
}

type prospectItem struct {
	ID             string    `dynamodbav:"id"`
	Address        *string   `dynamodbav:"address"`
	GivenName      string    `dynamodbav:"givenName"`
	Surname        string    `dynamodbav:"surname"`
	MobileNumber   string    `dynamodbav:"mobileNumber"`
	PostCode       any       `dynamodbav:"postCode"`
	DOB            string    `dynamodbav:"dob"`
	Country        *string   `dynamodbav:"country"`
	Email          string    `dynamodbav:"email"`
	Gender         string    `dynamodbav:"gender"`
	MemberID       string    `dynamodbav:"memberId"`
	LocationID     *string   `dynamodbav:"locationId"`
	MembershipID   *string   `dynamodbav:"membershipId"`
	MembershipName *string   `dynamodbav:"membershipName"`
	State          *string   `dynamodbav:"state"`
	Suburb         *string   `dynamodbav:"suburb"`
	CreatedAt      time.Time `dynamodbav:"createdAt"`
}

func (i prospectItem) toProspect() (membership.Prospect, error) {
	postCode, err := postCodeFrom(i.PostCode)
	if err != nil {
		return membership.Prospect{}, err
	}
	p := membership.Prospect{
		ID:             i.ID,
		Address:        i.Address,
		GivenName:      i.GivenName,
		Surname:        i.Surname,
		MobileNumber:   i.MobileNumber,
		DOB:            i.DOB,
		Country:        i.Country,
		Email:          i.Email,
		Gender:         i.Gender,
		MemberID:       i.MemberID,
		LocationID:     i.LocationID,
		MembershipID:   i.MembershipID,
		MembershipName: i.MembershipName,
		State:          i.State,
		Suburb:         i.Suburb,
		CreatedAt:      i.CreatedAt,
	}
	if postCode != nil {
		p.PostCode = *postCode
	}
	return p, nil
}

// postCodeFrom accepts the string or number a post code attribute decodes to.
func postCodeFrom(v any) (*membership.PostCode, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		pc := membership.PostCodeFromString(t)
		return &pc, nil
	case float64:
		pc := membership.PostCodeFromNumber(t)
		return &pc, nil
	case attributevalue.Number:
		n, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: post code: %v", membership.ErrInvalidRecord, err)
		}
		pc := membership.PostCodeFromNumber(n)
		return &pc, nil
	default:
		return nil, fmt.Errorf("%w: post code has type %T", membership.ErrInvalidRecord, v)
	}
}
