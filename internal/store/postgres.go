package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"memberrelay/internal/membership"
)

// PostgresStore reads records from PostgreSQL tables. Columns are the
// snake_case forms of the stored attribute names.
type PostgresStore struct {
	db     *sql.DB
	tables Tables
	tracer trace.Tracer
	now    func() time.Time
}

// NewPostgresStore creates a store over db. Table names are trusted
// configuration and are interpolated into the queries.
func NewPostgresStore(db *sql.DB, tables Tables) *PostgresStore {
	return &PostgresStore{
		db:     db,
		tables: tables,
		tracer: otel.Tracer("memberrelay/store"),
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// GetMember fetches a member by id.
func (s *PostgresStore) GetMember(ctx context.Context, memberID string) (*membership.Member, error) {
	ctx, span := s.tracer.Start(ctx, "store.get_member", trace.WithAttributes(attribute.String("member.id", memberID)))
	defer span.End()

	query := fmt.Sprintf(`
		SELECT member_id, home_location_id, email, mobile_number, surname, given_name, dob, gender,
		       joined_date_time, created_at, updated_at, country, post_code, state, suburb,
		       is_blocked, outstanding_balance
		FROM %s
		WHERE member_id = $1
	`, s.tables.Member)

	var (
		m         membership.Member
		gender    sql.NullString
		joined    sql.NullTime
		country   sql.NullString
		postCode  sql.NullString
		state     sql.NullString
		suburb    sql.NullString
		isBlocked sql.NullBool
		balance   sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, query, memberID).Scan(
		&m.MemberID,
		&m.HomeLocationID,
		&m.Email,
		&m.MobileNumber,
		&m.Surname,
		&m.GivenName,
		&m.DOB,
		&gender,
		&joined,
		&m.CreatedAt,
		&m.UpdatedAt,
		&country,
		&postCode,
		&state,
		&suburb,
		&isBlocked,
		&balance,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, memberError(memberID, fmt.Errorf("member with memberId %s: %w", memberID, membership.ErrNotFound))
	}
	if err != nil {
		return nil, memberError(memberID, err)
	}

	m.Gender = nullString(gender)
	m.JoinedDateTime = nullTime(joined)
	m.Country = nullString(country)
	m.State = nullString(state)
	m.Suburb = nullString(suburb)
	if postCode.Valid {
		pc := membership.PostCodeFromString(postCode.String)
		m.PostCode = &pc
	}
	m.IsBlocked = isBlocked.Valid && isBlocked.Bool
	if balance.Valid {
		m.OutstandingBalance = balance.Float64
	}

	if _, err := membership.ValidRecord(m); err != nil {
		return nil, memberError(memberID, err)
	}
	return &m, nil
}

// GetContracts fetches every contract of a member.
func (s *PostgresStore) GetContracts(ctx context.Context, memberID string) ([]membership.Contract, error) {
	ctx, span := s.tracer.Start(ctx, "store.get_contracts", trace.WithAttributes(attribute.String("member.id", memberID)))
	defer span.End()

	query := fmt.Sprintf(`
		SELECT id, member_id, membership_name, recurring, membership_id, description, cost_price,
		       created_at, start_date_time, expiry_date_time, end_date_time
		FROM %s
		WHERE member_id = $1
		ORDER BY created_at ASC
	`, s.tables.Contract)

	rows, err := s.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, contractsError(memberID, err)
	}
	defer rows.Close()

	contracts := []membership.Contract{}
	for rows.Next() {
		var (
			c           membership.Contract
			name        sql.NullString
			description sql.NullString
			expiry      sql.NullTime
			end         sql.NullTime
		)
		err := rows.Scan(
			&c.ID,
			&c.MemberID,
			&name,
			&c.Recurring,
			&c.MembershipID,
			&description,
			&c.CostPrice,
			&c.CreatedAt,
			&c.StartDateTime,
			&expiry,
			&end,
		)
		if err != nil {
			return nil, contractsError(memberID, fmt.Errorf("scan contract: %w", err))
		}
		c.MembershipName = nullString(name)
		c.Description = nullString(description)
		c.ExpiryDateTime = nullTime(expiry)
		c.EndDateTime = nullTime(end)
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, contractsError(memberID, fmt.Errorf("iterate contracts: %w", err))
	}

	if _, err := validAll(contracts); err != nil {
		return nil, contractsError(memberID, err)
	}
	span.SetAttributes(attribute.Int("contracts.loaded", len(contracts)))
	return contracts, nil
}

// GetActiveSuspensions fetches the suspensions holding a contract right now.
func (s *PostgresStore) GetActiveSuspensions(ctx context.Context, contractID string) ([]membership.Suspension, error) {
	ctx, span := s.tracer.Start(ctx, "store.get_active_suspensions", trace.WithAttributes(attribute.String("contract.id", contractID)))
	defer span.End()

	query := fmt.Sprintf(`
		SELECT id, member_contract_id, member_id, suspension_start_date_time,
		       suspension_end_date_time, cancelled_date_time
		FROM %s
		WHERE member_contract_id = $1
		AND suspension_start_date_time < $2
		AND (suspension_end_date_time IS NULL OR suspension_end_date_time > $2)
		AND cancelled_date_time IS NULL
		ORDER BY suspension_start_date_time ASC
	`, s.tables.Suspension)

	rows, err := s.db.QueryContext(ctx, query, contractID, s.now())
	if err != nil {
		return nil, suspensionsError(contractID, err)
	}
	defer rows.Close()

	suspensions := []membership.Suspension{}
	for rows.Next() {
		var (
			susp      membership.Suspension
			memberID  sql.NullString
			end       sql.NullTime
			cancelled sql.NullTime
		)
		err := rows.Scan(
			&susp.ID,
			&susp.MemberContractID,
			&memberID,
			&susp.SuspensionStartDateTime,
			&end,
			&cancelled,
		)
		if err != nil {
			return nil, suspensionsError(contractID, fmt.Errorf("scan suspension: %w", err))
		}
		susp.MemberID = nullString(memberID)
		susp.SuspensionEndDateTime = nullTime(end)
		susp.CancelledDateTime = nullTime(cancelled)
		suspensions = append(suspensions, susp)
	}
	if err := rows.Err(); err != nil {
		return nil, suspensionsError(contractID, fmt.Errorf("iterate suspensions: %w", err))
	}

	if _, err := validAll(suspensions); err != nil {
		return nil, suspensionsError(contractID, err)
	}
	return suspensions, nil
}

// GetProspect fetches a prospect by id.
func (s *PostgresStore) GetProspect(ctx context.Context, prospectID string) (*membership.Prospect, error) {
	ctx, span := s.tracer.Start(ctx, "store.get_prospect", trace.WithAttributes(attribute.String("prospect.id", prospectID)))
	defer span.End()

	query := fmt.Sprintf(`
		SELECT id, address, given_name, surname, mobile_number, post_code, dob, country, email,
		       gender, member_id, location_id, membership_id, membership_name, state, suburb, created_at
		FROM %s
		WHERE id = $1
	`, s.tables.Prospect)

	var (
		p              membership.Prospect
		address        sql.NullString
		postCode       string
		country        sql.NullString
		locationID     sql.NullString
		membershipID   sql.NullString
		membershipName sql.NullString
		state          sql.NullString
		suburb         sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, prospectID).Scan(
		&p.ID,
		&address,
		&p.GivenName,
		&p.Surname,
		&p.MobileNumber,
		&postCode,
		&p.DOB,
		&country,
		&p.Email,
		&p.Gender,
		&p.MemberID,
		&locationID,
		&membershipID,
		&membershipName,
		&state,
		&suburb,
		&p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, prospectError(prospectID, fmt.Errorf("prospect with id %s: %w", prospectID, membership.ErrNotFound))
	}
	if err != nil {
		return nil, prospectError(prospectID, err)
	}

	p.Address = nullString(address)
	p.PostCode = membership.PostCodeFromString(postCode)
	p.Country = nullString(country)
	p.LocationID = nullString(locationID)
	p.MembershipID = nullString(membershipID)
	p.MembershipName = nullString(membershipName)
	p.State = nullString(state)
	p.Suburb = nullString(suburb)

	if _, err := membership.ValidRecord(p); err != nil {
		return nil, prospectError(prospectID, err)
	}
	return &p, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
