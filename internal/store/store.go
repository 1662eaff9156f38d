// Package store provides the record accessors the message processor reads
// member, contract, suspension and prospect state through.
package store

import (
	"fmt"

	"memberrelay/internal/membership"
)

// Tables names the tables each record kind lives in.
type Tables struct {
	Member     string
	Contract   string
	Suspension string
	Prospect   string
}

var (
	_ membership.Records = (*DynamoStore)(nil)
	_ membership.Records = (*PostgresStore)(nil)
)

func memberError(memberID string, err error) error {
	return fmt.Errorf("error retrieving member with memberId %s: %w", memberID, err)
}

func contractsError(memberID string, err error) error {
	return fmt.Errorf("error retrieving contracts for memberId %s: %w", memberID, err)
}

func suspensionsError(contractID string, err error) error {
	return fmt.Errorf("error retrieving active suspensions for contractId %s: %w", contractID, err)
}

func prospectError(prospectID string, err error) error {
	return fmt.Errorf("error retrieving prospect with prospectId %s: %w", prospectID, err)
}

// validAll validates each record, stopping at the first invalid one.
func validAll[T interface{ Validate() error }](records []T) ([]T, error) {
	for i, r := range records {
		if _, err := membership.ValidRecord(r); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}
