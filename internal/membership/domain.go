// internal/membership/domain.go
package membership

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Member is a snapshot of a member record as held by the record store.
type Member struct {
	MemberID           string     `json:"memberId"`
	HomeLocationID     string     `json:"homeLocationId"`
	Email              string     `json:"email"`
	MobileNumber       string     `json:"mobileNumber"`
	Surname            string     `json:"surname"`
	GivenName          string     `json:"givenName"`
	DOB                string     `json:"dob"`
	Gender             *string    `json:"gender"`
	JoinedDateTime     *time.Time `json:"joinedDateTime"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
	Country            *string    `json:"country"`
	PostCode           *PostCode  `json:"postCode"`
	State              *string    `json:"state"`
	Suburb             *string    `json:"suburb"`
	IsBlocked          bool       `json:"isBlocked"`
	OutstandingBalance float64    `json:"outstandingBalance"`
}

// Contract is a membership agreement owned by exactly one member.
type Contract struct {
	ID             string     `json:"id"`
	MemberID       string     `json:"memberId"`
	MembershipName *string    `json:"membershipName"`
	Recurring      bool       `json:"recurring"`
	MembershipID   string     `json:"membershipId"`
	Description    *string    `json:"description,omitempty"`
	CostPrice      float64    `json:"costPrice"`
	CreatedAt      time.Time  `json:"createdAt"`
	StartDateTime  time.Time  `json:"startDateTime"`
	ExpiryDateTime *time.Time `json:"expiryDateTime"`

	// EndDateTime only exists on stored contracts and is not forwarded.
	EndDateTime *time.Time `json:"-"`
}

// Suspension is a temporary hold on a contract.
type Suspension struct {
	ID                      string     `json:"id"`
	MemberContractID        string     `json:"memberContractId"`
	MemberID                *string    `json:"memberId"`
	SuspensionStartDateTime time.Time  `json:"suspensionStartDateTime"`
	SuspensionEndDateTime   *time.Time `json:"suspensionEndDateTime"`
	CancelledDateTime       *time.Time `json:"cancelledDateTime"`
}

// ActiveAt reports whether the suspension holds the contract at t.
func (s Suspension) ActiveAt(t time.Time) bool {
	if !s.SuspensionStartDateTime.Before(t) {
		return false
	}
	if s.SuspensionEndDateTime != nil && !s.SuspensionEndDateTime.After(t) {
		return false
	}
	return s.CancelledDateTime == nil
}

// Prospect is a lead captured from an external funnel.
type Prospect struct {
	ID             string    `json:"id"`
	Address        *string   `json:"address"`
	GivenName      string    `json:"givenName"`
	Surname        string    `json:"surname"`
	MobileNumber   string    `json:"mobileNumber"`
	PostCode       PostCode  `json:"postCode"`
	DOB            string    `json:"dob"`
	Country        *string   `json:"country"`
	Email          string    `json:"email"`
	Gender         string    `json:"gender"`
	MemberID       string    `json:"memberId"`
	LocationID     *string   `json:"locationId"`
	MembershipID   *string   `json:"membershipId"`
	MembershipName *string   `json:"membershipName"`
	State          *string   `json:"state"`
	Suburb         *string   `json:"suburb"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PostCode holds a post code that the store may keep as either a string or a number.
type PostCode struct {
	value   string
	numeric bool
}

// PostCodeFromString returns a textual post code.
func PostCodeFromString(s string) PostCode {
	return PostCode{value: s}
}

// PostCodeFromNumber returns a numeric post code.
func PostCodeFromNumber(n float64) PostCode {
	return PostCode{value: strconv.FormatFloat(n, 'f', -1, 64), numeric: true}
}

func (p PostCode) String() string { return p.value }

// IsZero reports whether no post code was set.
func (p PostCode) IsZero() bool { return p.value == "" }

// MarshalJSON keeps the stored representation.
func (p PostCode) MarshalJSON() ([]byte, error) {
	if p.numeric {
		return []byte(p.value), nil
	}
	return json.Marshal(p.value)
}

// UnmarshalJSON accepts a JSON string or number.
func (p *PostCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PostCodeFromString(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("post code must be a string or a number: %w", err)
	}
	*p = PostCodeFromNumber(n)
	return nil
}

// Message is the inbound event carried by a queue record.
type Message struct {
	MemberID     string    `json:"memberId"`
	EventType    EventType `json:"eventType"`
	ContractID   *string   `json:"contractId,omitempty"`
	ProspectID   *string   `json:"prospectId,omitempty"`
	MembershipID *string   `json:"membershipId,omitempty"`
	LocationID   *string   `json:"locationId,omitempty"`
	BrandID      *string   `json:"brandId,omitempty"`
}

// Source identifies the queue entry a message was received from.
type Source struct {
	QueueARN      string
	ReceiptHandle string
}
