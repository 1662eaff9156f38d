package membership

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks the fields a stored member must carry.
func (m Member) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.MemberID, validation.Required),
		validation.Field(&m.HomeLocationID, validation.Required),
		validation.Field(&m.Email, validation.Required),
		validation.Field(&m.MobileNumber, validation.Required),
		validation.Field(&m.Surname, validation.Required),
		validation.Field(&m.GivenName, validation.Required),
		validation.Field(&m.DOB, validation.Required),
		validation.Field(&m.CreatedAt, validation.Required),
		validation.Field(&m.UpdatedAt, validation.Required),
	)
}

// Validate checks the fields a stored contract must carry.
func (c Contract) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.MemberID, validation.Required),
		validation.Field(&c.MembershipID, validation.Required),
		validation.Field(&c.CreatedAt, validation.Required),
		validation.Field(&c.StartDateTime, validation.Required),
	)
}

// Validate checks the fields a stored suspension must carry.
func (s Suspension) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.ID, validation.Required),
		validation.Field(&s.MemberContractID, validation.Required),
		validation.Field(&s.SuspensionStartDateTime, validation.Required),
	)
}

// Validate checks the fields a stored prospect must carry.
func (p Prospect) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.GivenName, validation.Required),
		validation.Field(&p.Surname, validation.Required),
		validation.Field(&p.MobileNumber, validation.Required),
		validation.Field(&p.DOB, validation.Required, validation.Date(dateLayout)),
		validation.Field(&p.Email, validation.Required),
		validation.Field(&p.Gender, validation.Required),
		validation.Field(&p.MemberID, validation.Required),
		validation.Field(&p.CreatedAt, validation.Required),
		validation.Field(&p.PostCode, validation.By(func(any) error {
			if p.PostCode.IsZero() {
				return validation.ErrRequired
			}
			return nil
		})),
	)
}

// Validate checks that a decoded message names a member and an event type.
func (m Message) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.MemberID, validation.Required),
		validation.Field(&m.EventType, validation.Required),
	)
}

// ValidRecord runs v.Validate and tags failures with ErrInvalidRecord.
func ValidRecord[T validation.Validatable](v T) (T, error) {
	if err := v.Validate(); err != nil {
		return v, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return v, nil
}
