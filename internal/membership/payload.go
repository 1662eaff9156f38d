package membership

import "time"

// MemberView is a member with its derived status, as forwarded to the webhook.
type MemberView struct {
	Member
	Status MemberStatus `json:"status"`
}

// ContractView is a contract with its derived status, as forwarded to the webhook.
type ContractView struct {
	Contract
	Status ContractStatus `json:"status"`
}

// MemberData is the enriched member state sent on member events.
type MemberData struct {
	Member    MemberView     `json:"member"`
	Contracts []ContractView `json:"contracts"`
}

// MemberWebhookPayload is the envelope posted to the member webhook.
type MemberWebhookPayload struct {
	Type        WebhookType `json:"type"`
	Description string      `json:"description"`
	Data        MemberData  `json:"data"`
}

// NewMemberData derives contract and member statuses as of now.
func NewMemberData(m Member, contracts []Contract, now time.Time) MemberData {
	views := make([]ContractView, 0, len(contracts))
	statuses := make([]ContractStatus, 0, len(contracts))
	for _, c := range contracts {
		status := DeriveContractStatus(c, now)
		views = append(views, ContractView{Contract: c, Status: status})
		statuses = append(statuses, status)
	}

	return MemberData{
		Member:    MemberView{Member: m, Status: DeriveMemberStatus(m, statuses)},
		Contracts: views,
	}
}

// NewMemberWebhookPayload wraps member data for the given event.
func NewMemberWebhookPayload(data MemberData, eventType EventType) MemberWebhookPayload {
	return MemberWebhookPayload{
		Type:        eventType.WebhookType(),
		Description: string(eventType),
		Data:        data,
	}
}

const (
	prospectSourceGroup = "web"
	prospectSourceName  = "Abandoned Cart"
)

// ProspectPayload is the flat prospect record posted to the prospect webhook.
type ProspectPayload struct {
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
	VenueName      string    `json:"venueName"`
	SourceGroup    string    `json:"sourceGroup"`
	SourceName     string    `json:"sourceName"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Phone          string    `json:"phone"`
	ProspectID     string    `json:"prospectId"`
	Zip            string    `json:"zip"`
}

// NewProspectPayload maps a stored prospect onto the outbound shape.
func NewProspectPayload(p Prospect) ProspectPayload {
	var venue string
	if p.LocationID != nil {
		venue = *p.LocationID
	}

	return ProspectPayload{
		DOB:            p.DOB,
		Country:        p.Country,
		Email:          p.Email,
		Gender:         p.Gender,
		MemberID:       p.MemberID,
		LocationID:     p.LocationID,
		MembershipID:   p.MembershipID,
		MembershipName: p.MembershipName,
		State:          p.State,
		Suburb:         p.Suburb,
		CreatedAt:      p.CreatedAt,
		VenueName:      venue,
		SourceGroup:    prospectSourceGroup,
		SourceName:     prospectSourceName,
		FirstName:      p.GivenName,
		LastName:       p.Surname,
		Phone:          p.MobileNumber,
		ProspectID:     p.ID,
		Zip:            p.PostCode.String(),
	}
}
