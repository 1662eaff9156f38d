package membership

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProspectPayload(t *testing.T) {
	venue := "venue-1"
	p := Prospect{
		ID:           "p1",
		GivenName:    "Ana",
		Surname:      "Ruiz",
		MobileNumber: "0422222222",
		PostCode:     PostCodeFromString("4000"),
		DOB:          "1988-02-29",
		Email:        "ana@example.com",
		Gender:       "F",
		MemberID:     "m1",
		LocationID:   &venue,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	got := NewProspectPayload(p)

	assert.Equal(t, "venue-1", got.VenueName)
	assert.Equal(t, "web", got.SourceGroup)
	assert.Equal(t, "Abandoned Cart", got.SourceName)
	assert.Equal(t, "Ana", got.FirstName)
	assert.Equal(t, "Ruiz", got.LastName)
	assert.Equal(t, "0422222222", got.Phone)
	assert.Equal(t, "p1", got.ProspectID)
	assert.Equal(t, "4000", got.Zip)
	assert.Equal(t, "m1", got.MemberID)
	assert.Equal(t, "ana@example.com", got.Email)
}

func TestNewProspectPayloadWithoutLocation(t *testing.T) {
	got := NewProspectPayload(Prospect{ID: "p2", PostCode: PostCodeFromNumber(6000)})
	assert.Equal(t, "", got.VenueName)
	assert.Equal(t, "6000", got.Zip)
}

func TestNewMemberData(t *testing.T) {
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

	data := NewMemberData(Member{MemberID: "m1"}, []Contract{
		{ID: "c1", ExpiryDateTime: &past},
		{ID: "c2", ExpiryDateTime: &future},
	}, testNow)

	require.Len(t, data.Contracts, 2)
	assert.Equal(t, ContractCancelled, data.Contracts[0].Status)
	assert.Equal(t, ContractActive, data.Contracts[1].Status)
	assert.Equal(t, MemberActive, data.Member.Status)
}

func TestMemberWebhookPayloadJSON(t *testing.T) {
	desc := "Gold 12 months"
	end := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	data := NewMemberData(Member{MemberID: "m1"}, []Contract{
		{ID: "c1", Description: &desc, EndDateTime: &end},
		{ID: "c2"},
	}, testNow)

	raw, err := json.Marshal(NewMemberWebhookPayload(data, EventMemberBlocked))
	require.NoError(t, err)

	var decoded struct {
		Type        string `json:"type"`
		Description string `json:"description"`
		Data        struct {
			Member    map[string]any   `json:"member"`
			Contracts []map[string]any `json:"contracts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "status-update", decoded.Type)
	assert.Equal(t, "MEMBER_BLOCKED", decoded.Description)
	assert.Equal(t, "m1", decoded.Data.Member["memberId"])
	require.Len(t, decoded.Data.Contracts, 2)
	assert.Equal(t, desc, decoded.Data.Contracts[0]["description"])
	assert.Equal(t, "cancelled", decoded.Data.Contracts[0]["status"])
	assert.NotContains(t, decoded.Data.Contracts[0], "endDateTime")
	assert.NotContains(t, decoded.Data.Contracts[1], "description")
}
