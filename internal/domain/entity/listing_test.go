package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validDetails() ListingDetails {
	return ListingDetails{
		Title:       "Room near campus",
		Description: "Quiet street, utilities included.",
		City:        "Washington",
		Price:       800,
	}
}

func TestNewListing_StartsAsDraft(t *testing.T) {
	listing, err := NewListing("user1", validDetails())

	assert.NoError(t, err)
	assert.Equal(t, StatusDraft, listing.Status)
	assert.Equal(t, 1, listing.Version)
	assert.Empty(t, listing.Photos)
	assert.Nil(t, listing.PaidAt)
	assert.Nil(t, listing.ExpiresAt)
}

func TestNewListing_Fail_Validation(t *testing.T) {
	cases := []struct {
		name   string
		userID string
		mutate func(*ListingDetails)
	}{
		{"empty user", "", func(d *ListingDetails) {}},
		{"empty title", "user1", func(d *ListingDetails) { d.Title = "" }},
		{"empty description", "user1", func(d *ListingDetails) { d.Description = "" }},
		{"empty city", "user1", func(d *ListingDetails) { d.City = "" }},
		{"zero price", "user1", func(d *ListingDetails) { d.Price = 0 }},
		{"negative price", "user1", func(d *ListingDetails) { d.Price = -10 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			details := validDetails()
			tc.mutate(&details)
			listing, err := NewListing(tc.userID, details)
			assert.Error(t, err)
			assert.Nil(t, listing)
		})
	}
}

func TestListing_TransitionRules(t *testing.T) {
	cases := []struct {
		from    ListingStatus
		to      ListingStatus
		allowed bool
	}{
		{StatusDraft, StatusPaymentSubmitted, true},
		{StatusDraft, StatusActive, false},
		{StatusPaymentSubmitted, StatusActive, true},
		{StatusPaymentSubmitted, StatusDraft, true},
		{StatusActive, StatusDeactivated, true},
		{StatusActive, StatusExpired, true},
		{StatusActive, StatusDraft, false},
		{StatusDeactivated, StatusDraft, true},
		{StatusDeactivated, StatusActive, false},
		{StatusExpired, StatusDraft, true},
		{StatusExpired, StatusActive, false},
	}

	for _, tc := range cases {
		listing := &Listing{Status: tc.from}
		assert.Equalf(t, tc.allowed, listing.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestListing_TransitionTo_BumpsVersion(t *testing.T) {
	listing, _ := NewListing("user1", validDetails())

	err := listing.TransitionTo(StatusPaymentSubmitted)

	assert.NoError(t, err)
	assert.Equal(t, StatusPaymentSubmitted, listing.Status)
	assert.Equal(t, 2, listing.Version)
}

func TestListing_TransitionTo_Fail_Invalid(t *testing.T) {
	listing, _ := NewListing("user1", validDetails())

	err := listing.TransitionTo(StatusActive)

	assert.Error(t, err)
	assert.Equal(t, StatusDraft, listing.Status)
	assert.Equal(t, 1, listing.Version)
}

func TestListing_IsOverdue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	overdue := &Listing{Status: StatusActive, ExpiresAt: &past}
	assert.True(t, overdue.IsOverdue(now))

	current := &Listing{Status: StatusActive, ExpiresAt: &future}
	assert.False(t, current.IsOverdue(now))

	exactlyAt := &Listing{Status: StatusActive, ExpiresAt: &now}
	assert.True(t, exactlyAt.IsOverdue(now))

	noExpiry := &Listing{Status: StatusActive}
	assert.False(t, noExpiry.IsOverdue(now))

	expiredAlready := &Listing{Status: StatusExpired, ExpiresAt: &past}
	assert.False(t, expiredAlready.IsOverdue(now))
}

func TestRenewalActivation_ExtendsFromFutureExpiry(t *testing.T) {
	now := time.Now().UTC()
	term := 30 * 24 * time.Hour
	currentExpiry := now.Add(10 * 24 * time.Hour)

	listing := &Listing{Status: StatusActive, ExpiresAt: &currentExpiry}
	activation := listing.RenewalActivation(now, term)

	assert.Equal(t, now, activation.PaidAt)
	assert.Equal(t, currentExpiry.Add(term), activation.ExpiresAt)
}

func TestRenewalActivation_ExtendsFromNowWhenLapsed(t *testing.T) {
	now := time.Now().UTC()
	term := 30 * 24 * time.Hour
	pastExpiry := now.Add(-5 * 24 * time.Hour)

	listing := &Listing{Status: StatusExpired, ExpiresAt: &pastExpiry}
	activation := listing.RenewalActivation(now, term)

	assert.Equal(t, now.Add(term), activation.ExpiresAt)
}

func TestListing_PrimaryPhoto(t *testing.T) {
	listing := &Listing{Photos: []Photo{
		{ID: "p1"},
		{ID: "p2", IsPrimary: true},
	}}

	primary := listing.PrimaryPhoto()
	assert.NotNil(t, primary)
	assert.Equal(t, "p2", primary.ID)

	assert.Nil(t, (&Listing{}).PrimaryPhoto())
}

func TestListing_HasRoomForPhoto(t *testing.T) {
	listing := &Listing{}
	for i := 0; i < MaxPhotosPerListing-1; i++ {
		listing.Photos = append(listing.Photos, Photo{})
	}
	assert.True(t, listing.HasRoomForPhoto())

	listing.Photos = append(listing.Photos, Photo{})
	assert.False(t, listing.HasRoomForPhoto())
}
