package entity

import (
	"errors"
	"fmt"
	"time"
)

type ListingStatus string

const (
	StatusDraft            ListingStatus = "draft"
	StatusPaymentSubmitted ListingStatus = "payment_submitted"
	StatusActive           ListingStatus = "active"
	StatusDeactivated      ListingStatus = "deactivated"
	StatusExpired          ListingStatus = "expired"
)

const MaxPhotosPerListing = 10

type Photo struct {
	ID        string    `bson:"id"`
	Filename  string    `bson:"filename"`
	IsPrimary bool      `bson:"is_primary"`
	CreatedAt time.Time `bson:"created_at"`
}

type Listing struct {
	ID            string        `bson:"_id,omitempty"`
	UserID        string        `bson:"user_id"`
	Title         string        `bson:"title"`
	Description   string        `bson:"description"`
	City          string        `bson:"city"`
	Neighborhood  string        `bson:"neighborhood,omitempty"`
	RentalType    string        `bson:"rental_type"`
	RoomType      string        `bson:"room_type"`
	Price         int           `bson:"price"`
	Furnished     string        `bson:"furnished"`
	AvailableFrom time.Time     `bson:"available_from"`
	ContactEmail  string        `bson:"contact_email"`
	Status        ListingStatus `bson:"status"`
	PaidAt        *time.Time    `bson:"paid_at,omitempty"`
	ExpiresAt     *time.Time    `bson:"expires_at,omitempty"`
	Photos        []Photo       `bson:"photos"`
	CreatedAt     time.Time     `bson:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at"`
	Version       int           `bson:"version"`
}

type ListingDetails struct {
	Title         string
	Description   string
	City          string
	Neighborhood  string
	RentalType    string
	RoomType      string
	Price         int
	Furnished     string
	AvailableFrom time.Time
	ContactEmail  string
}

func NewListing(userID string, details ListingDetails) (*Listing, error) {
	if userID == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	if details.Title == "" {
		return nil, errors.New("title cannot be empty")
	}
	if details.Description == "" {
		return nil, errors.New("description cannot be empty")
	}
	if details.City == "" {
		return nil, errors.New("city cannot be empty")
	}
	if details.Price <= 0 {
		return nil, errors.New("price must be positive")
	}

	now := time.Now().UTC()
	return &Listing{
		UserID:        userID,
		Title:         details.Title,
		Description:   details.Description,
		City:          details.City,
		Neighborhood:  details.Neighborhood,
		RentalType:    details.RentalType,
		RoomType:      details.RoomType,
		Price:         details.Price,
		Furnished:     details.Furnished,
		AvailableFrom: details.AvailableFrom,
		ContactEmail:  details.ContactEmail,
		Status:        StatusDraft,
		Photos:        []Photo{},
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}, nil
}

var validTransitions = map[ListingStatus][]ListingStatus{
	StatusDraft:            {StatusPaymentSubmitted},
	StatusPaymentSubmitted: {StatusActive, StatusDraft},
	StatusActive:           {StatusDeactivated, StatusExpired},
	StatusDeactivated:      {StatusDraft},
	StatusExpired:          {StatusDraft},
}

func (l *Listing) CanTransitionTo(newStatus ListingStatus) bool {
	allowed, ok := validTransitions[l.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

func (l *Listing) TransitionTo(newStatus ListingStatus) error {
	if !l.CanTransitionTo(newStatus) {
		return fmt.Errorf("invalid status transition from %s to %s", l.Status, newStatus)
	}
	l.Status = newStatus
	l.UpdatedAt = time.Now().UTC()
	l.Version++
	return nil
}

func (l *Listing) IsOwnedBy(userID string) bool {
	return l.UserID == userID
}

func (l *Listing) IsEditable() bool {
	return l.Status == StatusDraft
}

func (l *Listing) IsDeletable() bool {
	switch l.Status {
	case StatusDraft, StatusDeactivated, StatusExpired:
		return true
	default:
		return false
	}
}

func (l *Listing) IsRenewable() bool {
	return l.Status == StatusExpired || l.Status == StatusDeactivated
}

func (l *Listing) IsOverdue(now time.Time) bool {
	return l.Status == StatusActive && l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// Activation stamps both timestamps; approval always resets them, a renewal
// payment extends from whichever is later: now or the current expiry.
type Activation struct {
	PaidAt    time.Time
	ExpiresAt time.Time
}

func NewActivation(now time.Time, term time.Duration) Activation {
	return Activation{PaidAt: now, ExpiresAt: now.Add(term)}
}

func (l *Listing) RenewalActivation(now time.Time, term time.Duration) Activation {
	base := now
	if l.ExpiresAt != nil && l.ExpiresAt.After(now) {
		base = *l.ExpiresAt
	}
	return Activation{PaidAt: now, ExpiresAt: base.Add(term)}
}

func (l *Listing) PrimaryPhoto() *Photo {
	for i := range l.Photos {
		if l.Photos[i].IsPrimary {
			return &l.Photos[i]
		}
	}
	return nil
}

func (l *Listing) HasRoomForPhoto() bool {
	return len(l.Photos) < MaxPhotosPerListing
}

func (l *Listing) FindPhoto(photoID string) *Photo {
	for i := range l.Photos {
		if l.Photos[i].ID == photoID {
			return &l.Photos[i]
		}
	}
	return nil
}
