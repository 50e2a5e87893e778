package http

import (
	"time"

	"github.com/leahpeker/vedgyproject/internal/domain/entity"
	"github.com/leahpeker/vedgyproject/internal/service"
)

type listingRequest struct {
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	City          string    `json:"city"`
	Neighborhood  string    `json:"neighborhood"`
	RentalType    string    `json:"rental_type"`
	RoomType      string    `json:"room_type"`
	Price         int       `json:"price"`
	Furnished     string    `json:"furnished"`
	AvailableFrom time.Time `json:"available_from"`
	ContactEmail  string    `json:"contact_email"`
}

func (r listingRequest) toDetails() entity.ListingDetails {
	return entity.ListingDetails{
		Title:         r.Title,
		Description:   r.Description,
		City:          r.City,
		Neighborhood:  r.Neighborhood,
		RentalType:    r.RentalType,
		RoomType:      r.RoomType,
		Price:         r.Price,
		Furnished:     r.Furnished,
		AvailableFrom: r.AvailableFrom,
		ContactEmail:  r.ContactEmail,
	}
}

type photoResponse struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}

type listingResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	City          string          `json:"city"`
	Neighborhood  string          `json:"neighborhood,omitempty"`
	RentalType    string          `json:"rental_type"`
	RoomType      string          `json:"room_type"`
	Price         int             `json:"price"`
	Furnished     string          `json:"furnished"`
	AvailableFrom time.Time       `json:"available_from"`
	ContactEmail  string          `json:"contact_email"`
	Status        string          `json:"status"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
	Photos        []photoResponse `json:"photos"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type photoResultResponse struct {
	Filename string         `json:"filename"`
	Error    string         `json:"error,omitempty"`
	Photo    *photoResponse `json:"photo,omitempty"`
}

type dashboardResponse struct {
	Active           []listingResponse `json:"active"`
	Drafts           []listingResponse `json:"drafts"`
	PaymentSubmitted []listingResponse `json:"payment_submitted"`
	Deactivated      []listingResponse `json:"deactivated"`
	Expired          []listingResponse `json:"expired"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) toListingResponse(listing *entity.Listing) listingResponse {
	photos := make([]photoResponse, 0, len(listing.Photos))
	for _, p := range listing.Photos {
		photos = append(photos, photoResponse{
			ID:        p.ID,
			URL:       h.store.URLFor(p.Filename),
			IsPrimary: p.IsPrimary,
			CreatedAt: p.CreatedAt,
		})
	}
	return listingResponse{
		ID:            listing.ID,
		UserID:        listing.UserID,
		Title:         listing.Title,
		Description:   listing.Description,
		City:          listing.City,
		Neighborhood:  listing.Neighborhood,
		RentalType:    listing.RentalType,
		RoomType:      listing.RoomType,
		Price:         listing.Price,
		Furnished:     listing.Furnished,
		AvailableFrom: listing.AvailableFrom,
		ContactEmail:  listing.ContactEmail,
		Status:        string(listing.Status),
		PaidAt:        listing.PaidAt,
		ExpiresAt:     listing.ExpiresAt,
		Photos:        photos,
		CreatedAt:     listing.CreatedAt,
		UpdatedAt:     listing.UpdatedAt,
	}
}

func (h *Handler) toListingResponses(listings []entity.Listing) []listingResponse {
	responses := make([]listingResponse, 0, len(listings))
	for i := range listings {
		responses = append(responses, h.toListingResponse(&listings[i]))
	}
	return responses
}

func (h *Handler) toPhotoResults(results []service.PhotoResult) []photoResultResponse {
	responses := make([]photoResultResponse, 0, len(results))
	for _, r := range results {
		resp := photoResultResponse{Filename: r.FilenameHint}
		if r.Err != nil {
			resp.Error = r.Err.Error()
		}
		if r.Photo != nil {
			resp.Photo = &photoResponse{
				ID:        r.Photo.ID,
				URL:       h.store.URLFor(r.Photo.Filename),
				IsPrimary: r.Photo.IsPrimary,
				CreatedAt: r.Photo.CreatedAt,
			}
		}
		responses = append(responses, resp)
	}
	return responses
}
