package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leahpeker/vedgyproject/internal/domain/entity"
	"github.com/leahpeker/vedgyproject/internal/platform/logger"
	"github.com/leahpeker/vedgyproject/internal/service"
)

const multipartMemoryLimit = 32 << 20

type Handler struct {
	listings   service.ListingService
	photos     service.PhotoService
	moderation service.ModerationService
	payments   service.PaymentService
	store      service.PhotoStore
	log        logger.Logger
}

func NewHandler(
	listings service.ListingService,
	photos service.PhotoService,
	moderation service.ModerationService,
	payments service.PaymentService,
	store service.PhotoStore,
	log logger.Logger,
) *Handler {
	return &Handler{
		listings:   listings,
		photos:     photos,
		moderation: moderation,
		payments:   payments,
		store:      store,
		log:        log,
	}
}

func (h *Handler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing, err := h.listings.Create(r.Context(), actor, req.toDetails())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.toListingResponse(listing))
}

func (h *Handler) HandleUpdateListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req listingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing, err := h.listings.Edit(r.Context(), actor, chi.URLParam(r, "id"), req.toDetails())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toListingResponse(listing))
}

func (h *Handler) HandleDeleteListing(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.listings.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	h.handleOwnerTransition(w, r, h.listings.SubmitPayment)
}

func (h *Handler) HandleDeactivateListing(w http.ResponseWriter, r *http.Request) {
	h.handleOwnerTransition(w, r, h.listings.Deactivate)
}

func (h *Handler) HandleRenewListing(w http.ResponseWriter, r *http.Request) {
	h.handleOwnerTransition(w, r, h.listings.Renew)
}

func (h *Handler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.GetPublic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toListingResponse(listing))
}

func (h *Handler) HandleListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listings.ListPublic(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toListingResponses(listings))
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	dashboard, err := h.listings.Dashboard(r.Context(), actor)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dashboardResponse{
		Active:           h.toListingResponses(dashboard.Active),
		Drafts:           h.toListingResponses(dashboard.Drafts),
		PaymentSubmitted: h.toListingResponses(dashboard.PaymentSubmitted),
		Deactivated:      h.toListingResponses(dashboard.Deactivated),
		Expired:          h.toListingResponses(dashboard.Expired),
	})
}

func (h *Handler) HandleUploadPhotos(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no photos provided")
		return
	}

	uploads := make([]service.PhotoUpload, 0, len(files))
	for _, fh := range files {
		file, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read uploaded file "+fh.Filename)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read uploaded file "+fh.Filename)
			return
		}
		uploads = append(uploads, service.PhotoUpload{Data: data, FilenameHint: fh.Filename})
	}

	results, err := h.photos.AddPhotos(r.Context(), actor, chi.URLParam(r, "id"), uploads)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toPhotoResults(results))
}

func (h *Handler) HandleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	err := h.photos.DeletePhoto(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "photoID"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleModerationQueue(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	queue, err := h.moderation.Queue(r.Context(), actor)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toListingResponses(queue))
}

func (h *Handler) HandleApproveListing(w http.ResponseWriter, r *http.Request) {
	h.handleOwnerTransition(w, r, h.moderation.Approve)
}

func (h *Handler) HandleRejectListing(w http.ResponseWriter, r *http.Request) {
	h.handleOwnerTransition(w, r, h.moderation.Reject)
}

// HandlePaymentWebhook accepts the payment provider's callback. A replay of
// an already processed transaction still gets a 200 so the provider stops
// redelivering; a failed activation gets a 5xx so it retries.
func (h *Handler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var event service.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	if err := h.payments.HandleWebhook(r.Context(), event); err != nil {
		h.log.Errorf("Payment webhook for transaction %s failed: %v", event.TransactionID, err)
		respondError(w, http.StatusInternalServerError, "webhook processing failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type ownerTransition func(ctx context.Context, actor entity.Actor, listingID string) (*entity.Listing, error)

func (h *Handler) handleOwnerTransition(w http.ResponseWriter, r *http.Request, op ownerTransition) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	listing, err := op(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toListingResponse(listing))
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrListingNotFound), errors.Is(err, service.ErrPhotoNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPhotoTooLarge), errors.Is(err, service.ErrTooManyPhotos):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Errorf("Unhandled service error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
