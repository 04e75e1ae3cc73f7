package handler

import (
	"net/http"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	param := &model.CreateBookingParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	booking, err := h.c.CreateBooking(r.Context(), userID(r.Context()), param)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusCreated, "Booking created successfully", map[string]any{"booking": booking})
}

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.c.ListBookings(r.Context(), userID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Bookings retrieved successfully", map[string]any{"bookings": bookings})
}
