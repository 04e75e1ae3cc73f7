package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

func (h *Handler) createHotel(w http.ResponseWriter, r *http.Request) {
	param := &model.CreateHotelParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	hotel, err := h.c.CreateHotel(r.Context(), param)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusCreated, "Hotel created successfully", map[string]any{"hotel": hotel})
}

func (h *Handler) listHotels(w http.ResponseWriter, r *http.Request) {
	hotels, err := h.c.ListHotels(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Hotels retrieved successfully", map[string]any{"hotels": hotels})
}

func (h *Handler) getHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.c.GetHotel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Hotel retrieved successfully", map[string]any{"hotel": hotel})
}

func (h *Handler) updateHotel(w http.ResponseWriter, r *http.Request) {
	param := &model.UpdateHotelParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	param.ID = mux.Vars(r)["id"]
	hotel, err := h.c.UpdateHotel(r.Context(), param)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Hotel updated successfully", map[string]any{"hotel": hotel})
}

func (h *Handler) deleteHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.c.DeleteHotel(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Hotel deleted successfully", map[string]any{"hotel": hotel})
}
