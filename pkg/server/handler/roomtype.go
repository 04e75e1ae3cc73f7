package handler

import (
	"net/http"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

func (h *Handler) createRoomType(w http.ResponseWriter, r *http.Request) {
	param := &model.CreateRoomTypeParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	roomType, err := h.c.CreateRoomType(r.Context(), param)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusCreated, "Room type created successfully", map[string]any{"roomType": roomType})
}

func (h *Handler) listRoomTypes(w http.ResponseWriter, r *http.Request) {
	roomTypes, err := h.c.ListRoomTypes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Room types retrieved successfully", map[string]any{"roomTypes": roomTypes})
}

func (h *Handler) updateRoomType(w http.ResponseWriter, r *http.Request) {
	roomTypeID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	param := &model.UpdateRoomTypeParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	param.RoomTypeID = roomTypeID
	roomType, err := h.c.UpdateRoomType(r.Context(), param)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Room type updated successfully", map[string]any{"roomType": roomType})
}

func (h *Handler) deleteRoomType(w http.ResponseWriter, r *http.Request) {
	roomTypeID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	roomType, err := h.c.DeleteRoomType(r.Context(), roomTypeID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Room type deleted successfully", map[string]any{"roomType": roomType})
}
