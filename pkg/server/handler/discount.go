package handler

import (
	"net/http"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

func (h *Handler) createDiscount(w http.ResponseWriter, r *http.Request) {
	param := &model.CreateDiscountParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	discount, err := h.c.CreateDiscount(r.Context(), param)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusCreated, "Discount created successfully", map[string]any{"discount": discount})
}

func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.c.ListDiscounts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Discounts retrieved successfully", map[string]any{"discounts": discounts})
}

func (h *Handler) updateDiscount(w http.ResponseWriter, r *http.Request) {
	discountID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	param := &model.UpdateDiscountParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	param.DiscountID = discountID
	discount, err := h.c.UpdateDiscount(r.Context(), param)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Discount updated successfully", map[string]any{"discount": discount})
}

func (h *Handler) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	discountID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	discount, err := h.c.DeleteDiscount(r.Context(), discountID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Discount deleted successfully", map[string]any{"discount": discount})
}
