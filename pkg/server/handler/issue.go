package handler

import (
	"net/http"

	"github.com/hotelbook/booking-server/pkg/server/model"
)

func (h *Handler) createIssue(w http.ResponseWriter, r *http.Request) {
	param := &model.CreateIssueParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	issue, err := h.c.CreateIssue(r.Context(), param)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusCreated, "Issue created successfully", map[string]any{"issue": issue})
}

func (h *Handler) listIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.c.ListIssues(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Issues retrieved successfully", map[string]any{"issues": issues})
}

func (h *Handler) updateIssue(w http.ResponseWriter, r *http.Request) {
	issueID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	param := &model.UpdateIssueParam{}
	if err := decode(r, param); err != nil {
		h.fail(w, r, err)
		return
	}
	param.IssueID = issueID
	issue, err := h.c.UpdateIssue(r.Context(), param)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Issue updated successfully", map[string]any{"issue": issue})
}

func (h *Handler) deleteIssue(w http.ResponseWriter, r *http.Request) {
	issueID, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	issue, err := h.c.DeleteIssue(r.Context(), issueID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, http.StatusOK, "Issue deleted successfully", map[string]any{"issue": issue})
}
