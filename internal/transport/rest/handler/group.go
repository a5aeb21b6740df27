package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/blastroyale/partysync/internal/directory"
	"github.com/blastroyale/partysync/internal/service"
)

// GroupHandler handles group directory endpoints
type GroupHandler struct {
	directorySvc *service.DirectoryService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(directorySvc *service.DirectoryService) *GroupHandler {
	return &GroupHandler{
		directorySvc: directorySvc,
	}
}

// Create handles POST /v1/groups
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req directory.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.directorySvc.CreateGroup(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"groupId": id})
}

// Find handles GET /v1/groups. Every query parameter is a search attribute
// the returned groups must match.
func (h *GroupHandler) Find(w http.ResponseWriter, r *http.Request) {
	filter := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			filter[key] = values[0]
		}
	}

	summaries, err := h.directorySvc.FindGroups(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// Get handles GET /v1/groups/{id}
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["id"]
	memberID := r.URL.Query().Get("member")

	group, err := h.directorySvc.GetGroup(r.Context(), groupID, memberID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// Join handles POST /v1/groups/{id}/members
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req directory.JoinGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	req.GroupID = mux.Vars(r)["id"]

	id, err := h.directorySvc.JoinGroup(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"groupId": id})
}

// Update handles PATCH /v1/groups/{id}
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req directory.UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	req.GroupID = mux.Vars(r)["id"]

	if err := h.directorySvc.UpdateGroup(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LeaveRequest is the request body for leaving a group
type LeaveRequest struct {
	MemberID string `json:"memberId"`
}

// Leave handles POST /v1/groups/{id}/leave
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	groupID := mux.Vars(r)["id"]

	var req LeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.directorySvc.LeaveGroup(r.Context(), groupID, req.MemberID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RemoveMember handles DELETE /v1/groups/{id}/members/{memberId}
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	preventRejoin := r.URL.Query().Get("preventRejoin") == "true"

	if err := h.directorySvc.RemoveMember(r.Context(), vars["id"], vars["memberId"], preventRejoin); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
