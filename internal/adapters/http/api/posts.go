package api

import (
	"net/http"

	"github.com/campuslink/beacon/internal/domain/types"
)

// PostsHandler serves team posts and applications.
type PostsHandler struct {
	svc PostService
}

// NewPostsHandler creates a new posts handler.
func NewPostsHandler(svc PostService) *PostsHandler {
	return &PostsHandler{svc: svc}
}

// HandleListByEvent handles GET /api/posts/event/{eventId}.
func (h *PostsHandler) HandleListByEvent(w http.ResponseWriter, r *http.Request) {
	posts, err := h.svc.ListByEvent(r.Context(), r.PathValue("eventId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleCreate handles POST /api/posts/team-finding.
func (h *PostsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req types.CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	post, err := h.svc.CreatePost(r.Context(), currentUser(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// HandleBrowse handles GET /api/beacon?filter=&q=.
func (h *PostsHandler) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	posts, err := h.svc.Browse(r.Context(), currentUser(r), q.Get("filter"), q.Get("q"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGet handles GET /api/beacon/{postId}.
func (h *PostsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPost(r.Context(), r.PathValue("postId"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleApply handles POST /api/beacon/{postId}/applications. The response
// is the updated post.
func (h *PostsHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	var req types.ApplicationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	post, err := h.svc.Apply(r.Context(), currentUser(r), r.PathValue("postId"), req, idempotencyKey(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}
