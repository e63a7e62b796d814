package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/evcraddock/comment-utils/internal/comment"
	"github.com/evcraddock/comment-utils/internal/contenttype"
	"github.com/evcraddock/comment-utils/internal/moderation"
)

// handleCommentPost saves a comment from a form POST with fields
// content_type, object_id, name, comment, free and user_id.
func (s *Server) handleCommentPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apiError(w, "invalid form", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(r.FormValue("comment"))
	if text == "" {
		apiError(w, "comment is required", http.StatusBadRequest)
		return
	}
	objectID := strings.TrimSpace(r.FormValue("object_id"))
	if objectID == "" {
		apiError(w, "object_id is required", http.StatusBadRequest)
		return
	}

	ct, err := s.types.Lookup(r.FormValue("content_type"))
	if err != nil {
		apiError(w, fmt.Sprintf("invalid content_type: %v", err), http.StatusBadRequest)
		return
	}
	if _, err := ct.Object(objectID); err != nil {
		if errors.Is(err, contenttype.ErrObjectNotFound) {
			apiError(w, err.Error(), http.StatusNotFound)
			return
		}
		apiError(w, fmt.Sprintf("loading object: %v", err), http.StatusInternalServerError)
		return
	}

	free := true
	if v := r.FormValue("free"); v != "" {
		free, err = strconv.ParseBool(v)
		if err != nil {
			apiError(w, "free must be true or false", http.StatusBadRequest)
			return
		}
	}

	c := &comment.Comment{
		ContentType: ct.Label(),
		ObjectID:    objectID,
		SiteID:      s.siteID,
		Free:        free,
		PersonName:  strings.TrimSpace(r.FormValue("name")),
		Text:        text,
		IPAddress:   clientIP(r),
		UserAgent:   r.UserAgent(),
		Referrer:    r.Referer(),
		IsPublic:    true,
	}
	if !free {
		userID, err := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
		if err != nil || userID <= 0 {
			apiError(w, "user_id is required for registered comments", http.StatusBadRequest)
			return
		}
		c.UserID = &userID
	}

	if err := s.commentRepo.Save(c); err != nil {
		switch {
		case errors.Is(err, moderation.ErrDisallowed):
			apiError(w, "comments are closed", http.StatusForbidden)
		case errors.Is(err, contenttype.ErrObjectNotFound):
			apiError(w, err.Error(), http.StatusNotFound)
		default:
			slog.Error("saving comment", "content_type", c.ContentType, "object_id", c.ObjectID, "error", err)
			apiError(w, "saving comment failed", http.StatusInternalServerError)
		}
		return
	}

	apiJSON(w, c, http.StatusCreated)
}

type commentListResponse struct {
	Comments  []*comment.Comment `json:"comments"`
	Count     int64              `json:"count"`
	Open      bool               `json:"comments_open"`
	Moderated bool               `json:"comments_moderated"`
}

// handleCommentList returns the public comments on one object with the
// query parameters content_type, object_id, free and reversed.
func (s *Server) handleCommentList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	label := q.Get("content_type")
	objectID := q.Get("object_id")
	if label == "" || objectID == "" {
		apiError(w, "content_type and object_id are required", http.StatusBadRequest)
		return
	}
	free := q.Get("free") != "false"
	reversed := q.Get("reversed") == "true"

	ct, err := s.types.Lookup(label)
	if err != nil {
		apiError(w, fmt.Sprintf("invalid content_type: %v", err), http.StatusBadRequest)
		return
	}
	obj, err := ct.Object(objectID)
	if err != nil {
		if errors.Is(err, contenttype.ErrObjectNotFound) {
			apiError(w, err.Error(), http.StatusNotFound)
			return
		}
		apiError(w, fmt.Sprintf("loading object: %v", err), http.StatusInternalServerError)
		return
	}

	comments, err := s.lib.PublicComments(label, objectID, free, reversed)
	if err != nil {
		apiError(w, fmt.Sprintf("listing comments: %v", err), http.StatusInternalServerError)
		return
	}
	if comments == nil {
		comments = make([]*comment.Comment, 0)
	}

	resp := commentListResponse{Comments: comments, Count: int64(len(comments))}
	if resp.Open, err = s.lib.CommentsOpen(obj); err != nil {
		apiError(w, fmt.Sprintf("checking moderation: %v", err), http.StatusInternalServerError)
		return
	}
	if resp.Moderated, err = s.lib.CommentsModerated(obj); err != nil {
		apiError(w, fmt.Sprintf("checking moderation: %v", err), http.StatusInternalServerError)
		return
	}

	apiJSON(w, resp, http.StatusOK)
}

// clientIP returns the host part of the request's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
