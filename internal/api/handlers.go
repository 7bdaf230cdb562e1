package api

import (
	"net/http"

	"github.com/roach88/collabevents/internal/domain"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	events, err := s.engine.ListEvents(r.Context(), p)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(events))
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	var f domain.EventFields
	if !decodeJSON(w, r, &f) {
		return
	}
	ev, err := s.engine.CreateEvent(r.Context(), p, f)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleCreateEvents(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	var batch []domain.EventFields
	if !decodeJSON(w, r, &batch) {
		return
	}
	events, err := s.engine.CreateEvents(r.Context(), p, batch)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, events)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ev, err := s.engine.GetEvent(r.Context(), p, id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var patch domain.EventPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	ev, err := s.engine.UpdateEvent(r.Context(), p, id, patch)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleListPermissions(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	perms, err := s.engine.Permissions(r.Context(), p, id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(perms))
}

func (s *Server) handleShareEvent(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var grants []domain.Grant
	if !decodeJSON(w, r, &grants) {
		return
	}
	perms, err := s.engine.ShareEvent(r.Context(), p, id, grants)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, perms)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	history, err := s.engine.History(r.Context(), p, id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(history))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	versionID, ok := pathID(w, r, "versionID")
	if !ok {
		return
	}
	v, err := s.engine.Version(r.Context(), p, id, versionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	from, ok := pathID(w, r, "from")
	if !ok {
		return
	}
	to, ok := pathID(w, r, "to")
	if !ok {
		return
	}
	diff, err := s.engine.Diff(r.Context(), p, id, from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	versionID, ok := pathID(w, r, "versionID")
	if !ok {
		return
	}
	ev, err := s.engine.RollbackEvent(r.Context(), p, id, versionID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	doc, err := s.engine.ExportEvent(r.Context(), p, id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	notes, err := s.engine.Notifications(r.Context(), p, unreadOnly)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(notes))
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request, p domain.Principal) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.engine.MarkNotificationRead(r.Context(), p, id); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// nonNil renders empty lists as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
