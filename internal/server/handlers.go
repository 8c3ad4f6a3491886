package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"linkgist/internal/domain"
	"linkgist/internal/present"
)

const maxFormBytes = 64 << 10

type pageData struct {
	URL  string
	View *present.View
}

type apiRequest struct {
	URL string `json:"url"`
}

type apiResponse struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	Summary   string `json:"summary,omitempty"`
	Kind      string `json:"kind"`
	Documents int    `json:"documents,omitempty"`
	Chunks    int    `json:"chunks,omitempty"`
	Language  string `json:"language,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "index.html", pageData{})
}

// handleSummarizeForm renders the outcome into the same page. The
// credential field is never written back.
func (s *Server) handleSummarizeForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	req := domain.Request{
		Credential: r.PostFormValue("credential"),
		URL:        r.PostFormValue("url"),
	}

	result, err := s.run(r, req)
	view := present.Present(result, err, req.Credential)

	w.Header().Set("Cache-Control", "no-store")
	s.render(w, r, "index.html", pageData{
		URL:  strings.TrimSpace(req.URL),
		View: &view,
	})
}

func (s *Server) handleAPISummarize(w http.ResponseWriter, r *http.Request) {
	var body apiRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	req := domain.Request{
		Credential: bearerToken(r),
		URL:        body.URL,
	}

	result, err := s.run(r, req)
	view := present.Present(result, err, req.Credential)

	w.Header().Set("Cache-Control", "no-store")
	jsonResponse(w, statusFor(err), apiResponse{
		OK:        view.OK,
		Message:   view.Message,
		Summary:   view.Summary,
		Kind:      view.Kind,
		Documents: view.Documents,
		Chunks:    view.Chunks,
		Language:  view.Language,
		Cached:    view.Cached,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedURL), errors.Is(err, domain.ErrNoTranscript):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrLoad), errors.Is(err, domain.ErrSummarization):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, status, map[string]string{"error": message})
}
