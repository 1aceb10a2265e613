package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"disasterdocs/pkg/types"
)

const flashCookieName = "dd_flash"

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) error {
	if setter, ok := data.(types.NoticeSetter); ok {
		setter.SetNotice(s.popFlash(w, r))
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("failed to encode json response")
	}
}

// setFlash stores a one-shot notice shown on the next rendered page.
func (s *Service) setFlash(w http.ResponseWriter, notice string) {
	encoded, err := s.cookie.Encode(flashCookieName, notice)
	if err != nil {
		s.logger.WithError(err).Error("failed to encode flash cookie")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    encoded,
		HttpOnly: true,
		Secure:   s.config.Environment != "development",
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int((time.Minute * 5).Seconds()),
	})
}

func (s *Service) popFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return ""
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   s.config.Environment != "development",
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})

	var notice string
	if err := s.cookie.Decode(flashCookieName, c.Value, &notice); err != nil {
		s.logger.WithError(err).Debug("discarding undecodable flash cookie")
		return ""
	}

	return notice
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (s *Service) notFound(w http.ResponseWriter, r *http.Request) {
	data := &types.BasePageData{Title: "Not Found"}
	if err := s.renderTemplate(w, r, http.StatusNotFound, "page.not-found", data); err != nil {
		s.logger.WithError(err).Error("failed to render not found page")
		http.NotFound(w, r)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}
