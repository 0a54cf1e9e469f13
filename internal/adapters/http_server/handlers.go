package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"meiras_yachting/internal/adapters/observability"
	"meiras_yachting/internal/app"
	"meiras_yachting/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	Listing   *app.ListingService
	Contact   *app.ContactService
	Gallery   domain.Gallery
	SiteKey   string
	ImagesDir string
}

type problem struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Error      string `json:"error"`
	Detail     string `json:"detail,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("API çalışıyor!"))
	})
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/yachts", func(r chi.Router) { h.mountKind(r, domain.KindYacht, true) })
	// brokerage listings are created once and never edited over the API
	s.mux.Route("/brokerage", func(r chi.Router) { h.mountKind(r, domain.KindBrokerage, false) })

	s.mux.Get("/api/yacht-images/{id}", h.yachtImages)
	if h.ImagesDir != "" {
		s.mux.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(h.ImagesDir))))
	}

	s.mux.Get("/get-recaptcha-site-key", h.siteKey)
	s.mux.Post("/verify-recaptcha", h.verifyRecaptcha)
	s.mux.Post("/send-email", h.sendEmail)
}

// mountKind registers the record routes for one kind. Static /TR and /EN
// win over /{id} in chi's tree.
func (h *Handlers) mountKind(r chi.Router, kind domain.Kind, editable bool) {
	r.Get("/", h.list(kind))
	r.Post("/", h.create(kind))
	r.Get("/TR", h.localized(kind, string(domain.LangTR)))
	r.Get("/EN", h.localized(kind, string(domain.LangEN)))
	r.Get("/{id}", h.get(kind))
	if editable {
		r.Put("/{id}", h.update(kind))
	}
}

func (h *Handlers) list(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if q := r.URL.Query(); q.Has("lang") {
			h.writeLocalized(w, r, kind, q.Get("lang"))
			return
		}
		recs, err := h.Listing.ListAll(r.Context(), kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeCached(w, r, recs)
	}
}

func (h *Handlers) localized(kind domain.Kind, lang string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { h.writeLocalized(w, r, kind, lang) }
}

func (h *Handlers) writeLocalized(w http.ResponseWriter, r *http.Request, kind domain.Kind, lang string) {
	out, err := h.Listing.ListLocalized(r.Context(), kind, lang)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Language", lang)
	writeCached(w, r, out)
}

func (h *Handlers) get(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := h.Listing.GetOne(r.Context(), kind, chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeCached(w, r, rec)
	}
}

func (h *Handlers) create(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec domain.Record
		if err := decodeRecord(w, r, &rec); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := h.Listing.Create(r.Context(), kind, rec)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func (h *Handlers) update(kind domain.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rec domain.Record
		if err := decodeRecord(w, r, &rec); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := h.Listing.UpdateOne(r.Context(), kind, chi.URLParam(r, "id"), rec)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (h *Handlers) yachtImages(w http.ResponseWriter, r *http.Request) {
	if h.Gallery == nil {
		writeError(w, r, errors.New("image gallery is not configured"))
		return
	}
	imgs, err := h.Gallery.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, map[string][]string{"images": imgs})
}

func (h *Handlers) siteKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"siteKey": h.SiteKey})
}

func (h *Handlers) verifyRecaptcha(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"recaptchaToken"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Contact.VerifyToken(r.Context(), body.Token, clientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "score": res.Score})
}

func (h *Handlers) sendEmail(w http.ResponseWriter, r *http.Request) {
	var sub domain.ContactSubmission
	if err := decodeBody(w, r, &sub); err != nil {
		observability.ObserveContact(string(domain.OutcomeReceived))
		writeError(w, r, err)
		return
	}
	ip := clientIP(r)
	res, err := h.Contact.Submit(r.Context(), ip, ip, sub)
	observability.ObserveContact(string(res.Outcome))
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			writeRateLimited(w, res.RetryAfter)
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Email sent successfully!"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrBadRequest, err)
	}
	return nil
}

// decodeRecord reports well-formed JSON with mistyped fields as a record
// validation failure; only unparsable bodies are bad requests.
func decodeRecord(w http.ResponseWriter, r *http.Request, rec *domain.Record) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(rec)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrBadRequest, err)
}

// writeError is the single place domain errors become HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", "Not Found", "record not found")
	case errors.Is(err, domain.ErrBadRequest):
		writeProblem(w, http.StatusBadRequest, "bad_request", "Bad Request", err.Error())
	case errors.Is(err, domain.ErrVerificationFailed):
		writeProblem(w, http.StatusBadRequest, "verification_failed", "reCAPTCHA verification failed", err.Error())
	case errors.Is(err, domain.ErrRateLimited):
		writeRateLimited(w, 0)
	case errors.Is(err, domain.ErrValidation):
		// kept as a server error; clients have always seen 500 here
		log.Error().Err(err).Str("path", r.URL.Path).Msg("record validation failed")
		writeProblem(w, http.StatusInternalServerError, "validation_failed", "Internal Server Error", err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Str("method", r.Method).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "internal", "Internal Server Error", "an unexpected error occurred")
	}
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	secs := int(math.Ceil(retryAfter.Seconds()))
	if secs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusTooManyRequests)
	p := problem{
		Type:       "about:blank",
		Title:      "Too Many Requests",
		Status:     http.StatusTooManyRequests,
		Error:      "too_many_requests",
		Detail:     "too many contact requests, please try again later",
		RetryAfter: secs,
	}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeProblem(w http.ResponseWriter, status int, code, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Error: code, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal response")
		writeProblem(w, http.StatusInternalServerError, "internal", "Internal Server Error", "an unexpected error occurred")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body, nil
}

// writeCached answers GETs with a weak ETag and 304 on If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body, err := calcETagAndBody(v)
	if err != nil {
		writeError(w, r, fmt.Errorf("marshal response: %w", err))
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}
