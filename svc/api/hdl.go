package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/hlog"
	"golang.org/x/text/unicode/norm"

	"pastebox/cfg"
	"pastebox/pkg/domain"
	"pastebox/svc/svc"
	"pastebox/svc/util"
)

const (
	maxTTL = 90 * 24 * time.Hour
	minTTL = 60 * time.Second
)

// expiry presets accepted alongside plain Go durations
var expiryPresets = map[string]time.Duration{
	"10m": 10 * time.Minute,
	"1h":  time.Hour,
	"1d":  24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

type Hdl struct {
	paste *svc.Paste
	cfg   *cfg.Cfg
}

type CreateReq struct {
	Title    string `json:"title,omitempty"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
	Expiry   string `json:"expiry,omitempty"`
}
type CreateResp struct {
	ID        string `json:"id"`
	ExpiresAt *int64 `json:"expiresAt"`
}

func (h *Hdl) CreatePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	// byte cap on the wire; the character limit is checked after decoding
	r.Body = http.MaxBytesReader(w, r.Body, int64(h.cfg.MaxContentSize)*4+4096)
	var req CreateReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if err == io.EOF {
			log.Warn().Msg("empty request body")
		} else {
			log.Warn().Err(err).Msg("invalid request")
		}
		writeErr(w, domain.ErrInvalidRequest, requestID)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		log.Warn().Msg("empty content")
		writeErr(w, domain.ErrContentRequired, requestID)
		return
	}
	if n := utf8.RuneCountInString(req.Content); n > h.cfg.MaxContentSize {
		log.Warn().Int("content_length", n).Msg("content exceeds maximum size")
		writeErr(w, domain.ErrPasteTooLarge, requestID)
		return
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(req.Title)); n > h.cfg.MaxTitleLen {
		log.Warn().Int("title_length", n).Msg("title exceeds maximum length")
		writeErr(w, domain.ErrTitleTooLong, requestID)
		return
	}
	now := time.Now().UnixMilli()
	expiresAt, err := parseExpiry(req.Expiry, now)
	if err != nil {
		log.Warn().Err(err).Str("expiry", req.Expiry).Msg("invalid expiry")
		writeErr(w, domain.ErrInvalidExpiry, requestID)
		return
	}
	id, err := util.GenID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate paste id")
		writeErr(w, domain.ErrInternalServer, requestID)
		return
	}
	paste := &domain.Paste{
		ID:        id,
		Title:     req.Title,
		Content:   sanitizeContent(req.Content),
		Language:  req.Language,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := h.paste.Save(r.Context(), paste); err != nil {
		log.Error().Err(err).Msg("failed to save paste")
		if _, ok := errors.Cause(err).(*domain.Err); ok {
			writeErr(w, err, requestID)
			return
		}
		writeErr(w, domain.ErrStorageUnavailable, requestID)
		return
	}
	log.Info().
		Str("paste_id", paste.ID).
		Str("language", paste.Language).
		Bool("expires", paste.ExpiresAt != nil).
		Msg("paste created")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateResp{ID: paste.ID, ExpiresAt: paste.ExpiresAt})
}

func (h *Hdl) GetPaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	paste, err := h.paste.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrPasteNotFound) {
			writeErr(w, domain.ErrPasteNotFound, requestID)
			return
		}
		log.Error().Err(err).Str("paste_id", id).Msg("get failed")
		writeErr(w, domain.ErrStorageUnavailable, requestID)
		return
	}
	json.NewEncoder(w).Encode(paste)
}

func (h *Hdl) DeletePaste(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)
	requestID := util.GetRequestID(r.Context())
	id := chi.URLParam(r, "id")
	removed, err := h.paste.Delete(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("paste_id", id).Msg("delete failed")
		writeErr(w, domain.ErrStorageUnavailable, requestID)
		return
	}
	if !removed {
		writeErr(w, domain.ErrPasteNotFound, requestID)
		return
	}
	log.Info().Str("paste_id", id).Msg("paste deleted")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func (h *Hdl) ListPastes(w http.ResponseWriter, r *http.Request) {
	requestID := util.GetRequestID(r.Context())
	pastes, err := h.paste.List(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list failed")
		writeErr(w, domain.ErrStorageUnavailable, requestID)
		return
	}
	json.NewEncoder(w).Encode(pastes)
}

func parseExpiry(expiry string, nowMillis int64) (*int64, error) {
	expiry = strings.TrimSpace(strings.ToLower(expiry))
	if expiry == "" || expiry == "never" {
		return nil, nil
	}
	d, ok := expiryPresets[expiry]
	if !ok {
		var err error
		d, err = time.ParseDuration(expiry)
		if err != nil {
			return nil, errors.Wrap(err, "parse expiry")
		}
	}
	if d < minTTL || d > maxTTL {
		return nil, errors.Errorf("expiry out of bounds: %s", d)
	}
	at := nowMillis + d.Milliseconds()
	return &at, nil
}

func writeErr(w http.ResponseWriter, err error, requestID string) {
	statusCode := domain.Status(err)
	w.WriteHeader(statusCode)
	errorMsg := domain.ToResp(err).Error.Msg
	if statusCode >= 500 {
		errorMsg = "internal server error"
		util.Error().
			Err(err).
			Str("request_id", requestID).
			Msg("internal error with detailed info")
	}
	json.NewEncoder(w).Encode(map[string]string{
		"error":      errorMsg,
		"request_id": requestID,
	})
}

// sanitizeContent normalizes to NFC and drops control characters other than
// newline, carriage return, and tab. Content is stored verbatim otherwise;
// escaping is the renderer's job.
func sanitizeContent(s string) string {
	s = norm.NFC.String(s)
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for _, r := range s {
			if r != utf8.RuneError {
				v = append(v, r)
			}
		}
		s = string(v)
	}
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}
