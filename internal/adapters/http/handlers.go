package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dkeye/Scribe/internal/app/worker"
	"github.com/dkeye/Scribe/internal/domain"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type TokenRequest struct {
	RoomID      string `json:"roomId" binding:"required,max=128"`
	DisplayName string `json:"displayName" binding:"required,max=64"`
}

type TokenResponse struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type AttachRequest struct {
	RoomID string `json:"roomId"`
}

type AttachResponse struct {
	Status worker.Status `json:"status"`
}

type IngestRequest struct {
	RoomID              string `json:"roomId" binding:"required"`
	ParticipantIdentity string `json:"participantIdentity"`
	ParticipantName     string `json:"participantName"`
	Text                string `json:"text"`
	// Workers may send a clock reading instead of an instant; only strings are kept.
	Timestamp domain.LooseString `json:"timestamp"`
}

type IngestResponse struct {
	Delivered int `json:"delivered"`
}

type RoomView struct {
	RoomID        domain.RoomID `json:"roomId"`
	Subscribers   int           `json:"subscribers"`
	WorkerRunning bool          `json:"workerRunning"`
}

type handlers struct {
	api       *API
	mediaURL  string
	keepalive time.Duration
	ctx       context.Context
}

func (h *handlers) issueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId and displayName required"})
		return
	}
	tok, err := h.api.Tokens.Issue(domain.RoomID(strings.TrimSpace(req.RoomID)), req.DisplayName)
	if err != nil {
		if isValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("token issue failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("room", req.RoomID).Msg("token issued")
	c.JSON(http.StatusOK, TokenResponse{Token: tok, URL: h.mediaURL})
}

func (h *handlers) attachTranscriber(c *gin.Context) {
	var req AttachRequest
	_ = c.ShouldBindJSON(&req)
	room := domain.RoomID(strings.TrimSpace(req.RoomID))
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId required"})
		return
	}
	status, err := h.api.Workers.Attach(c.Request.Context(), room)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, AttachResponse{Status: status})
	case isValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, worker.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Str("room", string(room)).Msg("attach transcriber failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start transcriber"})
	}
}

func (h *handlers) transcriptStream(c *gin.Context) {
	room := domain.RoomID(strings.TrimSpace(c.Query("roomId")))
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId required"})
		return
	}

	sub := h.api.Hub.Subscribe(room)
	defer h.api.Hub.Unsubscribe(sub)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()
	logger := log.With().Str("module", "adapters.http").Str("room", string(room)).Str("sid", string(sub.ID)).Logger()
	logger.Info().Msg("stream listener connected")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				logger.Info().Msg("stream closed by hub")
				return false
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				logger.Error().Err(err).Msg("encode event")
				return true
			}
			c.Render(-1, sse.Event{Data: string(payload)})
			return true
		case <-ticker.C:
			_, err := fmt.Fprint(w, ": keepalive\n\n")
			return err == nil
		case <-c.Request.Context().Done():
			return false
		case <-h.ctx.Done():
			return false
		}
	})
	logger.Info().Uint64("dropped", sub.Dropped()).Msg("stream listener gone")
}

func (h *handlers) ingestTranscript(c *gin.Context) {
	raw, ok := bearer(c.GetHeader("Authorization"))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	claims, err := h.api.Tokens.Verify(raw)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roomId required"})
		return
	}
	if !claims.Worker() || claims.Video.Room != req.RoomID {
		c.JSON(http.StatusForbidden, gin.H{"error": "token does not grant this room"})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text required"})
		return
	}

	ev := domain.TranscriptEvent{
		RoomID:              domain.RoomID(req.RoomID),
		Timestamp:           string(req.Timestamp),
		ParticipantIdentity: req.ParticipantIdentity,
		ParticipantName:     req.ParticipantName,
		Text:                text,
	}
	ev.StampNow(h.api.Now())
	res := h.api.Hub.Publish(ev.RoomID, ev)
	c.JSON(http.StatusOK, IngestResponse{Delivered: res.SentTo})
}

func (h *handlers) listRooms(c *gin.Context) {
	views := map[domain.RoomID]*RoomView{}
	for _, info := range h.api.Hub.List() {
		views[info.RoomID] = &RoomView{RoomID: info.RoomID, Subscribers: info.Subscribers}
	}
	for _, w := range h.api.Workers.List() {
		v, ok := views[w.RoomID]
		if !ok {
			v = &RoomView{RoomID: w.RoomID}
			views[w.RoomID] = v
		}
		v.WorkerRunning = true
	}
	out := make([]RoomView, 0, len(views))
	for _, v := range views {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	c.JSON(http.StatusOK, gin.H{"rooms": out})
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func isValidation(err error) bool {
	return errors.Is(err, domain.ErrRoomIDEmpty) ||
		errors.Is(err, domain.ErrRoomIDTooLong) ||
		errors.Is(err, domain.ErrUsernameEmpty) ||
		errors.Is(err, domain.ErrUsernameTooLong)
}
