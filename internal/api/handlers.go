package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"vocalsub/internal/logging"
	"vocalsub/internal/pipeline"
	"vocalsub/internal/services"
	"vocalsub/internal/session"
	"vocalsub/internal/transcript"
)

const (
	maxBodyBytes   = 1 << 20
	wsWriteTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func (s *Server) handleTranscript(w http.ResponseWriter, _ *http.Request) {
	segments := s.session.Segments()
	s.writeJSON(w, http.StatusOK, TranscriptResponse{
		Path:     s.session.Path(),
		Dirty:    s.session.Dirty(),
		Speakers: s.session.Speakers(),
		Segments: lo.Map(segments, func(seg transcript.Segment, _ int) Segment { return FromSegment(seg) }),
	})
}

func (s *Server) handleBlocks(w http.ResponseWriter, _ *http.Request) {
	blocks := s.session.Blocks()
	s.writeJSON(w, http.StatusOK, BlocksResponse{
		Blocks: lo.Map(blocks, func(b transcript.SpeakerBlock, _ int) Block { return FromBlock(b) }),
	})
}

func (s *Server) handleUpdateSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.segmentID(w, r)
	if !ok {
		return
	}
	var req SegmentUpdate
	if !s.decode(w, r, &req) {
		return
	}
	update, err := req.toUpdate()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	seg, err := s.session.Update(id, update)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, FromSegment(seg))
}

func (s *Server) handleDeleteSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := s.segmentID(w, r)
	if !ok {
		return
	}
	if err := s.session.Delete(id); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenameSpeaker(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !s.decode(w, r, &req) {
		return
	}
	changed, err := s.session.RenameSpeaker(req.From, req.To)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RenameResponse{Changed: changed})
}

func (s *Server) handleSave(w http.ResponseWriter, _ *http.Request) {
	if err := s.session.Save(); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PathResponse{Path: s.session.Path()})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	dir := trimmed(req.Dir)
	if dir == "" {
		dir = s.exportDir
	}
	path, err := s.session.ExportEdited(dir)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PathResponse{Path: path})
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeError(w, http.StatusServiceUnavailable, "pipeline runner not configured")
		return
	}
	var req RunRequest
	if !s.decode(w, r, &req) {
		return
	}
	if trimmed(req.Video) == "" {
		s.writeError(w, http.StatusBadRequest, "video path required")
		return
	}
	if err := s.startRun(trimmed(req.Video)); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "video": trimmed(req.Video)})
}

func (s *Server) handleCurrentRun(w http.ResponseWriter, _ *http.Request) {
	if s.runner == nil {
		s.writeJSON(w, http.StatusOK, RunResponse{})
		return
	}
	run, ok := s.runner.Current()
	if !ok {
		s.writeJSON(w, http.StatusOK, RunResponse{})
		return
	}
	s.writeJSON(w, http.StatusOK, RunResponse{Run: &run})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	backlog, events, cancel := s.hub.Subscribe()
	defer cancel()

	// Reader goroutine notices client close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	send := func(ev pipeline.Progress) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(ev) == nil
	}
	for _, ev := range backlog {
		if !send(ev) {
			return
		}
	}
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok || !send(ev) {
				return
			}
		}
	}
}

func (s *Server) segmentID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid segment id")
		return 0, false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	s.writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, transcript.ErrNotFound), errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, transcript.ErrInvalidRange),
		errors.Is(err, transcript.ErrInvalidSpeaker),
		errors.Is(err, transcript.ErrDuplicateID),
		errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrRunInProgress), errors.Is(err, session.ErrNoSource):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
