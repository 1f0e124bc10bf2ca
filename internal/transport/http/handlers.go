package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/nadzzz/nova/internal/apperr"
	"github.com/nadzzz/nova/internal/message"
	"github.com/nadzzz/nova/internal/transport"
)

type handlers struct {
	svc transport.Service
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Input("request body is empty")
		}
		return apperr.Input("invalid json: %v", err)
	}
	return nil
}

// sessionID prefers the body's session id and falls back to the query.
func sessionID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return r.URL.Query().Get("session_id")
}

// chat runs one conversational turn.
//
// @Summary     Run a conversational turn
// @Description Classifies the user's emotion, generates a reply in the persona's voice and styles it.
// @Description Set speak=true to also receive a synthesized audio URL.
// @Tags        conversation
// @Accept      json
// @Produce     json
// @Param       request  body      message.ChatRequest  true  "User message and recent history"
// @Success     200      {object}  message.TurnResult
// @Failure     400      {object}  message.ErrorResponse  "Empty text or invalid body"
// @Failure     500      {object}  message.ErrorResponse
// @Router      /chat [post]
func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req message.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.SessionID = sessionID(r, req.SessionID)

	res, err := h.svc.RunTurn(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// detectEmotion classifies text.
//
// @Summary     Detect emotion
// @Tags        emotion
// @Accept      json
// @Produce     json
// @Param       request  body      message.EmotionRequest  true  "Text to classify"
// @Success     200      {object}  message.EmotionResponse
// @Failure     400      {object}  message.ErrorResponse
// @Failure     403      {object}  message.ErrorResponse  "Emotion detection disabled"
// @Router      /detect-emotion [post]
func (h *handlers) detectEmotion(w http.ResponseWriter, r *http.Request) {
	var req message.EmotionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.SessionID = sessionID(r, req.SessionID)

	res, err := h.svc.DetectEmotion(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// updateMemory stores one fact.
//
// @Summary     Update memory
// @Tags        memory
// @Accept      json
// @Produce     json
// @Param       request  body      message.MemoryUpdate  true  "Key and value"
// @Success     200      {object}  message.MemoryUpdateResponse
// @Failure     400      {object}  message.ErrorResponse
// @Failure     403      {object}  message.ErrorResponse  "Memory disabled"
// @Router      /update-memory [post]
func (h *handlers) updateMemory(w http.ResponseWriter, r *http.Request) {
	var req message.MemoryUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.SessionID = sessionID(r, req.SessionID)

	res, err := h.svc.UpdateMemory(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// getMemory returns the session memory.
//
// @Summary     Get memory
// @Tags        memory
// @Produce     json
// @Param       session_id  query     string  false  "Session id"
// @Success     200         {object}  message.MemoryResponse
// @Router      /get-memory [get]
func (h *handlers) getMemory(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetMemory(r.Context(), &message.SessionRequest{SessionID: sessionID(r, "")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// updatePersonality adds a persona trait given as a query parameter or JSON body.
//
// @Summary     Add a personality trait
// @Tags        persona
// @Accept      json
// @Produce     json
// @Param       trait       query     string                false  "Trait to add"
// @Param       session_id  query     string                false  "Session id"
// @Param       request     body      message.TraitRequest  false  "Trait to add"
// @Success     200         {object}  message.TraitResponse
// @Failure     400         {object}  message.ErrorResponse
// @Router      /update-personality [post]
func (h *handlers) updatePersonality(w http.ResponseWriter, r *http.Request) {
	req := message.TraitRequest{Trait: r.URL.Query().Get("trait")}
	if req.Trait == "" {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	req.SessionID = sessionID(r, req.SessionID)

	res, err := h.svc.AddPersonaTrait(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// systemStatus reports component availability and session state.
//
// @Summary     System status
// @Tags        system
// @Produce     json
// @Param       session_id  query     string  false  "Session id"
// @Success     200         {object}  message.StatusResponse
// @Router      /system-status [get]
func (h *handlers) systemStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Status(r.Context(), &message.SessionRequest{SessionID: sessionID(r, "")})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// speechToText transcribes a multipart "file" upload or a raw audio body.
//
// @Summary     Speech to text
// @Tags        voice
// @Accept      multipart/form-data
// @Accept      audio/wav
// @Accept      audio/basic
// @Produce     json
// @Param       file  formData  file  false  "Audio file"
// @Success     200   {object}  message.TranscribeResponse
// @Failure     400   {object}  message.ErrorResponse
// @Failure     403   {object}  message.ErrorResponse  "Speech-to-text disabled"
// @Failure     502   {object}  message.ErrorResponse  "Transcription backend failed"
// @Router      /speech-to-text [post]
func (h *handlers) speechToText(w http.ResponseWriter, r *http.Request) {
	req, err := readAudio(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.svc.Transcribe(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func readAudio(r *http.Request) (*message.TranscribeRequest, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxAudioBody); err != nil {
			return nil, apperr.Input("invalid multipart body: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return nil, apperr.Input("missing form file %q", "file")
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxAudioBody))
		if err != nil {
			return nil, apperr.Input("reading upload: %v", err)
		}
		partType := hdr.Header.Get("Content-Type")
		if partType == "" || partType == "application/octet-stream" {
			partType = contentTypeFromName(hdr.Filename)
		}
		return &message.TranscribeRequest{Audio: data, ContentType: partType}, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBody))
	if err != nil {
		return nil, apperr.Input("reading audio: %v", err)
	}
	return &message.TranscribeRequest{Audio: data, ContentType: contentType}, nil
}

func contentTypeFromName(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "audio/wav"
	}
	if ct := mime.TypeByExtension(name[i:]); ct != "" {
		return ct
	}
	return "audio/wav"
}

// textToSpeech synthesizes text and returns the artifact URL.
//
// @Summary     Text to speech
// @Tags        voice
// @Accept      json
// @Produce     json
// @Param       request  body      message.SpeechRequest  true  "Text and optional emotion"
// @Success     200      {object}  message.SpeechResponse
// @Failure     400      {object}  message.ErrorResponse
// @Failure     403      {object}  message.ErrorResponse  "Voice disabled"
// @Failure     502      {object}  message.ErrorResponse  "Synthesis backend failed"
// @Router      /text-to-speech [post]
func (h *handlers) textToSpeech(w http.ResponseWriter, r *http.Request) {
	var req message.SpeechRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	req.SessionID = sessionID(r, req.SessionID)

	res, err := h.svc.Speak(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
