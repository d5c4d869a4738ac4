package http

import (
	"net/http"
	"pulse-lab/domain/poll"
	"pulse-lab/errors"
	"pulse-lab/infrastructure/codec"
	"pulse-lab/services"
	"time"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.CreateSession(r.Context())
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	resp := &SessionResponse{
		SessionID: string(session.ID),
		CreatedAt: session.CreatedAt.Format(time.RFC3339),
		JoinURL:   s.service.JoinURL(session.ID),
	}
	if s.issuer != nil {
		if resp.PresenterToken, err = s.issuer.Issue(session.ID); err != nil {
			s.sendDomainError(w, err)
			return
		}
	}
	s.sendSuccess(w, http.StatusCreated, resp)
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.EndSession(r.Context(), sessionParam(r)); err != nil {
		s.sendDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePublish expects {"origin": "...", "prompt": {...}}; a bare prompt object is accepted too.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	promptStruct := codec.Struct(body, codec.FieldPrompt)
	if promptStruct == nil {
		promptStruct = body
	}
	prompt, err := codec.PromptFromStruct(promptStruct)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	stored, published, err := s.service.Publish(r.Context(), services.PublishCommand{
		Session: sessionParam(r),
		Prompt:  prompt,
		Origin:  codec.String(body, codec.FieldOrigin),
	})
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	if !published {
		s.sendDomainError(w, errors.ErrSessionNotFound)
		return
	}
	payload, err := promptJSON(stored)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, http.StatusOK, &PublishResponse{Published: published, Prompt: payload})
}

func (s *Server) handleActivePrompt(w http.ResponseWriter, r *http.Request) {
	prompt, err := s.service.ActivePrompt(r.Context(), sessionParam(r))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	payload, err := promptJSON(prompt)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, http.StatusOK, &PromptResponse{Prompt: payload})
}

func (s *Server) handleTally(w http.ResponseWriter, r *http.Request) {
	session, slide := sessionParam(r), slideParam(r)
	tally, err := s.service.Tally(r.Context(), session, slide)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	summary, err := s.service.Summary(r.Context(), session, slide)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, http.StatusOK, &TallyResponse{SlideID: slide, Tally: tally, Total: tally.Total(), Summary: summary})
}

// handleSubmit expects {"participantId": "...", "response": {"option": 0}} or {"word": "..."}.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	response, err := codec.ResponseFromStruct(codec.Struct(body, codec.FieldResponse))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	outcome, err := s.service.SubmitResponse(r.Context(), services.SubmitCommand{
		Session:     sessionParam(r),
		Slide:       slideParam(r),
		Participant: poll.ParticipantID(codec.String(body, codec.FieldParticipant)),
		Response:    response,
	})
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, http.StatusOK, &SubmitResponse{Result: outcome.Result, Key: outcome.Key, Tally: outcome.Tally})
}

func (s *Server) handleMark(w http.ResponseWriter, r *http.Request) {
	key, found, err := s.service.HasResponded(r.Context(), sessionParam(r), slideParam(r),
		poll.ParticipantID(mux.Vars(r)["participant"]))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}
	s.sendSuccess(w, http.StatusOK, &MarkResponse{Responded: found, Key: key})
}

// handleQRCode renders the participant join link of the session as a PNG.
func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request) {
	session := sessionParam(r)
	if err := poll.ValidateIdentifier(string(session)); err != nil {
		s.sendDomainError(w, err)
		return
	}
	png, err := qrcode.Encode(s.service.JoinURL(session), qrcode.Medium, qrSize)
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, "QR_FAILED", "QR code generation failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.sendSuccess(w, http.StatusOK, s.monitor.Latest())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.sendSuccess(w, http.StatusOK, &HealthResponse{Status: "ok"})
}

// sessionParam accepts codes typed in lower case.
func sessionParam(r *http.Request) poll.SessionID {
	return poll.ParseSessionID(mux.Vars(r)["id"])
}

func slideParam(r *http.Request) poll.SlideID {
	return poll.SlideID(mux.Vars(r)["slide"])
}
