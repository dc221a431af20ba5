package chatbot

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestCreator is the persistence collaborator invoked once per
// confirmed intake. Implemented by the request service.
type RequestCreator interface {
	CreateBloodRequest(ctx context.Context, d Draft) (uuid.UUID, error)
}

// FallbackResponder answers messages that neither belong to an active
// session nor express intake intent.
type FallbackResponder interface {
	Respond(ctx context.Context, text string, history []Message) (string, error)
}

const fallbackApology = "I'm having trouble answering right now. You can say \"create blood request\" to start a blood donation request, or try again in a moment."

// historyLimit caps the rolling fallback conversation kept per
// requester.
const historyLimit = 10

// Service drives the intake dialogue. The session store is the only
// shared mutable state; everything else is pure functions over the
// message text.
type Service struct {
	store    *SessionStore
	creator  RequestCreator
	fallback FallbackResponder

	histMu    sync.Mutex
	histories map[string][]Message

	now func() time.Time
}

func NewService(store *SessionStore, creator RequestCreator, fallback FallbackResponder) *Service {
	return &Service{
		store:     store,
		creator:   creator,
		fallback:  fallback,
		histories: make(map[string][]Message),
		now:       time.Now,
	}
}

// ProcessMessage is the sole entry point: it advances the requester's
// session (or opens/declines one) and always returns a user-facing
// string. Turns for the same requester are serialized; turns for
// different requesters run concurrently.
func (s *Service) ProcessMessage(ctx context.Context, requesterID, text string) string {
	unlock := s.store.Lock(requesterID)
	defer unlock()

	sess, ok := s.store.Get(requesterID)
	if !ok {
		// No session (or it just expired): the same message decides
		// whether to open one.
		if DetectIntent(text) {
			s.store.Put(requesterID, NewSession(requesterID))
			return promptBloodType
		}
		return s.respondFallback(ctx, requesterID, text)
	}
	return s.advance(ctx, sess, text)
}

func (s *Service) respondFallback(ctx context.Context, requesterID, text string) string {
	history := s.historyFor(requesterID)
	reply, err := s.fallback.Respond(ctx, text, history)
	if err != nil {
		log.Printf("fallback responder failed for %s: %v", requesterID, err)
		return fallbackApology
	}
	s.appendHistory(requesterID, text, reply)
	return reply
}

func (s *Service) historyFor(requesterID string) []Message {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	h := s.histories[requesterID]
	out := make([]Message, len(h))
	copy(out, h)
	return out
}

func (s *Service) appendHistory(requesterID, userText, reply string) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	h := append(s.histories[requesterID],
		Message{Role: "user", Content: userText},
		Message{Role: "assistant", Content: reply},
	)
	if len(h) > historyLimit {
		h = h[len(h)-historyLimit:]
	}
	s.histories[requesterID] = h
}

// advance runs one dialogue turn: opportunistic backfill, then the
// stage-specific handler. The mutated session is written back (or
// deleted on completion) before returning.
func (s *Service) advance(ctx context.Context, sess *Session, text string) string {
	if sess.Stage != StageConfirmation {
		s.backfill(sess, text)
	}

	if sess.Stage == StageConfirmation {
		return s.handleConfirmation(ctx, sess, text)
	}

	reply, captured := s.handleStage(sess, text)
	if captured {
		sess.Stage = nextStage(sess)
		if sess.Stage == StageConfirmation {
			reply = s.renderSummary(sess)
		} else {
			reply = s.promptFor(sess.Stage)
		}
	}
	s.store.Put(sess.RequesterID, sess)
	return reply
}

// backfill tries every not-yet-collected field's opportunistic scanner
// against the message. Already-set fields are never overwritten, and a
// scanned value still has to pass the field's validator.
func (s *Service) backfill(sess *Session, text string) {
	now := s.now()
	for _, d := range fieldCatalog {
		if d.scan == nil {
			continue
		}
		if _, set := sess.Fields[d.name]; set {
			continue
		}
		v, ok := d.scan(text)
		if !ok {
			continue
		}
		if d.validate != nil && !d.validate(v, now) {
			continue
		}
		sess.Fields[d.name] = v
	}
}

// handleStage dispatches the message to the handler for the session's
// current stage. It returns either a re-prompt (captured == false) or a
// don't-care reply with captured == true, in which case advance derives
// the next prompt from the new frontier.
func (s *Service) handleStage(sess *Session, text string) (reply string, captured bool) {
	now := s.now()
	lower := strings.ToLower(text)

	switch sess.Stage {
	case StageInitial, StageBloodType:
		return s.captureField(sess, FieldBloodType, text, now, retryBloodType)

	case StageHospital:
		return s.captureField(sess, FieldHospital, text, now, retryHospital)

	case StageLocation:
		return s.captureField(sess, FieldLocation, text, now, retryLocation)

	case StageZone:
		return s.captureField(sess, FieldZone, text, now, retryZone)

	case StagePatientProblem:
		return s.captureField(sess, FieldPatientProblem, text, now, retryPatientProblem)

	case StageBagNeeded:
		v, ok := ExtractInteger(text)
		if !ok {
			return retryBagNumber, false
		}
		if !ValidateBloodBags(v) {
			return retryBagUnusual, false
		}
		sess.Fields[FieldBagNeeded] = v
		return "", true

	case StageDate:
		v, ok := extractDateAt(text, now)
		if !ok {
			return retryDateParse, false
		}
		if !validateDateAt(v, now) {
			return retryDateRange, false
		}
		sess.Fields[FieldDate] = v
		return "", true

	case StageTime:
		v, ok := ExtractTime(text)
		if !ok || !ValidateTime(v) {
			return retryTime, false
		}
		sess.Fields[FieldTime] = v
		return "", true

	case StageHemoglobin:
		if strings.Contains(lower, "skip") || strings.Contains(lower, "unknown") {
			sess.Fields[FieldHemoglobin] = NotSpecified
			return "", true
		}
		v, ok := ExtractDecimal(text)
		if !ok || !ValidateHemoglobin(v) {
			return retryHemoglobin, false
		}
		sess.Fields[FieldHemoglobin] = v
		return "", true

	case StageAdditionalInfo:
		if strings.Contains(lower, "skip") {
			sess.Fields[FieldAdditionalInfo] = ""
		} else {
			sess.Fields[FieldAdditionalInfo] = strings.TrimSpace(text)
		}
		return "", true
	}

	// Unknown stage values cannot arise through normal transitions;
	// recover by restarting the intake.
	sess.Reset()
	return msgRestart, false
}

// captureField runs the catalog extractor+validator for one field. The
// opportunistic pass may already have filled the field from this same
// message; that counts as a capture too.
func (s *Service) captureField(sess *Session, field, text string, now time.Time, retry string) (string, bool) {
	if _, set := sess.Fields[field]; set {
		return "", true
	}
	d, ok := descriptorForField(field)
	if !ok || d.extract == nil {
		return retry, false
	}
	v, ok := d.extract(text, now)
	if !ok {
		return retry, false
	}
	if d.validate != nil && !d.validate(v, now) {
		return retry, false
	}
	sess.Fields[field] = v
	return "", true
}

func descriptorForField(name string) (fieldDescriptor, bool) {
	for _, d := range fieldCatalog {
		if d.name == name {
			return d, true
		}
	}
	return fieldDescriptor{}, false
}

func (s *Service) promptFor(stage Stage) string {
	d, ok := descriptorFor(stage)
	if !ok {
		return promptBloodType
	}
	return d.prompt
}
