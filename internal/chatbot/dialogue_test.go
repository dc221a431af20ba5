package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeCreator struct {
	drafts []Draft
	err    error
}

func (f *fakeCreator) CreateBloodRequest(_ context.Context, d Draft) (uuid.UUID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	f.drafts = append(f.drafts, d)
	return uuid.New(), nil
}

type fakeResponder struct {
	calls []string
	reply string
}

func (f *fakeResponder) Respond(_ context.Context, text string, _ []Message) (string, error) {
	f.calls = append(f.calls, text)
	return f.reply, nil
}

func newTestService(t *testing.T) (*Service, *fakeCreator, *fakeResponder) {
	t.Helper()
	creator := &fakeCreator{}
	responder := &fakeResponder{reply: "general answer"}
	svc := NewService(NewSessionStore(), creator, responder)
	return svc, creator, responder
}

func TestIntentOpensSession(t *testing.T) {
	t.Parallel()

	svc, _, responder := newTestService(t)
	ctx := context.Background()

	reply := svc.ProcessMessage(ctx, "u1", "we need blood urgently for my father")
	if reply != promptBloodType {
		t.Fatalf("expected blood type prompt, got %q", reply)
	}
	sess, ok := svc.store.Get("u1")
	if !ok {
		t.Fatal("no session created")
	}
	if sess.Stage != StageInitial {
		t.Fatalf("new session at stage %q, want %q", sess.Stage, StageInitial)
	}
	if len(responder.calls) != 0 {
		t.Fatal("fallback responder invoked for an intent message")
	}
}

func TestNonIntentFallsThroughToResponder(t *testing.T) {
	t.Parallel()

	svc, _, responder := newTestService(t)
	ctx := context.Background()

	reply := svc.ProcessMessage(ctx, "u1", "can I donate blood after a tattoo?")
	if reply != "general answer" {
		t.Fatalf("expected fallback reply, got %q", reply)
	}
	if len(responder.calls) != 1 {
		t.Fatalf("fallback responder called %d times, want 1", len(responder.calls))
	}
	if _, ok := svc.store.Get("u1"); ok {
		t.Fatal("a session was created for a non-intent message")
	}
}

func TestBagNeededStageAdvancesToDate(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	sess := sessionAtStage("u1", StageBagNeeded)
	svc.store.Put("u1", sess)

	reply := svc.ProcessMessage(context.Background(), "u1", "we need 3 bags")
	if reply != promptDate {
		t.Fatalf("expected date prompt, got %q", reply)
	}
	if sess.Fields[FieldBagNeeded] != "3" {
		t.Fatalf("bag count = %q, want \"3\"", sess.Fields[FieldBagNeeded])
	}
	if sess.Stage != StageDate {
		t.Fatalf("stage = %q, want %q", sess.Stage, StageDate)
	}
}

func TestBagNeededRejectsImplausibleCount(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	sess := sessionAtStage("u1", StageBagNeeded)
	svc.store.Put("u1", sess)
	ctx := context.Background()

	if reply := svc.ProcessMessage(ctx, "u1", "50 bags"); reply != retryBagUnusual {
		t.Fatalf("expected unusual-count re-prompt, got %q", reply)
	}
	if reply := svc.ProcessMessage(ctx, "u1", "a few"); reply != retryBagNumber {
		t.Fatalf("expected ask-for-number re-prompt, got %q", reply)
	}
	if sess.Stage != StageBagNeeded {
		t.Fatalf("stage moved to %q on invalid input", sess.Stage)
	}
}

func TestDateStageResolvesTomorrow(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	now := time.Date(2026, time.June, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	sess := sessionAtStage("u1", StageDate)
	svc.store.Put("u1", sess)

	reply := svc.ProcessMessage(context.Background(), "u1", "tomorrow")
	if reply != promptTime {
		t.Fatalf("expected time prompt, got %q", reply)
	}
	if got, want := sess.Fields[FieldDate], "11/06/2026"; got != want {
		t.Fatalf("date = %q, want %q", got, want)
	}
}

func TestDateStageRejectsOutOfWindow(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	now := time.Date(2026, time.June, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	sess := sessionAtStage("u1", StageDate)
	svc.store.Put("u1", sess)
	ctx := context.Background()

	if reply := svc.ProcessMessage(ctx, "u1", "15/08/2026"); reply != retryDateRange {
		t.Fatalf("expected window re-prompt, got %q", reply)
	}
	if reply := svc.ProcessMessage(ctx, "u1", "whenever"); reply != retryDateParse {
		t.Fatalf("expected format re-prompt, got %q", reply)
	}
}

func TestConfirmationRejectionResetsSession(t *testing.T) {
	t.Parallel()

	svc, creator, _ := newTestService(t)
	sess := fullSession("u1")
	svc.store.Put("u1", sess)

	reply := svc.ProcessMessage(context.Background(), "u1", "No, that's wrong")
	if !strings.Contains(reply, promptBloodType) {
		t.Fatalf("expected restart with blood type prompt, got %q", reply)
	}
	if sess.Stage != StageInitial {
		t.Fatalf("stage = %q after rejection, want %q", sess.Stage, StageInitial)
	}
	if len(sess.Fields) != 0 {
		t.Fatalf("fields not cleared: %v", sess.Fields)
	}
	if len(creator.drafts) != 0 {
		t.Fatal("a rejected request was committed")
	}
}

func TestConfirmationUnclearReplyReprompts(t *testing.T) {
	t.Parallel()

	svc, creator, _ := newTestService(t)
	sess := fullSession("u1")
	svc.store.Put("u1", sess)
	fields := len(sess.Fields)

	reply := svc.ProcessMessage(context.Background(), "u1", "maybe")
	if reply != retryConfirmation {
		t.Fatalf("expected yes/no re-prompt, got %q", reply)
	}
	if len(sess.Fields) != fields || sess.Stage != StageConfirmation {
		t.Fatal("unclear reply mutated the session")
	}
	if len(creator.drafts) != 0 {
		t.Fatal("unclear reply committed the request")
	}
}

func TestConfirmationCommit(t *testing.T) {
	t.Parallel()

	svc, creator, _ := newTestService(t)
	sess := fullSession("u1")
	svc.store.Put("u1", sess)

	reply := svc.ProcessMessage(context.Background(), "u1", "yes, all correct")
	if !strings.Contains(reply, "Request ID") {
		t.Fatalf("expected success summary, got %q", reply)
	}
	if len(creator.drafts) != 1 {
		t.Fatalf("creator called %d times, want 1", len(creator.drafts))
	}
	d := creator.drafts[0]
	if d.BloodType != "B+" || d.Hospital != "Dhaka Medical College" || d.BagNeeded != "2" {
		t.Fatalf("unexpected draft: %+v", d)
	}
	if _, ok := svc.store.Get("u1"); ok {
		t.Fatal("session survived a successful commit")
	}
}

func TestCommitRepairsInvalidLeftovers(t *testing.T) {
	t.Parallel()

	svc, creator, _ := newTestService(t)
	now := time.Date(2026, time.June, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	sess := fullSession("u1")
	// Values that were accepted earlier but no longer validate.
	sess.Fields[FieldBagNeeded] = "99"
	sess.Fields[FieldHemoglobin] = "3.2"
	sess.Fields[FieldDate] = "01/01/2020"
	svc.store.Put("u1", sess)

	svc.ProcessMessage(context.Background(), "u1", "yes")
	if len(creator.drafts) != 1 {
		t.Fatal("commit did not reach the creator")
	}
	d := creator.drafts[0]
	if d.BagNeeded != "1" {
		t.Errorf("bag count repaired to %q, want \"1\"", d.BagNeeded)
	}
	if d.HemoglobinPoint != NotSpecified {
		t.Errorf("hemoglobin repaired to %q, want %q", d.HemoglobinPoint, NotSpecified)
	}
	if d.Date != "10/06/2026" {
		t.Errorf("date repaired to %q, want today", d.Date)
	}
}

func TestCommitPersistenceFailure(t *testing.T) {
	t.Parallel()

	svc, creator, _ := newTestService(t)
	creator.err = errors.New("db unreachable")

	sess := fullSession("u1")
	svc.store.Put("u1", sess)

	reply := svc.ProcessMessage(context.Background(), "u1", "yes")
	if reply != msgPersistenceFailure {
		t.Fatalf("expected persistence apology, got %q", reply)
	}
	if _, ok := svc.store.Get("u1"); ok {
		t.Fatal("session survived a failed commit")
	}
}

func TestRepromptIsIdempotent(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	sess := sessionAtStage("u1", StageHospital)
	svc.store.Put("u1", sess)
	ctx := context.Background()

	first := svc.ProcessMessage(ctx, "u1", "ab")
	second := svc.ProcessMessage(ctx, "u1", "ab")
	if first != second || first != retryHospital {
		t.Fatalf("re-prompt not stable: %q vs %q", first, second)
	}
	if got := sess.Fields[FieldBloodType]; got != "B+" {
		t.Fatalf("collected field corrupted: bloodType = %q", got)
	}
	if sess.Stage != StageHospital {
		t.Fatalf("stage drifted to %q", sess.Stage)
	}
}

func TestExpiredSessionFallsThroughToIntentDetection(t *testing.T) {
	t.Parallel()

	svc, _, responder := newTestService(t)
	sess := sessionAtStage("u1", StageZone)
	svc.store.Put("u1", sess)
	sess.LastUpdated = time.Now().Add(-31 * time.Minute)
	ctx := context.Background()

	// Non-intent message: session is silently dropped, fallback answers.
	reply := svc.ProcessMessage(ctx, "u1", "Azimpur area")
	if reply != "general answer" {
		t.Fatalf("expected fallback reply, got %q", reply)
	}
	if len(responder.calls) != 1 {
		t.Fatal("fallback responder not invoked after expiry")
	}
	if svc.store.Len() != 0 {
		t.Fatal("expired session still stored")
	}

	// Intent message after expiry opens a fresh session.
	sess2 := sessionAtStage("u1", StageZone)
	svc.store.Put("u1", sess2)
	sess2.LastUpdated = time.Now().Add(-31 * time.Minute)

	reply = svc.ProcessMessage(ctx, "u1", "create blood request")
	if reply != promptBloodType {
		t.Fatalf("expected blood type prompt, got %q", reply)
	}
	fresh, ok := svc.store.Get("u1")
	if !ok || fresh.Stage != StageInitial || len(fresh.Fields) != 0 {
		t.Fatal("intent after expiry did not open a fresh session")
	}
}

func TestVerboseMessageShortCircuitsStages(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	sess := NewSession("u1")
	svc.store.Put("u1", sess)

	reply := svc.ProcessMessage(context.Background(), "u1",
		"O- needed, patient is at Square Hospital, suffering from dengue, need 2 bags")
	if sess.Fields[FieldBloodType] != "O-" {
		t.Fatalf("bloodType = %q", sess.Fields[FieldBloodType])
	}
	if sess.Fields[FieldHospital] != "Square Hospital" {
		t.Fatalf("hospital = %q", sess.Fields[FieldHospital])
	}
	if sess.Fields[FieldPatientProblem] != "dengue" {
		t.Fatalf("patientProblem = %q", sess.Fields[FieldPatientProblem])
	}
	if sess.Fields[FieldBagNeeded] != "2" {
		t.Fatalf("bagNeeded = %q", sess.Fields[FieldBagNeeded])
	}
	// Frontier after backfill is the first gap: location.
	if sess.Stage != StageLocation {
		t.Fatalf("stage = %q, want %q", sess.Stage, StageLocation)
	}
	if reply != promptLocation {
		t.Fatalf("expected location prompt, got %q", reply)
	}
}

func TestBackfillNeverOverwrites(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	sess := sessionAtStage("u1", StageLocation)
	svc.store.Put("u1", sess)

	// Mentions a different blood group; the collected one must stand.
	svc.ProcessMessage(context.Background(), "u1", "near the A+ donation camp in Azimpur")
	if got := sess.Fields[FieldBloodType]; got != "B+" {
		t.Fatalf("backfill overwrote bloodType: %q", got)
	}
}

func TestFullHappyPath(t *testing.T) {
	t.Parallel()

	svc, creator, _ := newTestService(t)
	now := time.Date(2026, time.June, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	steps := []struct {
		message string
		want    string
	}{
		{"I want to request blood for my brother", promptBloodType},
		{"B+", promptHospital},
		{"Dhaka Medical College", promptLocation},
		{"Azimpur, Dhaka", promptZone},
		{"Lalbagh", promptPatientProblem},
		{"thalassemia", promptBagNeeded},
		{"2 bags", promptDate},
		{"tomorrow", promptTime},
		{"2:30 PM", promptHemoglobin},
		{"skip", promptAdditionalInfo},
	}
	for i, step := range steps {
		got := svc.ProcessMessage(ctx, "u1", step.message)
		if got != step.want {
			t.Fatalf("step %d (%q): got %q, want %q", i, step.message, got, step.want)
		}
	}

	summary := svc.ProcessMessage(ctx, "u1", "Please call after 6 PM")
	for _, want := range []string{"B+", "Dhaka Medical College", "11/06/2026", "2:30 PM", NotSpecified} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}

	success := svc.ProcessMessage(ctx, "u1", "yes")
	if !strings.Contains(success, "Request ID") {
		t.Fatalf("expected success message, got %q", success)
	}
	if len(creator.drafts) != 1 {
		t.Fatalf("creator called %d times, want 1", len(creator.drafts))
	}
	d := creator.drafts[0]
	want := Draft{
		RequesterID:     "u1",
		BloodType:       "B+",
		Hospital:        "Dhaka Medical College",
		Location:        "Azimpur, Dhaka",
		Zone:            "Lalbagh",
		PatientProblem:  "thalassemia",
		BagNeeded:       "2",
		Date:            "11/06/2026",
		Time:            "2:30 PM",
		HemoglobinPoint: NotSpecified,
		AdditionalInfo:  "Please call after 6 PM",
	}
	if d != want {
		t.Fatalf("draft mismatch:\ngot  %+v\nwant %+v", d, want)
	}
}

// sessionAtStage builds a session with every field before the given
// stage already collected.
func sessionAtStage(requesterID string, stage Stage) *Session {
	sess := fullSession(requesterID)
	sess.Stage = stage
	// Drop the stage's own field and everything after it.
	drop := false
	for _, d := range fieldCatalog {
		if d.stage == stage {
			drop = true
		}
		if drop {
			delete(sess.Fields, d.name)
		}
	}
	return sess
}

func fullSession(requesterID string) *Session {
	tomorrow := time.Now().AddDate(0, 0, 1).Format(dateLayout)
	return &Session{
		RequesterID: requesterID,
		Stage:       StageConfirmation,
		Fields: map[string]string{
			FieldBloodType:      "B+",
			FieldHospital:       "Dhaka Medical College",
			FieldLocation:       "Azimpur, Dhaka",
			FieldZone:           "Lalbagh",
			FieldPatientProblem: "thalassemia",
			FieldBagNeeded:      "2",
			FieldDate:           tomorrow,
			FieldTime:           "2:30 PM",
			FieldHemoglobin:     NotSpecified,
			FieldAdditionalInfo: fmt.Sprintf("created for test %s", requesterID),
		},
	}
}
