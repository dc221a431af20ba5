package chatbot

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
)

var noWordRe = regexp.MustCompile(`\bno\b`)

// Negative is checked before affirmative: "incorrect" contains
// "correct" as a substring and must not read as a yes.
func isNegativeReply(lower string) bool {
	return strings.Contains(lower, "wrong") ||
		strings.Contains(lower, "incorrect") ||
		noWordRe.MatchString(lower)
}

func isAffirmativeReply(lower string) bool {
	return strings.Contains(lower, "yes") ||
		strings.Contains(lower, "correct") ||
		strings.Contains(lower, "right")
}

// handleConfirmation interprets the requester's reply to the summary.
// Anything that is neither a yes nor a no re-prompts without touching
// the collected fields.
func (s *Service) handleConfirmation(ctx context.Context, sess *Session, text string) string {
	lower := strings.ToLower(text)
	switch {
	case isNegativeReply(lower):
		sess.Reset()
		s.store.Put(sess.RequesterID, sess)
		return msgRestart
	case isAffirmativeReply(lower):
		return s.commit(ctx, sess)
	default:
		s.store.Put(sess.RequesterID, sess)
		return retryConfirmation
	}
}

// commit repairs any value that stopped validating since it was
// collected, hands the draft to the persistence collaborator and
// destroys the session either way. The requester already confirmed the
// summary, so implausible leftovers are silently replaced with safe
// defaults instead of failing the whole intake.
func (s *Service) commit(ctx context.Context, sess *Session) string {
	now := s.now()

	bags := sess.Fields[FieldBagNeeded]
	if !ValidateBloodBags(bags) {
		bags = "1"
	}
	hemoglobin := sess.Fields[FieldHemoglobin]
	if hemoglobin != NotSpecified && !ValidateHemoglobin(hemoglobin) {
		hemoglobin = NotSpecified
	}
	date := sess.Fields[FieldDate]
	if !validateDateAt(date, now) {
		date = now.Format(dateLayout)
	}

	d := Draft{
		RequesterID:     sess.RequesterID,
		BloodType:       sess.Fields[FieldBloodType],
		Hospital:        sess.Fields[FieldHospital],
		Location:        sess.Fields[FieldLocation],
		Zone:            sess.Fields[FieldZone],
		PatientProblem:  sess.Fields[FieldPatientProblem],
		BagNeeded:       bags,
		Date:            date,
		Time:            sess.Fields[FieldTime],
		HemoglobinPoint: hemoglobin,
		AdditionalInfo:  sess.Fields[FieldAdditionalInfo],
	}

	id, err := s.creator.CreateBloodRequest(ctx, d)
	s.store.Delete(sess.RequesterID)
	if err != nil {
		log.Printf("blood request commit failed for %s: %v", sess.RequesterID, err)
		return msgPersistenceFailure
	}
	return successMessage(id.String(), d)
}

// renderSummary produces the confirmation text shown before commit.
func (s *Service) renderSummary(sess *Session) string {
	var b strings.Builder
	b.WriteString("Here is your blood donation request:\n\n")
	writeFieldLines(&b, sess.Fields[FieldBloodType], sess.Fields[FieldHospital],
		sess.Fields[FieldLocation], sess.Fields[FieldZone],
		sess.Fields[FieldPatientProblem], sess.Fields[FieldBagNeeded],
		sess.Fields[FieldDate], sess.Fields[FieldTime],
		sess.Fields[FieldHemoglobin], sess.Fields[FieldAdditionalInfo])
	b.WriteString("\nIs everything correct? Reply \"yes\" to confirm or \"no\" to start over.")
	return b.String()
}

func successMessage(id string, d Draft) string {
	var b strings.Builder
	b.WriteString("Your blood donation request has been created. Donors in your area will be notified.\n\n")
	fmt.Fprintf(&b, "Request ID: %s\n", id)
	writeFieldLines(&b, d.BloodType, d.Hospital, d.Location, d.Zone,
		d.PatientProblem, d.BagNeeded, d.Date, d.Time, d.HemoglobinPoint, d.AdditionalInfo)
	return b.String()
}

func writeFieldLines(b *strings.Builder, bloodType, hospital, location, zone, problem, bags, date, tm, hemoglobin, info string) {
	fmt.Fprintf(b, "• Blood type: %s\n", bloodType)
	fmt.Fprintf(b, "• Hospital: %s\n", hospital)
	fmt.Fprintf(b, "• Location: %s\n", location)
	fmt.Fprintf(b, "• Zone: %s\n", zone)
	fmt.Fprintf(b, "• Patient problem: %s\n", problem)
	fmt.Fprintf(b, "• Bags needed: %s\n", bags)
	fmt.Fprintf(b, "• Date: %s\n", date)
	fmt.Fprintf(b, "• Time: %s\n", tm)
	fmt.Fprintf(b, "• Hemoglobin: %s\n", hemoglobin)
	if info != "" {
		fmt.Fprintf(b, "• Additional info: %s\n", info)
	}
}
