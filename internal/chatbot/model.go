package chatbot

import (
	"time"
)

// Stage is a named step in the intake dialogue.
type Stage string

const (
	StageInitial        Stage = "initial"
	StageBloodType      Stage = "bloodType"
	StageHospital       Stage = "hospital"
	StageLocation       Stage = "location"
	StageZone           Stage = "zone"
	StagePatientProblem Stage = "patientProblem"
	StageBagNeeded      Stage = "bagNeeded"
	StageDate           Stage = "date"
	StageTime           Stage = "time"
	StageHemoglobin     Stage = "hemoglobinPoint"
	StageAdditionalInfo Stage = "additionalInfo"
	StageConfirmation   Stage = "confirmation"
)

// Field names used as keys in Session.Fields.
const (
	FieldBloodType      = "bloodType"
	FieldHospital       = "hospital"
	FieldLocation       = "location"
	FieldZone           = "zone"
	FieldPatientProblem = "patientProblem"
	FieldBagNeeded      = "bagNeeded"
	FieldDate           = "date"
	FieldTime           = "time"
	FieldHemoglobin     = "hemoglobinPoint"
	FieldAdditionalInfo = "additionalInfo"
)

// NotSpecified is recorded when the requester skips an optional value.
const NotSpecified = "Not specified"

// Session tracks one requester's in-progress intake.
type Session struct {
	RequesterID string
	Stage       Stage
	Fields      map[string]string
	LastUpdated time.Time
}

func NewSession(requesterID string) *Session {
	return &Session{
		RequesterID: requesterID,
		Stage:       StageInitial,
		Fields:      make(map[string]string),
	}
}

// Reset clears all collected fields and returns the session to the
// opening stage. Used when the requester rejects the summary.
func (s *Session) Reset() {
	s.Stage = StageInitial
	s.Fields = make(map[string]string)
}

// Draft is the fully-populated projection of a session's fields handed
// to the persistence collaborator at commit time.
type Draft struct {
	RequesterID     string
	BloodType       string
	Hospital        string
	Location        string
	Zone            string
	PatientProblem  string
	BagNeeded       string
	Date            string
	Time            string
	HemoglobinPoint string
	AdditionalInfo  string
}

// Message is one turn of the generic fallback conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Prompts and re-prompts, one per stage.
const (
	promptBloodType = "I can help you create a blood donation request. What blood type does the patient need? (A+, A-, B+, B-, AB+, AB-, O+, O-)"
	retryBloodType  = "Sorry, I couldn't recognize a blood type. Please tell me one of: A+, A-, B+, B-, AB+, AB-, O+ or O-."

	promptHospital = "Which hospital is the patient admitted to?"
	retryHospital  = "Please give me the hospital name (a few words is fine)."

	promptLocation = "Where is the hospital located? (area and city)"
	retryLocation  = "Please describe the hospital's location in a bit more detail."

	promptZone = "Which zone or district is that in?"
	retryZone  = "Please tell me the zone or district name."

	promptPatientProblem = "What is the patient's problem? (why is blood needed)"
	retryPatientProblem  = "Please describe the patient's condition in a few words."

	promptBagNeeded   = "How many bags of blood are needed?"
	retryBagNumber    = "Please tell me the number of bags needed, e.g. \"2 bags\"."
	retryBagUnusual   = "That number of bags seems unusual. Requests are usually between 1 and 10 bags - how many do you need?"

	promptDate     = "When is the blood needed? You can say \"today\", \"tomorrow\" or give a date like 25/12/2026."
	retryDateRange = "That date is outside the window I can accept. Please pick a date between today and 30 days from now."
	retryDateParse = "Sorry, I couldn't read that date. Please say \"today\", \"tomorrow\" or use the DD/MM/YYYY format."

	promptTime = "At what time is the blood needed? (e.g. 14:30 or 2:30 PM)"
	retryTime  = "Sorry, I couldn't read that time. Please use a format like 14:30 or 2:30 PM."

	promptHemoglobin = "What is the patient's hemoglobin level in g/dL? Type \"skip\" if you don't know."
	retryHemoglobin  = "That hemoglobin value seems implausible. It is usually between 7.0 and 20.0 g/dL - or type \"skip\"."

	promptAdditionalInfo = "Any additional information for donors? Type \"skip\" if none."

	retryConfirmation = "Please reply \"yes\" to confirm the request or \"no\" to start over."

	msgRestart = "No problem, let's start over.\n\n" + promptBloodType

	msgPersistenceFailure = "I'm sorry, something went wrong while saving your request. Please try again later or use the manual request form on the website."
)

// fieldDescriptor is one entry of the static field catalog.
type fieldDescriptor struct {
	name     string
	stage    Stage
	prompt   string
	fallback string // substituted at commit time when the stored value no longer validates

	// extract derives a candidate value at the field's own stage.
	extract func(msg string, now time.Time) (string, bool)
	// validate gates the extracted value; nil means any extracted value passes.
	validate func(v string, now time.Time) bool
	// scan is the opportunistic cross-stage extractor; nil means the
	// field is never backfilled from other stages' messages.
	scan func(msg string) (string, bool)
}

// fieldCatalog lists every collectible field in dialogue order. The
// order drives both stage progression and summary rendering.
var fieldCatalog = []fieldDescriptor{
	{
		name:   FieldBloodType,
		stage:  StageInitial,
		prompt: promptBloodType,
		extract: func(msg string, _ time.Time) (string, bool) {
			return ExtractBloodType(msg)
		},
		scan: ExtractBloodType,
	},
	{
		name:   FieldHospital,
		stage:  StageHospital,
		prompt: promptHospital,
		extract: func(msg string, _ time.Time) (string, bool) {
			return ExtractFreeText(msg, 3)
		},
		scan: scanHospital,
	},
	{
		name:   FieldLocation,
		stage:  StageLocation,
		prompt: promptLocation,
		extract: func(msg string, _ time.Time) (string, bool) {
			return ExtractFreeText(msg, 3)
		},
		scan: scanLocation,
	},
	{
		name:   FieldZone,
		stage:  StageZone,
		prompt: promptZone,
		extract: func(msg string, _ time.Time) (string, bool) {
			return ExtractFreeText(msg, 2)
		},
		scan: scanZone,
	},
	{
		name:   FieldPatientProblem,
		stage:  StagePatientProblem,
		prompt: promptPatientProblem,
		extract: func(msg string, _ time.Time) (string, bool) {
			return ExtractFreeText(msg, 3)
		},
		scan: scanPatientProblem,
	},
	{
		name:     FieldBagNeeded,
		stage:    StageBagNeeded,
		prompt:   promptBagNeeded,
		fallback: "1",
		extract: func(msg string, _ time.Time) (string, bool) {
			return ExtractInteger(msg)
		},
		validate: func(v string, _ time.Time) bool { return ValidateBloodBags(v) },
		scan:     scanBagCount,
	},
	{
		name:     FieldDate,
		stage:    StageDate,
		prompt:   promptDate,
		extract:  extractDateAt,
		validate: validateDateAt,
	},
	{
		name:    FieldTime,
		stage:   StageTime,
		prompt:  promptTime,
		extract: func(msg string, _ time.Time) (string, bool) { return ExtractTime(msg) },
		validate: func(v string, _ time.Time) bool {
			return ValidateTime(v)
		},
	},
	{
		name:     FieldHemoglobin,
		stage:    StageHemoglobin,
		prompt:   promptHemoglobin,
		fallback: NotSpecified,
		extract: func(msg string, _ time.Time) (string, bool) {
			return ExtractDecimal(msg)
		},
		validate: func(v string, _ time.Time) bool { return ValidateHemoglobin(v) },
	},
	{
		name:   FieldAdditionalInfo,
		stage:  StageAdditionalInfo,
		prompt: promptAdditionalInfo,
	},
}

// descriptorFor returns the catalog entry owning the given stage.
// StageBloodType is an alias for the entry stage and resolves to the
// blood-type field.
func descriptorFor(stage Stage) (fieldDescriptor, bool) {
	if stage == StageBloodType {
		stage = StageInitial
	}
	for _, d := range fieldCatalog {
		if d.stage == stage {
			return d, true
		}
	}
	return fieldDescriptor{}, false
}

// nextStage returns the stage of the first not-yet-collected field, or
// StageConfirmation when everything through additionalInfo is present.
// Opportunistic backfill can fill fields ahead of the current stage, so
// progression always re-derives the frontier instead of stepping +1.
func nextStage(s *Session) Stage {
	for _, d := range fieldCatalog {
		if _, ok := s.Fields[d.name]; !ok {
			return d.stage
		}
	}
	return StageConfirmation
}
