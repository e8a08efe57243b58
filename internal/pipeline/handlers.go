package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/clindwh/clindwh/internal/platform/csvsource"
	"github.com/clindwh/clindwh/internal/platform/pseudonym"
)

// diagnosisSeparator splits the multi-value diagnosis cells.
const diagnosisSeparator = "; "

// PatientIDHandler pseudonymizes the patient number. An empty cell
// leaves the field unset; the completeness check rejects the row later
// if the field is required.
type PatientIDHandler struct {
	Col   string
	Pseud *pseudonym.Pseudonymizer
}

func (h PatientIDHandler) Column() string { return h.Col }

func (h PatientIDHandler) Process(d *Draft, row csvsource.RawRow) error {
	if v := row.Get(h.Col); v != nil {
		ide := h.Pseud.Anonymize(pseudonym.Patient, *v)
		d.PatientIDE = &ide
	}
	return nil
}

// EncounterIDHandler pseudonymizes the encounter (admission) number.
type EncounterIDHandler struct {
	Col   string
	Pseud *pseudonym.Pseudonymizer
}

func (h EncounterIDHandler) Column() string { return h.Col }

func (h EncounterIDHandler) Process(d *Draft, row csvsource.RawRow) error {
	if v := row.Get(h.Col); v != nil {
		ide := h.Pseud.Anonymize(pseudonym.Encounter, *v)
		d.EncounterIDE = &ide
	}
	return nil
}

// dateField is the subset of draft slots that hold converted dates.
type dateField int

const (
	startDateTime dateField = iota
	birthDate
	assessmentDate
)

// DateHandler converts one source timestamp column into warehouse form.
// A present but unparseable value rejects the row.
type DateHandler struct {
	Col  string
	Dest dateField
}

func (h DateHandler) Column() string { return h.Col }

func (h DateHandler) Process(d *Draft, row csvsource.RawRow) error {
	v := row.Get(h.Col)
	if v == nil {
		return nil
	}
	converted, err := ConvertDate(*v)
	if err != nil {
		return err
	}
	switch h.Dest {
	case startDateTime:
		d.StartDateTime = &converted
	case birthDate:
		d.BirthDate = &converted
	case assessmentDate:
		d.AssessmentDate = &converted
	}
	return nil
}

func StartDateTimeHandler(col string) DateHandler { return DateHandler{Col: col, Dest: startDateTime} }
func BirthDateHandler(col string) DateHandler     { return DateHandler{Col: col, Dest: birthDate} }
func AssessmentDateHandler(col string) DateHandler {
	return DateHandler{Col: col, Dest: assessmentDate}
}

// DiagnosesHandler splits a "; "-separated ICD list into the draft.
// An empty cell leaves any previously extracted list untouched, so when
// two diagnosis columns feed the same slot the handler placed later in
// the chain takes precedence: the admission-diagnosis handler runs after
// the discharge-diagnosis handler and overrides it whenever its column
// is populated.
type DiagnosesHandler struct {
	Col string
}

func (h DiagnosesHandler) Column() string { return h.Col }

func (h DiagnosesHandler) Process(d *Draft, row csvsource.RawRow) error {
	if v := row.Get(h.Col); v != nil {
		d.Diagnoses = strings.Split(*v, diagnosisSeparator)
	}
	return nil
}

// AgeHandler validates the patient age as a positive integer.
type AgeHandler struct {
	Col string
}

func (h AgeHandler) Column() string { return h.Col }

func (h AgeHandler) Process(d *Draft, row csvsource.RawRow) error {
	v := row.Get(h.Col)
	if v == nil {
		return fmt.Errorf("age is missing")
	}
	age, err := strconv.Atoi(*v)
	if err != nil {
		return fmt.Errorf("age %q is not a number", *v)
	}
	if age <= 0 {
		return fmt.Errorf("age %d is not positive", age)
	}
	d.AgeYears = &age
	return nil
}

// SexHandler remaps the source sex code onto the warehouse vocabulary.
type SexHandler struct {
	Col string
	Map map[string]string
}

func (h SexHandler) Column() string { return h.Col }

func (h SexHandler) Process(d *Draft, row csvsource.RawRow) error {
	v := row.Get(h.Col)
	if v == nil {
		return fmt.Errorf("sex is missing")
	}
	mapped, ok := h.Map[*v]
	if !ok {
		return fmt.Errorf("unknown sex code %q", *v)
	}
	d.SexCode = &mapped
	return nil
}

// AssessmentHandler validates the triage score against its 1..5 range.
type AssessmentHandler struct {
	Col string
}

func (h AssessmentHandler) Column() string { return h.Col }

func (h AssessmentHandler) Process(d *Draft, row csvsource.RawRow) error {
	v := row.Get(h.Col)
	if v == nil {
		return fmt.Errorf("assessment is missing")
	}
	score, err := strconv.Atoi(*v)
	if err != nil || score < 1 || score > 5 {
		return fmt.Errorf("assessment %q is not in 1..5", *v)
	}
	d.Assessment = v
	return nil
}

// FirstContactHandler adds the "MM:SS" waiting time to the assessment
// timestamp. It must run after the assessment-date handler; without
// that field the row is rejected.
type FirstContactHandler struct {
	Col string
}

func (h FirstContactHandler) Column() string { return h.Col }

func (h FirstContactHandler) Process(d *Draft, row csvsource.RawRow) error {
	v := row.Get(h.Col)
	if v == nil {
		return fmt.Errorf("waiting time is missing")
	}
	if d.AssessmentDate == nil {
		return fmt.Errorf("assessment date must be extracted before the waiting time")
	}
	parts := strings.SplitN(*v, ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("waiting time %q is not MM:SS", *v)
	}
	minutes, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("waiting time %q is not MM:SS", *v)
	}
	seconds, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("waiting time %q is not MM:SS", *v)
	}
	base, err := time.Parse("2006-01-02 15:04", *d.AssessmentDate)
	if err != nil {
		return fmt.Errorf("assessment date %q: %w", *d.AssessmentDate, err)
	}
	contact := base.Add(time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second).
		Format("2006-01-02 15:04:05")
	d.FirstContact = &contact
	return nil
}
