// Package wizard holds the pure multi-step form logic: step definitions per
// actor, field validation and the advance/back rules. It never touches
// storage or the network, which keeps the whole state machine testable with
// plain table tests.
package wizard

import (
	"strings"

	doctormodels "medilink/internal/doctor/models"
	patientmodels "medilink/internal/patient/models"
	"medilink/internal/registration/models"
	"medilink/internal/validate"
)

const (
	msgRequired        = "Ce champ est requis"
	msgBadFormat       = "Format incorrect"
	msgShortPassword   = "Le mot de passe doit contenir au moins 8 caractères"
	msgVerifyPhone     = "Veuillez vérifier votre numéro de téléphone"
	msgLicenseRequired = "Document de licence requis"
)

// Step is one screen of the wizard.
type Step struct {
	Name     string
	Validate func(fields map[string]string) map[string]string
}

// Flow is the ordered step list for one actor, with the index of the step
// that requires phone verification before advancing.
type Flow struct {
	Steps       []Step
	ContactStep int
}

// FlowFor returns the flow for actor. Callers must have checked
// models.IsActor.
func FlowFor(actor string) Flow {
	if actor == models.ActorDoctor {
		return doctorFlow
	}
	return patientFlow
}

var patientFlow = Flow{
	ContactStep: 2,
	Steps: []Step{
		{Name: "Informations personnelles", Validate: func(f map[string]string) map[string]string {
			errs := map[string]string{}
			requireFields(errs, f, "firstName", "lastName", "birthDate")
			return errs
		}},
		{Name: "Contact", Validate: func(f map[string]string) map[string]string {
			errs := map[string]string{}
			requireFields(errs, f, "phoneNumber")
			if errs["phoneNumber"] == "" && !validate.IsContactPhone(trimmed(f, "phoneNumber")) {
				errs["phoneNumber"] = msgBadFormat
			}
			if email := trimmed(f, "email"); email != "" && !validate.IsEmail(email) {
				errs["email"] = msgBadFormat
			}
			return prune(errs)
		}},
		{Name: "Sécurité", Validate: validatePassword},
		{Name: "Informations médicales", Validate: func(f map[string]string) map[string]string {
			errs := map[string]string{}
			if bg := trimmed(f, "bloodGroup"); bg != "" && !patientmodels.IsBloodGroup(bg) {
				errs["bloodGroup"] = msgBadFormat
			}
			return errs
		}},
	},
}

var doctorFlow = Flow{
	ContactStep: 3,
	Steps: []Step{
		{Name: "Informations personnelles", Validate: func(f map[string]string) map[string]string {
			errs := map[string]string{}
			requireFields(errs, f, "firstName", "lastName", "specialty")
			if errs["specialty"] == "" && !doctormodels.IsSpecialty(trimmed(f, "specialty")) {
				errs["specialty"] = msgBadFormat
			}
			return prune(errs)
		}},
		{Name: "Informations professionnelles", Validate: func(f map[string]string) map[string]string {
			errs := map[string]string{}
			requireFields(errs, f, "licenseNumber", "practiceCity")
			if errs["practiceCity"] == "" && !doctormodels.IsPracticeCity(trimmed(f, "practiceCity")) {
				errs["practiceCity"] = msgBadFormat
			}
			if trimmed(f, "licenseDocumentPath") == "" {
				errs["licenseDocument"] = msgLicenseRequired
			}
			return prune(errs)
		}},
		{Name: "Contact", Validate: func(f map[string]string) map[string]string {
			errs := map[string]string{}
			requireFields(errs, f, "email", "phoneNumber")
			if errs["email"] == "" && !validate.IsEmail(trimmed(f, "email")) {
				errs["email"] = msgBadFormat
			}
			if errs["phoneNumber"] == "" && !validate.IsContactPhone(trimmed(f, "phoneNumber")) {
				errs["phoneNumber"] = msgBadFormat
			}
			return prune(errs)
		}},
		{Name: "Sécurité", Validate: validatePassword},
	},
}

func validatePassword(f map[string]string) map[string]string {
	errs := map[string]string{}
	password := f["password"]
	if password == "" {
		errs["password"] = msgRequired
	} else if len(password) < 8 {
		errs["password"] = msgShortPassword
	}
	return errs
}

func requireFields(errs map[string]string, f map[string]string, names ...string) {
	for _, name := range names {
		if trimmed(f, name) == "" {
			errs[name] = msgRequired
		}
	}
}

func trimmed(f map[string]string, name string) string {
	return strings.TrimSpace(f[name])
}

func prune(errs map[string]string) map[string]string {
	for k, v := range errs {
		if v == "" {
			delete(errs, k)
		}
	}
	return errs
}

// NextOutcome says what a Next press did.
type NextOutcome int

const (
	// OutcomeRejected means validation or OTP gating kept the session on
	// the current step. Field errors carry the reason.
	OutcomeRejected NextOutcome = iota
	// OutcomeAdvanced means the session moved to the following step.
	OutcomeAdvanced
	// OutcomeSubmit means the last step validated and the accumulated
	// fields are ready for the registrar.
	OutcomeSubmit
)

// UpdateField writes one field and clears only that field's error, matching
// how the form revalidates on edit.
func UpdateField(sess *models.Session, name, value string) {
	if sess.Fields == nil {
		sess.Fields = map[string]string{}
	}
	sess.Fields[name] = value
	delete(sess.FieldErrors, name)
}

// Next applies the advance rules to sess. The contact step refuses to move
// until the phone is verified; the first refused press arms the OTP sub-form.
func Next(sess *models.Session) NextOutcome {
	flow := FlowFor(sess.Actor)

	if sess.CurrentStep == flow.ContactStep && !sess.OTPVerified {
		if sess.FieldErrors == nil {
			sess.FieldErrors = map[string]string{}
		}
		sess.FieldErrors["phoneNumber"] = msgVerifyPhone
		sess.OTPArmed = true
		return OutcomeRejected
	}

	step := flow.Steps[sess.CurrentStep-1]
	if errs := step.Validate(sess.Fields); len(errs) > 0 {
		sess.FieldErrors = errs
		return OutcomeRejected
	}

	sess.FieldErrors = map[string]string{}
	if sess.CurrentStep == len(flow.Steps) {
		return OutcomeSubmit
	}
	sess.CurrentStep++
	return OutcomeAdvanced
}

// Back moves one step backwards, flooring at the first step. It never
// validates and never loses entered data.
func Back(sess *models.Session) {
	if sess.CurrentStep > 1 {
		sess.CurrentStep--
	}
}
