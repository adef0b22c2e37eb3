package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medilink/internal/registration/models"
)

func patientSession(step int, fields map[string]string) *models.Session {
	if fields == nil {
		fields = map[string]string{}
	}
	return &models.Session{
		Actor:       models.ActorPatient,
		CurrentStep: step,
		Fields:      fields,
		FieldErrors: map[string]string{},
	}
}

func doctorSession(step int, fields map[string]string) *models.Session {
	if fields == nil {
		fields = map[string]string{}
	}
	return &models.Session{
		Actor:       models.ActorDoctor,
		CurrentStep: step,
		Fields:      fields,
		FieldErrors: map[string]string{},
	}
}

func TestNext_PatientStepOne(t *testing.T) {
	sess := patientSession(1, map[string]string{"firstName": "Jean", "lastName": "Dupont", "birthDate": "1990-01-15"})

	outcome := Next(sess)

	assert.Equal(t, OutcomeAdvanced, outcome)
	assert.Equal(t, 2, sess.CurrentStep)
	assert.Empty(t, sess.FieldErrors)
}

func TestNext_PatientStepOneMissingFields(t *testing.T) {
	sess := patientSession(1, map[string]string{"firstName": "Jean", "lastName": "   "})

	outcome := Next(sess)

	assert.Equal(t, OutcomeRejected, outcome)
	assert.Equal(t, 1, sess.CurrentStep)
	assert.Equal(t, "Ce champ est requis", sess.FieldErrors["lastName"])
	assert.Equal(t, "Ce champ est requis", sess.FieldErrors["birthDate"])
	assert.NotContains(t, sess.FieldErrors, "firstName")
}

func TestNext_ContactStepGatesOnVerification(t *testing.T) {
	sess := patientSession(2, map[string]string{"phoneNumber": "+33612345678"})

	outcome := Next(sess)

	assert.Equal(t, OutcomeRejected, outcome)
	assert.Equal(t, 2, sess.CurrentStep)
	assert.Equal(t, "Veuillez vérifier votre numéro de téléphone", sess.FieldErrors["phoneNumber"])
	assert.True(t, sess.OTPArmed, "first refused press reveals the OTP sub-form")
}

func TestNext_ContactStepAdvancesWhenVerified(t *testing.T) {
	sess := patientSession(2, map[string]string{"phoneNumber": "+33612345678"})
	sess.OTPVerified = true

	outcome := Next(sess)

	assert.Equal(t, OutcomeAdvanced, outcome)
	assert.Equal(t, 3, sess.CurrentStep)
}

func TestNext_ContactStepPhoneShape(t *testing.T) {
	cases := map[string]bool{
		"+33612345678": true,
		"0612345678":   true,
		"123":          false,
		"abc123":       false,
		"":             false,
	}
	for phone, ok := range cases {
		sess := patientSession(2, map[string]string{"phoneNumber": phone})
		sess.OTPVerified = true

		outcome := Next(sess)
		if ok {
			assert.Equal(t, OutcomeAdvanced, outcome, "phone %q", phone)
		} else {
			assert.Equal(t, OutcomeRejected, outcome, "phone %q", phone)
			assert.Contains(t, sess.FieldErrors, "phoneNumber")
		}
	}
}

func TestNext_ContactStepEmailOptional(t *testing.T) {
	sess := patientSession(2, map[string]string{"phoneNumber": "+33612345678", "email": ""})
	sess.OTPVerified = true
	assert.Equal(t, OutcomeAdvanced, Next(sess))

	sess = patientSession(2, map[string]string{"phoneNumber": "+33612345678", "email": "a@b"})
	sess.OTPVerified = true
	assert.Equal(t, OutcomeRejected, Next(sess))
	assert.Equal(t, "Format incorrect", sess.FieldErrors["email"])
}

func TestNext_PasswordStep(t *testing.T) {
	sess := patientSession(3, map[string]string{"password": ""})
	assert.Equal(t, OutcomeRejected, Next(sess))
	assert.Equal(t, "Ce champ est requis", sess.FieldErrors["password"])

	sess = patientSession(3, map[string]string{"password": "court"})
	assert.Equal(t, OutcomeRejected, Next(sess))
	assert.Equal(t, "Le mot de passe doit contenir au moins 8 caractères", sess.FieldErrors["password"])

	sess = patientSession(3, map[string]string{"password": "motdepasse"})
	assert.Equal(t, OutcomeAdvanced, Next(sess))
}

func TestNext_LastStepYieldsSubmit(t *testing.T) {
	sess := patientSession(4, map[string]string{"bloodGroup": "O+"})

	assert.Equal(t, OutcomeSubmit, Next(sess))
	assert.Equal(t, 4, sess.CurrentStep, "submission happens from the last step")
}

func TestNext_LastStepOptionalFieldsMayBeEmpty(t *testing.T) {
	sess := patientSession(4, nil)
	assert.Equal(t, OutcomeSubmit, Next(sess))

	sess = patientSession(4, map[string]string{"bloodGroup": "Z+"})
	assert.Equal(t, OutcomeRejected, Next(sess))
}

func TestNext_DoctorSpecialtySelect(t *testing.T) {
	sess := doctorSession(1, map[string]string{"firstName": "Marie", "lastName": "Curie", "specialty": ""})
	assert.Equal(t, OutcomeRejected, Next(sess))
	assert.Equal(t, "Ce champ est requis", sess.FieldErrors["specialty"])

	sess = doctorSession(1, map[string]string{"firstName": "Marie", "lastName": "Curie", "specialty": "cardiologue"})
	assert.Equal(t, OutcomeAdvanced, Next(sess))
}

func TestNext_DoctorLicenseStep(t *testing.T) {
	sess := doctorSession(2, map[string]string{"licenseNumber": "FR-12345", "practiceCity": "paris"})
	assert.Equal(t, OutcomeRejected, Next(sess))
	assert.Equal(t, "Document de licence requis", sess.FieldErrors["licenseDocument"])

	sess.Fields["licenseDocumentPath"] = "/uploads/licenses/FR-12345-1.pdf"
	delete(sess.FieldErrors, "licenseDocument")
	assert.Equal(t, OutcomeAdvanced, Next(sess))
}

func TestNext_DoctorContactRequiresEmail(t *testing.T) {
	sess := doctorSession(3, map[string]string{"phoneNumber": "+33612345678"})
	sess.OTPVerified = true

	assert.Equal(t, OutcomeRejected, Next(sess))
	assert.Equal(t, "Ce champ est requis", sess.FieldErrors["email"])
}

func TestNext_DoctorContactGatesOnVerification(t *testing.T) {
	sess := doctorSession(3, map[string]string{"email": "marie@exemple.fr", "phoneNumber": "+33612345678"})

	assert.Equal(t, OutcomeRejected, Next(sess))
	assert.Equal(t, "Veuillez vérifier votre numéro de téléphone", sess.FieldErrors["phoneNumber"])
}

func TestBack(t *testing.T) {
	sess := patientSession(3, nil)
	Back(sess)
	assert.Equal(t, 2, sess.CurrentStep)

	sess.CurrentStep = 1
	Back(sess)
	assert.Equal(t, 1, sess.CurrentStep, "back floors at step one")
}

func TestBack_KeepsDataAndSkipsValidation(t *testing.T) {
	sess := patientSession(2, map[string]string{"phoneNumber": "123"})
	Back(sess)
	assert.Equal(t, 1, sess.CurrentStep)
	assert.Equal(t, "123", sess.Fields["phoneNumber"], "entered data survives going back")
	assert.Empty(t, sess.FieldErrors)
}

func TestUpdateField_ClearsOnlyOwnError(t *testing.T) {
	sess := patientSession(1, map[string]string{})
	require.Equal(t, OutcomeRejected, Next(sess))
	require.Contains(t, sess.FieldErrors, "firstName")
	require.Contains(t, sess.FieldErrors, "lastName")

	UpdateField(sess, "firstName", "Jean")

	assert.NotContains(t, sess.FieldErrors, "firstName")
	assert.Contains(t, sess.FieldErrors, "lastName", "other errors stay until their field is edited")
	assert.Equal(t, "Jean", sess.Fields["firstName"])
}

func TestFlowFor_StepCounts(t *testing.T) {
	assert.Len(t, FlowFor(models.ActorPatient).Steps, 4)
	assert.Len(t, FlowFor(models.ActorDoctor).Steps, 4)
	assert.Equal(t, 2, FlowFor(models.ActorPatient).ContactStep)
	assert.Equal(t, 3, FlowFor(models.ActorDoctor).ContactStep)
}
