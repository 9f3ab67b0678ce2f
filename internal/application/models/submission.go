package models

// Form field names as posted by the browser form.
const (
	FieldFirstName        = "first_name"
	FieldMiddleName       = "middle_name"
	FieldLastName         = "last_name"
	FieldEmail            = "email"
	FieldPhoneNumber      = "phone_number"
	FieldAddress          = "address"
	FieldZipCode          = "zipCode"
	FieldCity             = "city"
	FieldState            = "state"
	FieldGender           = "gender"
	FieldDOB              = "dob"
	FieldIncome           = "income"
	FieldSSN              = "ssn"
	FieldMaritalStatus    = "maritalStatus"
	FieldNextOfKin        = "nextOfKin"
	FieldMotherName       = "motherName"
	FieldHearingStatus    = "hearingStatus"
	FieldHousingType      = "housingType"
	FieldPhoneCourier     = "phoneCourier"
	FieldBankName         = "bank_name"
	FieldHasCards         = "has_cards"
	FieldNoOfCards        = "no_of_cards"
	FieldCardLimit        = "card_limit"
	FieldGrantSelect      = "grantSelect"
	FieldAmountApplied    = "amount_applied"
	FieldGrantDescription = "grantDescription"
	FieldIDFront          = "id_front"
	FieldIDBack           = "id_back"
)

// TextFields lists every non-file field the form may post.
var TextFields = []string{
	FieldFirstName, FieldMiddleName, FieldLastName, FieldEmail, FieldPhoneNumber,
	FieldAddress, FieldZipCode, FieldCity, FieldState, FieldGender, FieldDOB,
	FieldIncome, FieldSSN, FieldMaritalStatus, FieldNextOfKin, FieldMotherName,
	FieldHearingStatus, FieldHousingType, FieldPhoneCourier, FieldBankName,
	FieldHasCards, FieldNoOfCards, FieldCardLimit, FieldGrantSelect,
	FieldAmountApplied, FieldGrantDescription,
}

// Upload is one posted file part. Data holds the full content when Size is
// within the accepted limit; oversized parts keep only a leading prefix.
type Upload struct {
	Filename string
	Size     int64
	Data     []byte
}

// Origin describes where a submission came from. It is shown to staff in the
// admin notification and is not persisted.
type Origin struct {
	ClientIP  string
	UserAgent string
}

// Submission is the raw, unvalidated form post.
type Submission struct {
	Values map[string]string
	Front  *Upload
	Back   *Upload
	Origin Origin
}

// Value returns the raw value of a form field.
func (s *Submission) Value(field string) string {
	if s == nil || s.Values == nil {
		return ""
	}
	return s.Values[field]
}

// Has reports whether a field was posted at all, even empty.
func (s *Submission) Has(field string) bool {
	if s == nil || s.Values == nil {
		return false
	}
	_, ok := s.Values[field]
	return ok
}

// Upload returns the posted file for a slot, or nil.
func (s *Submission) Upload(slot Slot) *Upload {
	if s == nil {
		return nil
	}
	if slot == SlotFront {
		return s.Front
	}
	return s.Back
}

// SubmitResult is what a successful submission returns to the caller.
type SubmitResult struct {
	Application       *Application
	ApplicantNotified bool
	Warning           string
}
