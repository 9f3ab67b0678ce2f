// Package validation checks and normalizes a raw grant application form post.
package validation

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/shopspring/decimal"

	"grantapp/internal/application/models"
	"grantapp/pkg/requestcontext"
)

const (
	// MaxImageBytes is the per-image upload limit (2048 KB).
	MaxImageBytes = 2048 * 1024

	dateLayout = "2006-01-02"
)

// ImageTypes lists the accepted ID image content types.
var ImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/webp",
	"image/svg+xml",
}

const (
	MsgPhoneDigits = "Phone number must contain only digits and be between 10 and 15 digits."
	MsgSSNDigits   = "SSN must contain exactly 4 or 9 digits."
)

var textFields = []fieldSpec{
	text(models.FieldFirstName, "First name", 2, 100).require("First name is required."),
	text(models.FieldMiddleName, "Middle name", 2, 100),
	text(models.FieldLastName, "Last name", 2, 100).require("Last name is required."),
	fieldSpec{name: models.FieldEmail, required: "Email address is required."}.with(
		maxLen(255, "Email address cannot exceed 255 characters."),
		validEmail("Please provide a valid email address."),
	),
	fieldSpec{name: models.FieldPhoneNumber, required: "Phone number is required."}.with(
		maxLen(20, "Phone number cannot exceed 20 characters."),
		digitCount(func(n int) bool { return n >= 10 && n <= 15 }, MsgPhoneDigits),
	),
	text(models.FieldAddress, "Address", 5, 255).require("Address is required."),
	fieldSpec{name: models.FieldZipCode, required: "Zip code is required."}.with(
		matches(zipPattern, "Zip code must be exactly 5 digits."),
	),
	fieldSpec{name: models.FieldCity, required: "City is required."}.with(
		matches(namePattern, "City may only contain letters, spaces, and hyphens."),
		maxLen(100, "City cannot exceed 100 characters."),
	),
	fieldSpec{name: models.FieldState, required: "State is required."}.with(
		matches(namePattern, "State may only contain letters, spaces, and hyphens."),
		maxLen(100, "State cannot exceed 100 characters."),
	),
	text(models.FieldGender, "Gender", 0, 50).require("Gender is required."),
	text(models.FieldIncome, "Income", 0, 50).require("Income is required."),
	fieldSpec{name: models.FieldSSN, required: "SSN is required."}.with(
		maxLen(20, "SSN cannot exceed 20 characters."),
		digitCount(func(n int) bool { return n == 4 || n == 9 }, MsgSSNDigits),
	),
	text(models.FieldMaritalStatus, "Marital status", 0, 255),
	text(models.FieldNextOfKin, "Next of kin", 0, 255),
	text(models.FieldMotherName, "Mother's name", 0, 255),
	text(models.FieldHearingStatus, "Hearing status", 0, 255),
	text(models.FieldHousingType, "Housing type", 0, 255),
	text(models.FieldPhoneCourier, "Phone courier", 0, 255),
	text(models.FieldBankName, "Bank name", 0, 100),
	fieldSpec{name: models.FieldHasCards, required: "Please specify if you have cards."}.with(
		oneOf([]string{models.HasCardsYes, models.HasCardsNo}, "Has cards must be yes or no."),
	),
	fieldSpec{name: models.FieldGrantSelect}.with(
		oneOf(models.GrantCategories, "Please select a valid grant type."),
	),
	fieldSpec{name: models.FieldAmountApplied, required: "Amount applied is required."}.with(
		oneOf(models.AmountRanges, "Please select a valid amount range."),
	),
	text(models.FieldGrantDescription, "Grant description", 0, 5000),
}

var integerPattern = regexp.MustCompile(`^[+-]?\d+$`)

// Card bounds match the no_of_cards INTEGER and card_limit NUMERIC(14,2) columns.
const (
	maxCardCount   = math.MaxInt32
	cardLimitScale = 2
)

var maxCardLimit = decimal.RequireFromString("999999999999.99")

// Validator turns a raw submission into the insertable field set.
type Validator struct {
	maxImageBytes int64
}

type Option func(*Validator)

// WithMaxImageBytes overrides the per-image size limit.
func WithMaxImageBytes(n int64) Option {
	return func(v *Validator) {
		v.maxImageBytes = n
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{maxImageBytes: MaxImageBytes}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks every field and returns either the normalized fields or an
// Errors value listing every failing field. Phone and SSN come back as
// digits only. Free text is trimmed but not yet sanitized. Reference and
// image references are left for the caller to fill.
func (v *Validator) Validate(ctx context.Context, sub *models.Submission) (*models.Fields, error) {
	values := make(map[string]string, len(models.TextFields))
	for _, name := range models.TextFields {
		values[name] = strings.TrimSpace(sub.Value(name))
	}

	errs := Errors{}
	for _, field := range textFields {
		field.check(values[field.name], errs)
	}

	dob := v.checkDOB(ctx, values[models.FieldDOB], errs)

	noOfCards, cardLimit := v.checkCards(values, errs)

	v.checkImage(models.FieldIDFront, "Front ID", sub.Upload(models.SlotFront), errs)
	v.checkImage(models.FieldIDBack, "Back ID", sub.Upload(models.SlotBack), errs)

	if len(errs) > 0 {
		return nil, errs
	}

	return &models.Fields{
		FirstName:        values[models.FieldFirstName],
		MiddleName:       values[models.FieldMiddleName],
		LastName:         values[models.FieldLastName],
		Email:            values[models.FieldEmail],
		PhoneNumber:      digitsOnly(values[models.FieldPhoneNumber]),
		Address:          values[models.FieldAddress],
		ZipCode:          values[models.FieldZipCode],
		City:             values[models.FieldCity],
		State:            values[models.FieldState],
		Gender:           values[models.FieldGender],
		DOB:              dob,
		Income:           values[models.FieldIncome],
		SSN:              digitsOnly(values[models.FieldSSN]),
		MaritalStatus:    values[models.FieldMaritalStatus],
		NextOfKin:        values[models.FieldNextOfKin],
		MotherName:       values[models.FieldMotherName],
		HearingStatus:    values[models.FieldHearingStatus],
		HousingType:      values[models.FieldHousingType],
		PhoneCourier:     values[models.FieldPhoneCourier],
		BankName:         values[models.FieldBankName],
		HasCards:         values[models.FieldHasCards],
		NoOfCards:        noOfCards,
		CardLimit:        cardLimit,
		GrantSelect:      values[models.FieldGrantSelect],
		AmountApplied:    values[models.FieldAmountApplied],
		GrantDescription: values[models.FieldGrantDescription],
	}, nil
}

// checkDOB requires a real YYYY-MM-DD calendar date strictly before the
// request's date.
func (v *Validator) checkDOB(ctx context.Context, raw string, errs Errors) time.Time {
	if raw == "" {
		errs.Add(models.FieldDOB, "Date of birth is required.")
		return time.Time{}
	}
	if !datePattern.MatchString(raw) {
		errs.Add(models.FieldDOB, "Date of birth must be in the format YYYY-MM-DD.")
		return time.Time{}
	}
	now := requestcontext.Now(ctx)
	dob, err := time.ParseInLocation(dateLayout, raw, now.Location())
	if err != nil {
		errs.Add(models.FieldDOB, "Date of birth must be a valid date.")
		return time.Time{}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !dob.Before(today) {
		errs.Add(models.FieldDOB, "Date of birth must be before today.")
		return time.Time{}
	}
	return dob
}

// checkCards enforces the card fields only when has_cards is "yes". For any
// other answer they are dropped even if posted.
func (v *Validator) checkCards(values map[string]string, errs Errors) (*int, decimal.NullDecimal) {
	if values[models.FieldHasCards] != models.HasCardsYes {
		return nil, decimal.NullDecimal{}
	}

	var count *int
	switch raw := values[models.FieldNoOfCards]; {
	case raw == "":
		errs.Add(models.FieldNoOfCards, "Number of cards is required.")
	case !integerPattern.MatchString(raw):
		errs.Add(models.FieldNoOfCards, "Number of cards must be an integer.")
	default:
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errs.Add(models.FieldNoOfCards, "Number of cards must be an integer.")
		case n < 1:
			errs.Add(models.FieldNoOfCards, "Number of cards must be at least 1.")
		case n > maxCardCount:
			errs.Add(models.FieldNoOfCards, "Number of cards is too large.")
		default:
			count = &n
		}
	}

	var limit decimal.NullDecimal
	switch raw := values[models.FieldCardLimit]; {
	case raw == "":
		errs.Add(models.FieldCardLimit, "Card limit is required.")
	default:
		d, err := decimal.NewFromString(raw)
		switch {
		case err != nil:
			errs.Add(models.FieldCardLimit, "Card limit must be a number.")
		case d.LessThan(decimal.NewFromInt(3)):
			errs.Add(models.FieldCardLimit, "Card limit must be at least 3.")
		case d.GreaterThan(maxCardLimit):
			errs.Add(models.FieldCardLimit, "Card limit cannot exceed 999999999999.99.")
		case !d.Equal(d.Truncate(cardLimitScale)):
			errs.Add(models.FieldCardLimit, "Card limit cannot have more than 2 decimal places.")
		default:
			limit = decimal.NullDecimal{Decimal: d, Valid: true}
		}
	}
	return count, limit
}

func (v *Validator) checkImage(field, label string, up *models.Upload, errs Errors) {
	if up == nil {
		return
	}
	if up.Size <= 0 || len(up.Data) == 0 {
		errs.Add(field, label+" must be a file.")
		return
	}
	if !IsImage(up.Data) {
		errs.Add(field, label+" must be an image.")
		return
	}
	if up.Size > v.maxImageBytes {
		errs.Add(field, label+" image cannot exceed 2MB.")
	}
}

// IsImage sniffs data and reports whether it is an accepted image type.
func IsImage(data []byte) bool {
	return mimetype.EqualsAny(mimetype.Detect(data).String(), ImageTypes...)
}
