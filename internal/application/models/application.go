package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an application. Only StatusSubmitted is
// ever written by the intake workflow; the rest belong to back-office tooling.
type Status string

const (
	StatusSubmitted      Status = "submitted"
	StatusUnderReview    Status = "under_review"
	StatusMoreInfoNeeded Status = "more_info_needed"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusFundDisbursed  Status = "fund_disbursed"
	StatusTerminated     Status = "terminated"
)

var statuses = []Status{
	StatusSubmitted,
	StatusUnderReview,
	StatusMoreInfoNeeded,
	StatusApproved,
	StatusRejected,
	StatusFundDisbursed,
	StatusTerminated,
}

func (s Status) IsValid() bool {
	for _, known := range statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Humanize renders a status for applicants: "under_review" -> "Under Review".
func (s Status) Humanize() string {
	if s == "" {
		s = StatusSubmitted
	}
	words := strings.Split(string(s), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Slot is the logical position of an ID image.
type Slot string

const (
	SlotFront Slot = "front"
	SlotBack  Slot = "back"
)

// Has-cards answers.
const (
	HasCardsYes = "yes"
	HasCardsNo  = "no"
)

// GrantCategories are the grant areas offered on the form.
var GrantCategories = []string{
	"Personal Assistance",
	"Business Funding",
	"Healthcare Funding",
	"Real Estate:Investing/Business",
	"Community Funding",
	"Education/Tuition Funding",
	"Real Estate: Personal Home Purchase/1st Time Home Buyer",
	"Personal Assistance: Home Repairs",
}

// AmountRanges are the grant amount categories offered on the form.
var AmountRanges = []string{
	"$30,000 - $50,000",
	"$50,000 - $90,000",
	"$90,000 - $150,000",
	"$150,000 - $200,000",
	"$200,000 - $300,000",
	"$300,000 - $450,000",
	"$450,000 - $600,000",
	"$600,000 - $750,000",
	"$750,000 - $1,000,000",
	"$1,000,000+",
}

// Fields is the allow-list of columns the intake workflow may write. It is
// built from validated, normalized input only; request parameters are never
// copied into it by name.
//
// Optional text fields use "" for absent. NoOfCards and CardLimit are set
// only when HasCards is "yes".
type Fields struct {
	Reference string

	FirstName   string
	MiddleName  string
	LastName    string
	Email       string
	PhoneNumber string
	Address     string
	ZipCode     string
	City        string
	State       string
	Gender      string
	DOB         time.Time
	Income      string
	SSN         string

	MaritalStatus string
	NextOfKin     string
	MotherName    string
	HearingStatus string
	HousingType   string
	PhoneCourier  string

	BankName  string
	HasCards  string
	NoOfCards *int
	CardLimit decimal.NullDecimal

	GrantSelect      string
	AmountApplied    string
	GrantDescription string

	IDFront string
	IDBack  string
}

// Application is the persisted intake record.
//
// Invariants:
//   - Reference is unique and never regenerated
//   - SSN holds 4 or 9 digits, PhoneNumber 10 to 15 digits, ZipCode 5 digits
//   - AdminNotifiedAt is set once the admin notification was confirmed sent;
//     a row without it is about to be removed by the compensating action
type Application struct {
	ID int64
	Fields

	Status          Status
	AmountApproved  decimal.NullDecimal
	AdminNotifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName joins first and last name the way the confirmation email greets.
func (a *Application) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
