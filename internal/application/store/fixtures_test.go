package store

import (
	"time"

	"github.com/shopspring/decimal"

	"grantapp/internal/application/models"
)

func sampleFields(reference string) *models.Fields {
	cards := 2
	return &models.Fields{
		Reference:     reference,
		FirstName:     "Jane",
		LastName:      "Doe",
		Email:         "jane.doe@example.com",
		PhoneNumber:   "5550123456",
		Address:       "12 Main Street",
		ZipCode:       "12345",
		City:          "Provo",
		State:         "Utah",
		Gender:        "Female",
		DOB:           time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC),
		Income:        "$3,000 - $5,000",
		SSN:           "123456789",
		HasCards:      models.HasCardsYes,
		NoOfCards:     &cards,
		CardLimit:     decimal.NewNullDecimal(decimal.RequireFromString("1500.50")),
		GrantSelect:   "Business Funding",
		AmountApplied: "$30,000 - $50,000",
		IDFront:       "uploads/front_id/a.png",
	}
}
