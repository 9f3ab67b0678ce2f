package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"grantapp/internal/application/models"
	"grantapp/pkg/platform/sentinel"
	txcontext "grantapp/pkg/platform/tx"
)

const uniqueViolation = "23505"

const applicationColumns = `id, reference, first_name, middle_name, last_name, email, phone_number,
	address, zip_code, city, state, gender, dob, income, ssn,
	marital_status, next_of_kin, mother_name, hearing_status, housing_type, phone_courier,
	bank_name, has_cards, no_of_cards, card_limit,
	grant_select, amount_applied, grant_description, id_front, id_back,
	status, amount_approved, admin_notified_at, created_at, updated_at`

// PostgresStore persists applications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed application store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts one row in its own short transaction. The row starts with
// no admin_notified_at.
func (s *PostgresStore) Create(ctx context.Context, f *models.Fields) (*models.Application, error) {
	app := &models.Application{Fields: *f}
	err := txcontext.RunInTx(ctx, s.db, func(ctx context.Context) error {
		q := txcontext.QuerierFrom(ctx, s.db)
		row := q.QueryRowContext(ctx, `
			INSERT INTO applications (
				reference, first_name, middle_name, last_name, email, phone_number,
				address, zip_code, city, state, gender, dob, income, ssn,
				marital_status, next_of_kin, mother_name, hearing_status, housing_type, phone_courier,
				bank_name, has_cards, no_of_cards, card_limit,
				grant_select, amount_applied, grant_description, id_front, id_back
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
			)
			RETURNING id, status, created_at, updated_at`,
			f.Reference, f.FirstName, nullString(f.MiddleName), f.LastName, f.Email, f.PhoneNumber,
			f.Address, f.ZipCode, f.City, f.State, f.Gender, f.DOB, f.Income, f.SSN,
			nullString(f.MaritalStatus), nullString(f.NextOfKin), nullString(f.MotherName),
			nullString(f.HearingStatus), nullString(f.HousingType), nullString(f.PhoneCourier),
			nullString(f.BankName), f.HasCards, nullInt(f.NoOfCards), f.CardLimit,
			nullString(f.GrantSelect), f.AmountApplied, nullString(f.GrantDescription),
			nullString(f.IDFront), nullString(f.IDBack),
		)
		var status string
		if err := row.Scan(&app.ID, &status, &app.CreatedAt, &app.UpdatedAt); err != nil {
			return err
		}
		app.Status = models.Status(status)
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("reference %s: %w", f.Reference, sentinel.ErrConflict)
		}
		return nil, fmt.Errorf("create application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) FindByReference(ctx context.Context, reference string) (*models.Application, error) {
	q := txcontext.QuerierFrom(ctx, s.db)
	row := q.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications WHERE reference = $1`, reference)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application by reference: %w", err)
	}
	return app, nil
}

// MarkAdminNotified records that the admin notification was delivered.
func (s *PostgresStore) MarkAdminNotified(ctx context.Context, id int64, at time.Time) error {
	q := txcontext.QuerierFrom(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`UPDATE applications SET admin_notified_at = $2, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark admin notified: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a row. It is only used by the compensating action of a
// failed submission.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	q := txcontext.QuerierFrom(ctx, s.db)
	res, err := q.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return requireAffected(res)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var app models.Application
	var middle, marital, kin, mother, hearing, housing, courier sql.NullString
	var bank, grantSelect, description, front, back sql.NullString
	var noOfCards sql.NullInt64
	var approved decimal.NullDecimal
	var notified sql.NullTime
	var status string
	err := row.Scan(
		&app.ID, &app.Reference, &app.FirstName, &middle, &app.LastName, &app.Email, &app.PhoneNumber,
		&app.Address, &app.ZipCode, &app.City, &app.State, &app.Gender, &app.DOB, &app.Income, &app.SSN,
		&marital, &kin, &mother, &hearing, &housing, &courier,
		&bank, &app.HasCards, &noOfCards, &app.CardLimit,
		&grantSelect, &app.AmountApplied, &description, &front, &back,
		&status, &approved, &notified, &app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	app.MiddleName = middle.String
	app.MaritalStatus = marital.String
	app.NextOfKin = kin.String
	app.MotherName = mother.String
	app.HearingStatus = hearing.String
	app.HousingType = housing.String
	app.PhoneCourier = courier.String
	app.BankName = bank.String
	app.GrantSelect = grantSelect.String
	app.GrantDescription = description.String
	app.IDFront = front.String
	app.IDBack = back.String
	if noOfCards.Valid {
		n := int(noOfCards.Int64)
		app.NoOfCards = &n
	}
	app.Status = models.Status(status)
	app.AmountApproved = approved
	if notified.Valid {
		t := notified.Time
		app.AdminNotifiedAt = &t
	}
	return &app, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
