// Package repository performs all database access for contact records.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"contactbook/internal/apperr"
	"contactbook/internal/config"
	"contactbook/internal/logging"
	"contactbook/internal/model"
)

// db is a handle to the database.
var db *sqlx.DB

// insert is a prepared statement for creating a contact on the database.
var insert *sqlx.NamedStmt

// selectWhereId is a prepared statement for selecting a contact with a given id.
var selectWhereId *sqlx.Stmt

// deleteWhereId is a prepared statement for deleting a contact with a given id.
var deleteWhereId *sqlx.Stmt

// validate checks the struct tags on model.NewContact and model.ContactUpdate.
var validate = validator.New()

// fieldMessages are the per-field validation messages reported to clients.
var fieldMessages = map[string]string{
	"Name":    "name must be at least 5 characters",
	"Contact": "contact must be exactly 9 digits",
	"Email":   "email must be a valid address",
	"Picture": "picture must not be empty",
}

// CreateDatabase initializes and returns a database connection using the
// given configuration.
func CreateDatabase(cfg config.Config) *sql.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBName)
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		logging.Fatal("could not open database", "error", err)
	}
	return sqlDB
}

// Setup initializes the sqlx database wrapper with the specified sql
// database and prepares all statements. The database argument can be a real
// database for production use or a mock database within unit tests.
func Setup(sqlDB *sql.DB) {
	var err error
	db = sqlx.NewDb(sqlDB, "mysql")

	// Prepared statements offer a significant speed increase if executed many times.
	insert, err = db.PrepareNamed(`
		INSERT INTO contacts (name, contact, email, picture)
		VALUES (:name, :contact, :email, :picture)
	`)
	if err != nil {
		logging.Fatal("could not prepare insert statement", "error", err)
	}
	selectWhereId, err = db.Preparex(`
		SELECT * FROM contacts WHERE id = ?
	`)
	if err != nil {
		logging.Fatal("could not prepare select statement", "error", err)
	}
	deleteWhereId, err = db.Preparex(`
		DELETE FROM contacts WHERE id = ?
	`)
	if err != nil {
		logging.Fatal("could not prepare delete statement", "error", err)
	}
}

// Healthy reports whether the database answers a trivial query.
func Healthy() bool {
	var one int
	return db.Get(&one, "SELECT 1") == nil
}

// Create validates the new contact, checks that neither the contact number
// nor the email is already taken, inserts the row, and returns the freshly
// read-back record.
func Create(nc model.NewContact) (model.Contact, error) {
	if err := validate.Struct(nc); err != nil {
		return model.Contact{}, apperr.New(apperr.Validation, validationMessage(err))
	}
	taken, err := pairTaken(nc.Contact, nc.Email)
	if err != nil {
		return model.Contact{}, err
	}
	if taken {
		return model.Contact{}, apperr.New(apperr.Conflict, "contact number or email already in use")
	}
	result, err := insert.Exec(nc)
	if err != nil {
		return model.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return FindByID(id)
}

// FindByID returns the contact with the given id.
func FindByID(id int64) (model.Contact, error) {
	var contacts []model.Contact
	if err := selectWhereId.Select(&contacts, id); err != nil {
		return model.Contact{}, fmt.Errorf("select contact: %w", err)
	}
	if len(contacts) == 0 {
		return model.Contact{}, apperr.New(apperr.NotFound, "contact not found")
	}
	return contacts[0], nil
}

// FindAll returns all contacts ordered by name. A non-empty search filters
// by case-insensitive name substring.
func FindAll(search string) ([]model.Contact, error) {
	contacts := []model.Contact{}
	var err error
	if search != "" {
		err = db.Select(&contacts, `
			SELECT * FROM contacts WHERE LOWER(name) LIKE ? ORDER BY name
		`, "%"+strings.ToLower(search)+"%")
	} else {
		err = db.Select(&contacts, `
			SELECT * FROM contacts ORDER BY name
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("select contacts: %w", err)
	}
	return contacts, nil
}

// Update applies the non-nil fields of upd to the contact with the given id
// and returns the updated record. If the contact number or email is among
// the supplied fields, uniqueness is re-checked excluding the record's own
// id. At least one effective field must be supplied.
func Update(id int64, upd model.ContactUpdate) (model.Contact, error) {
	if _, err := FindByID(id); err != nil {
		return model.Contact{}, err
	}
	upd = upd.Compact()
	if err := validate.Struct(upd); err != nil {
		return model.Contact{}, apperr.New(apperr.Validation, validationMessage(err))
	}
	taken, err := pairTakenExcluding(id, upd.Contact, upd.Email)
	if err != nil {
		return model.Contact{}, err
	}
	if taken {
		return model.Contact{}, apperr.New(apperr.Conflict, "contact number or email already in use")
	}

	var args []interface{}
	query := "UPDATE contacts SET "
	if upd.Name != nil {
		args = append(args, *upd.Name)
		query += "name=?, "
	}
	if upd.Contact != nil {
		args = append(args, *upd.Contact)
		query += "contact=?, "
	}
	if upd.Email != nil {
		args = append(args, *upd.Email)
		query += "email=?, "
	}
	if upd.Picture != nil {
		args = append(args, *upd.Picture)
		query += "picture=?, "
	}

	// It only makes sense to continue if we have at least one value to update.
	if len(args) == 0 {
		return model.Contact{}, apperr.New(apperr.NoFields, "no values to be updated")
	}

	query = query[:len(query)-2] + " WHERE id=?"
	args = append(args, id)
	if _, err := db.Exec(query, args...); err != nil {
		return model.Contact{}, fmt.Errorf("update contact: %w", err)
	}
	return FindByID(id)
}

// Delete removes the contact with the given id. The associated image file is
// not touched here.
func Delete(id int64) error {
	result, err := deleteWhereId.Exec(id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.New(apperr.NotFound, "contact not found")
	}
	return nil
}

// pairTaken reports whether any record already uses the contact number or
// the email.
func pairTaken(contact, email string) (bool, error) {
	var ids []int64
	err := db.Select(&ids, `
		SELECT id FROM contacts WHERE contact = ? OR email = ?
	`, contact, email)
	if err != nil {
		return false, fmt.Errorf("uniqueness check: %w", err)
	}
	return len(ids) > 0, nil
}

// pairTakenExcluding reports whether a record other than id uses one of the
// supplied values. Nil values are not part of the check.
func pairTakenExcluding(id int64, contact, email *string) (bool, error) {
	var conditions []string
	var args []interface{}
	if contact != nil {
		conditions = append(conditions, "contact = ?")
		args = append(args, *contact)
	}
	if email != nil {
		conditions = append(conditions, "email = ?")
		args = append(args, *email)
	}
	if len(conditions) == 0 {
		return false, nil
	}
	query := "SELECT id FROM contacts WHERE (" + strings.Join(conditions, " OR ") + ") AND id != ?"
	args = append(args, id)
	var ids []int64
	if err := db.Select(&ids, query, args...); err != nil {
		return false, fmt.Errorf("uniqueness check: %w", err)
	}
	return len(ids) > 0, nil
}

// validationMessage flattens a validator error into the per-field messages.
func validationMessage(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return "invalid contact data"
	}
	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		if message, ok := fieldMessages[fe.Field()]; ok {
			messages = append(messages, message)
		} else {
			messages = append(messages, fe.Error())
		}
	}
	return strings.Join(messages, "; ")
}
