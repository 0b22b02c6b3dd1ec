package model

// Contact is the data structure for a stored contact record. The contact
// number and email are unique across all records.
type Contact struct {
	Id      int64  `json:"id"      db:"id"`
	Name    string `json:"name"    db:"name"`
	Contact string `json:"contact" db:"contact"`
	Email   string `json:"email"   db:"email"`
	Picture string `json:"picture" db:"picture"`
}

// NewContact carries the field values for creating a contact. All fields are
// mandatory; Picture is either a stored upload path or an external URL.
type NewContact struct {
	Name    string `db:"name"    validate:"required,min=5"`
	Contact string `db:"contact" validate:"required,len=9,number"`
	Email   string `db:"email"   validate:"required,email"`
	Picture string `db:"picture" validate:"required"`
}

// ContactUpdate carries a partial update. A nil field keeps the stored value.
type ContactUpdate struct {
	Name    *string `validate:"omitempty,min=5"`
	Contact *string `validate:"omitempty,len=9,number"`
	Email   *string `validate:"omitempty,email"`
	Picture *string `validate:"omitempty,min=1"`
}

// Compact drops supplied-but-empty fields so that a blank form value cannot
// overwrite a stored one.
func (u ContactUpdate) Compact() ContactUpdate {
	if u.Name != nil && *u.Name == "" {
		u.Name = nil
	}
	if u.Contact != nil && *u.Contact == "" {
		u.Contact = nil
	}
	if u.Email != nil && *u.Email == "" {
		u.Email = nil
	}
	if u.Picture != nil && *u.Picture == "" {
		u.Picture = nil
	}
	return u
}
