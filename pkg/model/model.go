// Package model holds the wire types of the contact API, for use by clients
// of the service.
package model

// Contact is the JSON representation of a stored contact record.
type Contact struct {
	Id      int64  `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// ContactResponse is the envelope returned by the single-record endpoints.
type ContactResponse struct {
	Success bool    `json:"success"`
	Data    Contact `json:"data"`
	Message string  `json:"message,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// ContactListResponse is the envelope returned by the list endpoint.
type ContactListResponse struct {
	Success bool      `json:"success"`
	Data    []Contact `json:"data"`
	Total   int       `json:"total"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
}
