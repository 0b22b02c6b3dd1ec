// Package service exposes the REST API and coordinates multipart
// submissions into file-store and repository operations.
package service

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"contactbook/internal/apperr"
	"contactbook/internal/model"
	"contactbook/internal/repository"
	"contactbook/internal/upload"
)

// uploads is the store for contact images.
var uploads *upload.Store

// startTime feeds the uptime field of the health endpoint.
var startTime = time.Now()

// response is the envelope shared by all API responses.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Total   *int   `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// submission is one parsed multipart request: the text fields plus at most
// one file part (the picture). The split happens once here at the transport
// boundary and is never re-inferred downstream.
type submission struct {
	fields map[string]string
	file   *multipart.FileHeader
}

// SetupHttpRouter initializes the REST API router and registers all
// endpoints. Images saved through store become reachable under
// /uploads/images; maxBodyBytes caps the request body size.
func SetupHttpRouter(store *upload.Store, maxBodyBytes int64) *gin.Engine {
	uploads = store
	var router *gin.Engine
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		router = gin.New()
	} else {
		router = gin.Default()
	}
	router.Use(limitBodySize(maxBodyBytes))

	api := router.Group("/api")
	api.GET("/health", health)
	api.GET("/contacts", findContacts)
	api.POST("/contacts", createContact)
	api.GET("/contacts/:id", findContactByID)
	api.PUT("/contacts/:id", updateContactByID)
	api.DELETE("/contacts/:id", deleteContactByID)

	router.Static("/uploads/images", store.Dir())
	return router
}

// limitBodySize caps the request body so oversized uploads fail with 413
// instead of filling the disk.
func limitBodySize(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		c.Next()
	}
}

// health responds with a liveness summary including a database probe.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/api/health"
func health(c *gin.Context) {
	status, database, code := "ok", "connected", http.StatusOK
	if !repository.Healthy() {
		status, database, code = "degraded", "disconnected", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(startTime).Seconds(),
	})
}

// findContacts responds with a list of contacts as JSON.
//
// The URL parameter 'search' filters by case-insensitive name substring.
// The URL parameters 'limit' and 'offset' slice the sorted result list; one
// only takes effect when both are supplied.
//
// REST API calls:
//
//	> curl "http://localhost:8080/api/contacts"
//	> curl "http://localhost:8080/api/contacts?search=silva"
//	> curl "http://localhost:8080/api/contacts?limit=20&offset=60"
func findContacts(c *gin.Context) {
	limit, offset, ok := parseLimitAndOffset(c)
	if !ok {
		return
	}
	contacts, err := repository.FindAll(c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	if limit > 0 {
		start := min(offset, len(contacts))
		end := min(start+limit, len(contacts))
		contacts = contacts[start:end]
	}
	total := len(contacts)
	c.JSON(http.StatusOK, response{
		Success: true,
		Data:    contacts,
		Total:   &total,
		Message: "contacts listed successfully",
	})
}

// parseLimitAndOffset inspects the URL parameters and determines values for
// limit and offset of the result set. Both must be present; otherwise no
// slicing happens.
func parseLimitAndOffset(c *gin.Context) (limit int, offset int, ok bool) {
	limitParam := c.Query("limit")
	offsetParam := c.Query("offset")
	if limitParam == "" || offsetParam == "" {
		return 0, 0, true
	}
	limit, errLimit := strconv.Atoi(limitParam)
	if errLimit != nil || limit < 1 {
		respondError(c, apperr.New(apperr.Validation, "invalid limit parameter"))
		return 0, 0, false
	}
	offset, errOffset := strconv.Atoi(offsetParam)
	if errOffset != nil || offset < 0 {
		respondError(c, apperr.New(apperr.Validation, "invalid offset parameter"))
		return 0, 0, false
	}
	return limit, offset, true
}

// findContactByID locates the contact whose ID value matches the id
// parameter of the request URL, then returns that contact as a response.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/api/contacts/56"
func findContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	contact, err := repository.FindByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response{
		Success: true,
		Data:    contact,
		Message: "contact found successfully",
	})
}

// createContact turns one multipart submission into a new contact record.
// The picture arrives either as a file part, which is validated and stored
// first, or as a plain text value (an external URL). A contact without any
// picture is rejected.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts --request "POST" --form "name=João da Silva" --form "contact=123456789" --form "email=joao@teste.com" --form "picture=@photo.png"
func createContact(c *gin.Context) {
	sub, err := parseSubmission(c)
	if err != nil {
		respondError(c, err)
		return
	}

	picture := sub.fields["picture"]
	if sub.file != nil {
		stored, err := storeUpload(sub.file)
		if err != nil {
			respondError(c, err)
			return
		}
		picture = stored.Path
	}
	if picture == "" {
		respondError(c, apperr.New(apperr.MissingImage, "a contact picture is required"))
		return
	}

	created, err := repository.Create(model.NewContact{
		Name:    sub.fields["name"],
		Contact: sub.fields["contact"],
		Email:   sub.fields["email"],
		Picture: picture,
	})
	if err != nil {
		// A freshly stored file is left behind when the insert fails.
		// Accepted: the file is orphaned, not rolled back.
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response{
		Success: true,
		Data:    created,
		Message: "contact created successfully",
	})
}

// updateContactByID applies a partial multipart update to the contact whose
// ID value matches the id parameter of the request URL. A new file replaces
// the stored image; the previous file is removed only after the new one is
// confirmed on disk. Without a file part the stored picture is kept, unless
// a non-empty picture text value was supplied. Empty text fields never
// overwrite stored values.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "PUT" --form "contact=987654321"
func updateContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	existing, err := repository.FindByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	sub, err := parseSubmission(c)
	if err != nil {
		respondError(c, err)
		return
	}

	upd := model.ContactUpdate{}
	if v, ok := sub.fields["name"]; ok && v != "" {
		upd.Name = &v
	}
	if v, ok := sub.fields["contact"]; ok && v != "" {
		upd.Contact = &v
	}
	if v, ok := sub.fields["email"]; ok && v != "" {
		upd.Email = &v
	}
	if sub.file != nil {
		stored, err := storeUpload(sub.file)
		if err != nil {
			respondError(c, err)
			return
		}
		if existing.Picture != "" && !uploads.Delete(existing.Picture) {
			slog.Warn("could not remove replaced image", "path", existing.Picture)
		}
		upd.Picture = &stored.Path
	} else if v, ok := sub.fields["picture"]; ok && v != "" {
		upd.Picture = &v
	}

	updated, err := repository.Update(id, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response{
		Success: true,
		Data:    updated,
		Message: "contact updated successfully",
	})
}

// deleteContactByID deletes the contact whose ID value matches the id
// parameter of the request URL from the database. The stored image is kept;
// only picture replacement removes files.
//
// Example REST API call:
//
//	> curl http://localhost:8080/api/contacts/56 --request "DELETE"
func deleteContactByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := repository.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response{
		Success: true,
		Message: "contact deleted successfully",
	})
}

// parseID reads the numeric id parameter from the request URL.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, apperr.New(apperr.Validation, "id must be a number"))
		return 0, false
	}
	return id, true
}

// parseSubmission splits one multipart request into text fields and at most
// one file part under the "picture" field.
func parseSubmission(c *gin.Context) (submission, error) {
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return submission{}, apperr.New(apperr.PayloadTooLarge, "request body exceeds the upload size limit")
		}
		return submission{}, apperr.New(apperr.Validation, "request must be a multipart form")
	}
	sub := submission{fields: make(map[string]string)}
	for name, values := range form.Value {
		if len(values) > 0 {
			sub.fields[name] = values[0]
		}
	}
	if files := form.File["picture"]; len(files) > 0 {
		sub.file = files[0]
	}
	return sub, nil
}

// storeUpload streams one file part into the upload store.
func storeUpload(header *multipart.FileHeader) (upload.Result, error) {
	file, err := header.Open()
	if err != nil {
		return upload.Result{}, apperr.Wrap(apperr.Upload, "could not read the uploaded file", err)
	}
	defer file.Close()
	return uploads.Save(file, header.Header.Get("Content-Type"), header.Filename)
}

// respondError reports err with the status code of its kind. Unclassified
// errors surface as 500 and are logged.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	}
	message := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	c.AbortWithStatusJSON(status, response{
		Success: false,
		Error:   kind.String(),
		Message: message,
	})
}

// statusFor maps an error kind to its HTTP status code.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation, apperr.Conflict, apperr.Upload, apperr.MissingImage, apperr.NoFields:
		return http.StatusBadRequest
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.PayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
