// Package integrationtest runs the full service against a real database.
// The tests are skipped unless INTEGRATION_DBHOST points at a MySQL
// instance with the contacts schema applied.
package integrationtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactbook/internal/config"
	"contactbook/internal/repository"
	"contactbook/internal/service"
	"contactbook/internal/upload"
	wire "contactbook/pkg/model"
)

// newRouter wires the full stack against the configured database, storing
// uploads below a test-scoped directory.
func newRouter(t *testing.T) *gin.Engine {
	if os.Getenv("INTEGRATION_DBHOST") == "" {
		t.Skip("set INTEGRATION_DBHOST to run integration tests")
	}
	t.Setenv("DBHOST", os.Getenv("INTEGRATION_DBHOST"))
	cfg := config.Load()
	sqlDB := repository.CreateDatabase(cfg)
	repository.Setup(sqlDB)
	gin.SetMode(gin.ReleaseMode)
	store := upload.NewStore(filepath.Join(t.TempDir(), "images"))
	return service.SetupHttpRouter(store, cfg.MaxUploadBytes())
}

// createBody builds a multipart create submission with an attached PNG.
func createBody(t *testing.T, name, contact, email string) (io.Reader, string) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	require.NoError(t, writer.WriteField("name", name))
	require.NoError(t, writer.WriteField("contact", contact))
	require.NoError(t, writer.WriteField("email", email))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="picture"; filename="test.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func run(router *gin.Engine, method, url string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest(method, url, body)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	router.ServeHTTP(recorder, request)
	return recorder
}

// TestContactHappyPath exercises POST, GET, PUT and DELETE with valid data,
// including the duplicate check on a repeated create.
func TestContactHappyPath(t *testing.T) {
	router := newRouter(t)

	// create a contact with an uploaded picture
	body, contentType := createBody(t, "João da Silva", "123456789", "joao@teste.com")
	postRecorder := run(router, "POST", "/api/contacts", body, contentType)
	assert.Equal(t, http.StatusCreated, postRecorder.Code)
	var created wire.ContactResponse
	require.NoError(t, json.Unmarshal(postRecorder.Body.Bytes(), &created))
	assert.True(t, created.Success)
	assert.Regexp(t, `^/uploads/images/\d+_.+\.png$`, created.Data.Picture)
	id := created.Data.Id

	// the same pair of contact number and email must be rejected
	dupBody, dupContentType := createBody(t, "João da Silva", "123456789", "joao@teste.com")
	dupRecorder := run(router, "POST", "/api/contacts", dupBody, dupContentType)
	assert.Equal(t, http.StatusBadRequest, dupRecorder.Code)
	var dup wire.ContactResponse
	require.NoError(t, json.Unmarshal(dupRecorder.Body.Bytes(), &dup))
	assert.Equal(t, "conflict", dup.Error)

	// read the contact back
	getRecorder := run(router, "GET", fmt.Sprintf("/api/contacts/%d", id), nil, "")
	assert.Equal(t, http.StatusOK, getRecorder.Code)
	var fetched wire.ContactResponse
	require.NoError(t, json.Unmarshal(getRecorder.Body.Bytes(), &fetched))
	assert.Equal(t, created.Data, fetched.Data)

	// update the contact number only; the picture must survive
	updateBuf := &bytes.Buffer{}
	updateWriter := multipart.NewWriter(updateBuf)
	require.NoError(t, updateWriter.WriteField("contact", "987654321"))
	require.NoError(t, updateWriter.Close())
	putRecorder := run(router, "PUT", fmt.Sprintf("/api/contacts/%d", id),
		updateBuf, updateWriter.FormDataContentType())
	assert.Equal(t, http.StatusOK, putRecorder.Code)
	var updated wire.ContactResponse
	require.NoError(t, json.Unmarshal(putRecorder.Body.Bytes(), &updated))
	assert.Equal(t, "987654321", updated.Data.Contact)
	assert.Equal(t, created.Data.Picture, updated.Data.Picture)

	// the stored image is reachable on the public surface
	imageRecorder := run(router, "GET", created.Data.Picture, nil, "")
	assert.Equal(t, http.StatusOK, imageRecorder.Code)

	// delete the contact
	deleteRecorder := run(router, "DELETE", fmt.Sprintf("/api/contacts/%d", id), nil, "")
	assert.Equal(t, http.StatusOK, deleteRecorder.Code)

	// a final lookup must not find it
	finalRecorder := run(router, "GET", fmt.Sprintf("/api/contacts/%d", id), nil, "")
	assert.Equal(t, http.StatusNotFound, finalRecorder.Code)
}

// TestSearchFindsBySubstring creates two contacts and filters the list by a
// case-insensitive name fragment.
func TestSearchFindsBySubstring(t *testing.T) {
	router := newRouter(t)

	first, firstType := createBody(t, "Amanda Oliveira", "911111111", "amanda@example.com")
	firstRecorder := run(router, "POST", "/api/contacts", first, firstType)
	require.Equal(t, http.StatusCreated, firstRecorder.Code)
	second, secondType := createBody(t, "Bruno Costa", "922222222", "bruno@example.com")
	secondRecorder := run(router, "POST", "/api/contacts", second, secondType)
	require.Equal(t, http.StatusCreated, secondRecorder.Code)

	searchRecorder := run(router, "GET", "/api/contacts?search=OLIVEIRA", nil, "")
	assert.Equal(t, http.StatusOK, searchRecorder.Code)
	var list wire.ContactListResponse
	require.NoError(t, json.Unmarshal(searchRecorder.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "Amanda Oliveira", list.Data[0].Name)

	// clean up
	for _, recorder := range []*httptest.ResponseRecorder{firstRecorder, secondRecorder} {
		var created wire.ContactResponse
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
		run(router, "DELETE", fmt.Sprintf("/api/contacts/%d", created.Data.Id), nil, "")
	}
}
