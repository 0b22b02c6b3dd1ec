package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"contactbook/pkg/model"
)

const baseURL = "http://localhost:8080/api/contacts"

// pngPixel is a 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// main runs one full create / read / update / delete cycle against a running
// service, uploading a real image on the way.
//
// Usage example on the command line:
// > go run main.go
func main() {
	created := createContact()
	fmt.Printf("created contact %d with picture %s\n", created.Id, created.Picture)

	listContacts()
	getContact(created.Id)
	updateContact(created.Id)
	deleteContact(created.Id)
	fmt.Println("done")
}

func createContact() model.Contact {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	mustWriteField(writer, "name", "Amanda Oliveira")
	mustWriteField(writer, "contact", "912345678")
	mustWriteField(writer, "email", "amanda.oliveira@example.com")
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="picture"; filename="avatar.png"`)
	header.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(header)
	if err != nil {
		panic(err)
	}
	if _, err := part.Write(pngPixel); err != nil {
		panic(err)
	}
	if err := writer.Close(); err != nil {
		panic(err)
	}

	res, err := http.Post(baseURL, writer.FormDataContentType(), body)
	if err != nil {
		panic(err)
	}
	var parsed model.ContactResponse
	decodeBody(res, &parsed)
	if !parsed.Success {
		panic("create failed: " + parsed.Message)
	}
	return parsed.Data
}

func listContacts() {
	res, err := http.Get(baseURL)
	if err != nil {
		panic(err)
	}
	var parsed model.ContactListResponse
	decodeBody(res, &parsed)
	fmt.Printf("listed %d contacts\n", parsed.Total)
}

func getContact(id int64) {
	res, err := http.Get(fmt.Sprintf("%s/%d", baseURL, id))
	if err != nil {
		panic(err)
	}
	var parsed model.ContactResponse
	decodeBody(res, &parsed)
	fmt.Printf("fetched contact %d: %s\n", parsed.Data.Id, parsed.Data.Name)
}

func updateContact(id int64) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	mustWriteField(writer, "contact", "987654321")
	if err := writer.Close(); err != nil {
		panic(err)
	}
	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/%d", baseURL, id), body)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	var parsed model.ContactResponse
	decodeBody(res, &parsed)
	fmt.Printf("updated contact %d: number is now %s\n", parsed.Data.Id, parsed.Data.Contact)
}

func deleteContact(id int64) {
	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/%d", baseURL, id), nil)
	if err != nil {
		panic(err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	io.Copy(io.Discard, res.Body)
	res.Body.Close()
	fmt.Printf("deleted contact %d\n", id)
}

func mustWriteField(writer *multipart.Writer, name, value string) {
	if err := writer.WriteField(name, value); err != nil {
		panic(err)
	}
}

func decodeBody(res *http.Response, target any) {
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(target); err != nil {
		panic(err)
	}
}
