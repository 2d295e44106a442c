// Package seeddata holds the embedded sample catalog, users and review vocabulary
// used by the bulk loaders, plus parsers for user-supplied equivalents.
package seeddata

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

var (
	//go:embed books.json
	booksJSON []byte

	//go:embed users.tsv
	usersTSV []byte

	//go:embed words.txt
	wordsTXT string
)

// BookRecord is one entry of a book list. Genres is comma separated.
type BookRecord struct {
	Author string `json:"author"`
	Title  string `json:"title"`
	Genres string `json:"genres"`
}

// UserRecord is one row of a users file.
type UserRecord struct {
	FirstName   string
	LastName    string
	Email       string
	Password    string
	Phone       string
	DateOfBirth string
	Gender      string
}

// FullName joins the first and last name.
func (u UserRecord) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// Books returns the embedded classics list.
func Books() ([]BookRecord, error) {
	return ParseBooks(bytes.NewReader(booksJSON))
}

// ParseBooks decodes a JSON array of book records.
func ParseBooks(r io.Reader) ([]BookRecord, error) {
	var books []BookRecord
	if err := json.NewDecoder(r).Decode(&books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}

// Users returns the embedded sample users.
func Users() ([]UserRecord, error) {
	return ParseUsers(bytes.NewReader(usersTSV))
}

var userHeader = []string{"first_name", "last_name", "email", "password", "phone", "date_of_birth", "gender"}

// ParseUsers reads a tab-separated users file whose first line is the header
// first_name last_name email password phone date_of_birth gender, in any column order.
func ParseUsers(r io.Reader) ([]UserRecord, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("users file is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range userHeader {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("users file is missing column %q", name)
		}
	}

	field := func(row []string, name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var users []UserRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read users: %w", err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		users = append(users, UserRecord{
			FirstName:   field(row, "first_name"),
			LastName:    field(row, "last_name"),
			Email:       field(row, "email"),
			Password:    field(row, "password"),
			Phone:       field(row, "phone"),
			DateOfBirth: field(row, "date_of_birth"),
			Gender:      field(row, "gender"),
		})
	}
	return users, nil
}

// Words returns the vocabulary synthetic reviews are drawn from.
func Words() []string {
	return strings.Fields(wordsTXT)
}
