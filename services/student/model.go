package student

import (
	"strings"

	"nearbyu-loyalty/pkg/docstore"
)

const (
	Collection      = "students"
	EmailCollection = "student_emails"
)

// Student is the document stored at students/{id}. Money amounts are whole
// currency units.
type Student struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	Coins         int64    `json:"coins"`
	WalletBalance int64    `json:"walletBalance"`
	Favorites     []string `json:"favorites,omitempty"`
}

// emailMarker reserves an email for one student id.
type emailMarker struct {
	StudentID string `json:"studentId"`
}

func Path(id string) string {
	return docstore.Join(Collection, id)
}

func EmailPath(email string) string {
	return docstore.Join(EmailCollection, docstore.EscapeKey(email))
}

// NormalizeEmail trims surrounding whitespace. Matching stays case sensitive.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// Decode reads a student document, filling the id from the path when the
// stored body predates the id field.
func Decode(doc docstore.Document) (*Student, error) {
	var s Student
	if err := doc.Decode(&s); err != nil {
		return nil, err
	}
	if s.ID == "" {
		s.ID = doc.Key()
	}
	return &s, nil
}
