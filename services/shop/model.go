package shop

import (
	"strings"

	"nearbyu-loyalty/pkg/docstore"

	"github.com/gosimple/slug"
)

const Collection = "shops"

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

type Product struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// Shop is the document stored at shops/{shopId}.
type Shop struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category,omitempty"`
	VendorUsername string    `json:"vendorUsername"`
	Status         Status    `json:"status"`
	Products       []Product `json:"products,omitempty"`
}

func Path(shopID string) string {
	return docstore.Join(Collection, shopID)
}

// DeriveShopID turns a shop name into its id: "Cafe 1" -> "cafe_1".
func DeriveShopID(name string) string {
	return strings.ReplaceAll(slug.Make(name), "-", "_")
}

func decode(doc docstore.Document) (*Shop, error) {
	var s Shop
	if err := doc.Decode(&s); err != nil {
		return nil, err
	}
	if s.ID == "" {
		s.ID = doc.Key()
	}
	return &s, nil
}
