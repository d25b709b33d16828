package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nearbyu-loyalty/pkg/cycle"
	"nearbyu-loyalty/pkg/docstore"
)

const (
	Collection     = "reviews"
	MarkCollection = "review_marks"
)

// Review is the document stored at reviews/{shopId}/{reviewId}.
type Review struct {
	ID           string `json:"id"`
	ShopID       string `json:"shopId"`
	StudentEmail string `json:"studentEmail"`
	StudentName  string `json:"studentName"`
	Rating       int    `json:"rating"`
	Body         string `json:"body"`
	Timestamp    string `json:"timestamp"`
}

// mark records the last counted review of a student for a shop.
type mark struct {
	ReviewID  string `json:"reviewId"`
	Timestamp string `json:"timestamp"`
}

func ShopCollection(shopID string) string {
	return docstore.Join(Collection, shopID)
}

func Path(shopID, reviewID string) string {
	return docstore.Join(Collection, shopID, reviewID)
}

func MarkPath(shopID, email string) string {
	return docstore.Join(MarkCollection, shopID, docstore.EscapeKey(email))
}

// Time returns the parsed review timestamp; ok is false when it is missing
// or malformed.
func (r *Review) Time() (time.Time, bool) {
	return cycle.ParseTimestamp(r.Timestamp)
}

// IsRecent reports whether the review still counts at now.
func (r *Review) IsRecent(now time.Time, window time.Duration) bool {
	ts, ok := r.Time()
	return ok && cycle.IsWithinCycle(ts, now, window)
}

// Qualifies reports whether r is a recent review written by email.
func (r *Review) Qualifies(email string, now time.Time, window time.Duration) bool {
	return r.StudentEmail == email && r.IsRecent(now, window)
}

type Filter string

const (
	FilterAll      Filter = "all"
	FilterPositive Filter = "positive"
	FilterNeutral  Filter = "neutral"
	FilterNegative Filter = "negative"
)

func ParseFilter(raw string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterPositive, FilterNeutral, FilterNegative:
		return f, nil
	default:
		return "", fmt.Errorf("unknown review filter %q", raw)
	}
}

func (f Filter) Matches(rating int) bool {
	switch f {
	case FilterPositive:
		return rating >= 4
	case FilterNeutral:
		return rating == 3
	case FilterNegative:
		return rating <= 2
	default:
		return true
	}
}

// ByStudent loads the reviews a student left for a shop.
func ByStudent(ctx context.Context, store docstore.Store, shopID, email string) ([]*Review, error) {
	docs, err := store.QueryByField(ctx, ShopCollection(shopID), "studentEmail", email)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs), nil
}

// decodeAll skips documents that do not decode; they can never qualify.
func decodeAll(docs []docstore.Document) []*Review {
	out := make([]*Review, 0, len(docs))
	for _, doc := range docs {
		var r Review
		if err := doc.Decode(&r); err != nil {
			continue
		}
		if r.ID == "" {
			r.ID = doc.Key()
		}
		out = append(out, &r)
	}
	return out
}
