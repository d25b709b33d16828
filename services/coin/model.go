package coin

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"nearbyu-loyalty/pkg/docstore"
)

const (
	LogCollection        = "coin_logs"
	WalletCollection     = "wallet_ledger"
	WalletHeadCollection = "wallet_ledger_heads"
	PayoutCollection     = "payouts"
)

// CoinAward is the award log entry stored at coin_logs/{shopId}/{escapedEmail}.
// It is overwritten on every successful award and never deleted.
type CoinAward struct {
	LastCoinDate string `json:"lastCoinDate"`
	ShopID       string `json:"shopId,omitempty"`
	StudentEmail string `json:"studentEmail,omitempty"`
}

func LogPath(shopID, email string) string {
	return docstore.Join(LogCollection, shopID, docstore.EscapeKey(email))
}

type EntryType string

const (
	EntryRedeem   EntryType = "redeem"
	EntryWithdraw EntryType = "withdraw"
)

// WalletEntry is one redemption or withdrawal. Entries of a student form a
// hash chain ordered by Seq.
type WalletEntry struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"studentId"`
	Seq          int64     `json:"seq"`
	Type         EntryType `json:"type"`
	CoinsDelta   int64     `json:"coinsDelta"`
	WalletDelta  int64     `json:"walletDelta"`
	CoinsAfter   int64     `json:"coinsAfter"`
	WalletAfter  int64     `json:"walletAfter"`
	CreatedAt    string    `json:"createdAt"`
	PreviousHash string    `json:"previousHash"`
	Hash         string    `json:"hash"`
}

// walletHead points at the newest entry of a student's chain.
type walletHead struct {
	Seq     int64  `json:"seq"`
	Hash    string `json:"hash"`
	EntryID string `json:"entryId"`
}

func WalletEntriesCollection(studentID string) string {
	return docstore.Join(WalletCollection, studentID)
}

func WalletEntryPath(studentID, entryID string) string {
	return docstore.Join(WalletCollection, studentID, entryID)
}

func WalletHeadPath(studentID string) string {
	return docstore.Join(WalletHeadCollection, studentID)
}

func PayoutPath(entryID string) string {
	return docstore.Join(PayoutCollection, entryID)
}

func (e *WalletEntry) HashFields() map[string]string {
	return map[string]string{
		"id":            e.ID,
		"student_id":    e.StudentID,
		"seq":           fmt.Sprintf("%d", e.Seq),
		"type":          string(e.Type),
		"coins_delta":   fmt.Sprintf("%d", e.CoinsDelta),
		"wallet_delta":  fmt.Sprintf("%d", e.WalletDelta),
		"coins_after":   fmt.Sprintf("%d", e.CoinsAfter),
		"wallet_after":  fmt.Sprintf("%d", e.WalletAfter),
		"created_at":    e.CreatedAt,
		"previous_hash": e.PreviousHash,
	}
}

func (e *WalletEntry) GenerateHash() string {
	fields := e.HashFields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(hash[:])
}
