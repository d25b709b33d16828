package coin

import (
	"context"
	"errors"
	"sort"

	"nearbyu-loyalty/pkg/db/pagination"
	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/errutil"
)

// ListWalletEntries returns a student's redemptions and withdrawals, oldest
// first.
func (s *Service) ListWalletEntries(ctx context.Context, studentID string) ([]*WalletEntry, error) {
	ctx, span := tracer.Start(ctx, "coin.ListWalletEntries")
	defer span.End()

	docs, err := s.store.List(ctx, WalletEntriesCollection(studentID))
	if err != nil {
		return nil, err
	}

	entries := make([]*WalletEntry, 0, len(docs))
	for _, doc := range docs {
		var e WalletEntry
		if err := doc.Decode(&e); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
	return entries, nil
}

// PageWalletEntries returns one page of a student's wallet history, oldest
// first, starting after the entry named by the cursor.
func (s *Service) PageWalletEntries(ctx context.Context, studentID string, p pagination.Pagination) ([]*WalletEntry, *pagination.PageInfo, error) {
	cursor, err := pagination.DecodeCursor(p.Cursor)
	if err != nil {
		return nil, nil, errutil.BadRequest("invalid cursor", err)
	}

	entries, err := s.ListWalletEntries(ctx, studentID)
	if err != nil {
		return nil, nil, err
	}

	start := sort.Search(len(entries), func(i int) bool { return entries[i].Seq > cursor.Seq })
	entries = entries[start:]
	limit := p.Size()
	if len(entries) > limit+1 {
		entries = entries[:limit+1]
	}
	return pagination.BuildCursorPageInfo(entries, limit, func(e *WalletEntry) pagination.Cursor {
		return pagination.Cursor{Seq: e.Seq, ID: e.ID}
	})
}

// VerifyWalletChain recomputes every entry hash and checks the links between
// entries and the head pointer.
func (s *Service) VerifyWalletChain(ctx context.Context, studentID string) (*ChainVerification, error) {
	ctx, span := tracer.Start(ctx, "coin.VerifyWalletChain")
	defer span.End()

	entries, err := s.ListWalletEntries(ctx, studentID)
	if err != nil {
		return nil, err
	}

	res := &ChainVerification{Valid: true, Entries: len(entries)}

	var lastHash string
	for i, e := range entries {
		if e.Seq != int64(i+1) || e.PreviousHash != lastHash || e.Hash != e.GenerateHash() {
			res.Valid = false
			res.BrokenAt = e.ID
			return res, nil
		}
		lastHash = e.Hash
	}

	var head walletHead
	doc, err := s.store.Get(ctx, WalletHeadPath(studentID))
	switch {
	case errors.Is(err, docstore.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		if err := doc.Decode(&head); err != nil {
			return nil, err
		}
	}
	if head.Hash != lastHash || head.Seq != int64(len(entries)) {
		res.Valid = false
		res.BrokenAt = head.EntryID
	}
	return res, nil
}
