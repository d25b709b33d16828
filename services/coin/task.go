package coin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nearbyu-loyalty/pkg/clock"
	"nearbyu-loyalty/pkg/cycle"
	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type PayoutPayload struct {
	StudentID   string `json:"studentId"`
	EntryID     string `json:"entryId"`
	Amount      int64  `json:"amount"`
	RequestedAt string `json:"requestedAt"`
}

func NewPayoutTask(p PayoutPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskname.WalletPayoutRequested, payload), nil
}

// payoutOptions dedupes on the wallet entry id, so one withdrawal never
// yields two payout tasks.
func payoutOptions(queue, entryID string) []asynq.Option {
	opts := []asynq.Option{
		asynq.TaskID(entryID),
		asynq.MaxRetry(10),
		asynq.Timeout(30 * time.Second),
	}
	if queue != "" {
		opts = append(opts, asynq.Queue(queue))
	}
	return opts
}

// Payout is the record the worker writes at payouts/{entryId}.
type Payout struct {
	StudentID   string `json:"studentId"`
	EntryID     string `json:"entryId"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	RequestedAt string `json:"requestedAt"`
	AcceptedAt  string `json:"acceptedAt"`
}

const PayoutStatusAccepted = "accepted"

// PayoutHandler accepts payout requests queued by Withdraw. It checks the
// request against the wallet entry it came from and records it once.
type PayoutHandler struct {
	store  docstore.Store
	clock  clock.Clock
	logger *zap.Logger
}

type PayoutHandlerParams struct {
	fx.In
	Store  docstore.Store
	Clock  clock.Clock
	Logger *zap.Logger `optional:"true"`
}

func NewPayoutHandler(p PayoutHandlerParams) *PayoutHandler {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayoutHandler{store: p.Store, clock: p.Clock, logger: logger.Named("payout")}
}

func registerPayoutHandler(mux *asynq.ServeMux, h *PayoutHandler) {
	mux.HandleFunc(taskname.WalletPayoutRequested, h.ProcessTask)
}

func (h *PayoutHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p PayoutPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payout payload: %v: %w", err, asynq.SkipRetry)
	}
	log := h.logger.With(zap.String("student_id", p.StudentID), zap.String("entry_id", p.EntryID))

	doc, err := h.store.Get(ctx, WalletEntryPath(p.StudentID, p.EntryID))
	if errors.Is(err, docstore.ErrNotFound) {
		log.Error("payout requested for unknown wallet entry")
		return fmt.Errorf("wallet entry %s not found: %w", p.EntryID, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	var entry WalletEntry
	if err := doc.Decode(&entry); err != nil {
		return err
	}
	if entry.Type != EntryWithdraw || -entry.WalletDelta != p.Amount {
		log.Error("payout request does not match wallet entry",
			zap.Int64("requested", p.Amount), zap.Int64("withdrawn", -entry.WalletDelta))
		return fmt.Errorf("payout mismatch for entry %s: %w", p.EntryID, asynq.SkipRetry)
	}

	path := PayoutPath(p.EntryID)
	accepted := false
	err = h.store.Transact(ctx, []string{path}, func(tx docstore.Txn) error {
		accepted = false
		if _, err := tx.Get(path); err == nil {
			return nil
		} else if !errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		accepted = true
		return tx.Set(path, Payout{
			StudentID:   p.StudentID,
			EntryID:     p.EntryID,
			Amount:      p.Amount,
			Status:      PayoutStatusAccepted,
			RequestedAt: p.RequestedAt,
			AcceptedAt:  cycle.FormatTimestamp(h.clock.Now()),
		})
	})
	if err != nil {
		return err
	}

	if accepted {
		log.Info("payout accepted", zap.Int64("amount", p.Amount))
	} else {
		log.Info("payout already accepted, skipping")
	}
	return nil
}
