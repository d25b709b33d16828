package coin

import (
	"context"
	"errors"
	"time"

	"nearbyu-loyalty/pkg/cycle"
	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/errutil"
	"nearbyu-loyalty/pkg/task"
	"nearbyu-loyalty/services/student"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var errStudentMissing = errors.New("student missing")

// walletMutation is the part redeem and withdraw differ in. It returns the
// new balances, or ok=false to reject without writing anything.
type walletMutation func(cur *student.Student) (coins, wallet int64, ok bool)

type walletChange struct {
	applied bool
	before  student.Student
	entry   *WalletEntry
}

// mutateWallet applies fn to the student's balances and appends the matching
// wallet entry to the student's chain, all in one transaction.
func (s *Service) mutateWallet(ctx context.Context, studentID string, typ EntryType, fn walletMutation) (*walletChange, error) {
	entryID := s.ids.NextID()
	studentPath := student.Path(studentID)
	headPath := WalletHeadPath(studentID)
	entryPath := WalletEntryPath(studentID, entryID)

	var change *walletChange
	err := s.store.Transact(ctx, []string{studentPath, headPath, entryPath}, func(tx docstore.Txn) error {
		change = &walletChange{}

		doc, err := tx.Get(studentPath)
		if errors.Is(err, docstore.ErrNotFound) {
			return errStudentMissing
		}
		if err != nil {
			return err
		}
		cur, err := student.Decode(doc)
		if err != nil {
			return err
		}
		change.before = *cur

		coins, wallet, ok := fn(cur)
		if !ok {
			return nil
		}

		var head walletHead
		headDoc, err := tx.Get(headPath)
		switch {
		case errors.Is(err, docstore.ErrNotFound):
		case err != nil:
			return err
		default:
			if err := headDoc.Decode(&head); err != nil {
				return err
			}
		}

		entry := &WalletEntry{
			ID:           entryID,
			StudentID:    studentID,
			Seq:          head.Seq + 1,
			Type:         typ,
			CoinsDelta:   coins - cur.Coins,
			WalletDelta:  wallet - cur.WalletBalance,
			CoinsAfter:   coins,
			WalletAfter:  wallet,
			CreatedAt:    cycle.FormatTimestamp(s.clock.Now()),
			PreviousHash: head.Hash,
		}
		entry.Hash = entry.GenerateHash()

		if err := tx.Update(studentPath, map[string]any{"coins": coins, "walletBalance": wallet}); err != nil {
			return err
		}
		if err := tx.Set(entryPath, entry); err != nil {
			return err
		}
		if err := tx.Set(headPath, walletHead{Seq: entry.Seq, Hash: entry.Hash, EntryID: entry.ID}); err != nil {
			return err
		}

		change.applied = true
		change.entry = entry
		return nil
	})
	if errors.Is(err, errStudentMissing) {
		return nil, errutil.NotFound("student not found", nil)
	}
	if err != nil {
		return nil, err
	}
	return change, nil
}

// Redeem converts a fixed block of coins into wallet balance. Partial
// redemptions are not possible.
func (s *Service) Redeem(ctx context.Context, studentID string) (*RedeemResult, error) {
	ctx, span := tracer.Start(ctx, "coin.Redeem")
	defer span.End()
	log := s.logger.With(zap.String("student_id", studentID))

	change, err := s.mutateWallet(ctx, studentID, EntryRedeem, func(cur *student.Student) (int64, int64, bool) {
		if cur.Coins < s.redeemCoins {
			return 0, 0, false
		}
		return cur.Coins - s.redeemCoins, cur.WalletBalance + s.redeemValue, true
	})
	if err != nil {
		log.Error("redeem failed", zap.Error(err))
		return nil, err
	}

	res := &RedeemResult{Outcome: RedeemSuccess}
	if change.applied {
		res.Coins = change.entry.CoinsAfter
		res.WalletBalance = change.entry.WalletAfter
		res.EntryID = change.entry.ID
	} else {
		res.Outcome = RedeemInsufficientCoins
		res.Coins = change.before.Coins
		res.WalletBalance = change.before.WalletBalance
	}
	res.Message = res.Outcome.Message()

	redeemTotal.WithLabelValues(string(res.Outcome)).Inc()
	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
	log.Info("redeem processed", zap.String("outcome", string(res.Outcome)),
		zap.Int64("coins", res.Coins), zap.Int64("wallet_balance", res.WalletBalance))
	return res, nil
}

// Withdraw empties the wallet and returns the amount taken out. The payout
// itself happens elsewhere; a payout task is queued after commit and a
// failure to queue it is only logged.
func (s *Service) Withdraw(ctx context.Context, studentID string) (*WithdrawResult, error) {
	ctx, span := tracer.Start(ctx, "coin.Withdraw")
	defer span.End()
	log := s.logger.With(zap.String("student_id", studentID))

	change, err := s.mutateWallet(ctx, studentID, EntryWithdraw, func(cur *student.Student) (int64, int64, bool) {
		if cur.WalletBalance <= 0 {
			return 0, 0, false
		}
		return cur.Coins, 0, true
	})
	if err != nil {
		log.Error("withdraw failed", zap.Error(err))
		return nil, err
	}

	res := &WithdrawResult{Outcome: WithdrawNothingToWithdraw}
	if change.applied {
		res.Outcome = WithdrawSuccess
		res.Amount = change.before.WalletBalance
		res.EntryID = change.entry.ID
		withdrawnAmount.Add(float64(res.Amount))
		s.requestPayout(ctx, change.entry, res.Amount)
	}
	res.Message = res.Outcome.Message()

	withdrawTotal.WithLabelValues(string(res.Outcome)).Inc()
	span.SetAttributes(attribute.String("outcome", string(res.Outcome)))
	log.Info("withdraw processed", zap.String("outcome", string(res.Outcome)), zap.Int64("amount", res.Amount))
	return res, nil
}

func (s *Service) requestPayout(ctx context.Context, entry *WalletEntry, amount int64) {
	if s.enqueuer == nil {
		return
	}

	t, err := NewPayoutTask(PayoutPayload{
		StudentID:   entry.StudentID,
		EntryID:     entry.ID,
		Amount:      amount,
		RequestedAt: entry.CreatedAt,
	})
	if err != nil {
		s.logger.Error("failed to build payout task", zap.String("entry_id", entry.ID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = s.enqueuer.Enqueue(ctx, t, payoutOptions(s.payoutQueue, entry.ID)...)
	if errors.Is(err, task.ErrAlreadyQueued) {
		return
	}
	if err != nil {
		s.logger.Warn("failed to enqueue payout, balance already cleared",
			zap.String("entry_id", entry.ID), zap.Int64("amount", amount), zap.Error(err))
	}
}
