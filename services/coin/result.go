package coin

// Rejections are business outcomes, not errors. Every outcome has its own
// user facing message.

type AwardOutcome string

const (
	AwardSuccess             AwardOutcome = "success"
	AwardRejectedNotEligible AwardOutcome = "rejected_not_eligible"
	AwardRejectedRateLimited AwardOutcome = "rejected_rate_limited"
	AwardStudentNotFound     AwardOutcome = "student_not_found"
)

func (o AwardOutcome) Message() string {
	switch o {
	case AwardSuccess:
		return "Coin awarded."
	case AwardRejectedNotEligible:
		return "This student has not reviewed your shop in the last 30 days."
	case AwardRejectedRateLimited:
		return "This student already received a coin from your shop this month."
	case AwardStudentNotFound:
		return "No student is registered with that email."
	default:
		return string(o)
	}
}

type AwardResult struct {
	Outcome   AwardOutcome `json:"outcome"`
	Message   string       `json:"message"`
	StudentID string       `json:"studentId,omitempty"`
	Coins     int64        `json:"coins,omitempty"`
}

func newAwardResult(o AwardOutcome) *AwardResult {
	return &AwardResult{Outcome: o, Message: o.Message()}
}

type RedeemOutcome string

const (
	RedeemSuccess           RedeemOutcome = "success"
	RedeemInsufficientCoins RedeemOutcome = "insufficient_coins"
)

func (o RedeemOutcome) Message() string {
	switch o {
	case RedeemSuccess:
		return "Coins redeemed to your wallet."
	case RedeemInsufficientCoins:
		return "You need at least 10 coins to redeem."
	default:
		return string(o)
	}
}

type RedeemResult struct {
	Outcome       RedeemOutcome `json:"outcome"`
	Message       string        `json:"message"`
	Coins         int64         `json:"coins"`
	WalletBalance int64         `json:"walletBalance"`
	EntryID       string        `json:"entryId,omitempty"`
}

type WithdrawOutcome string

const (
	WithdrawSuccess           WithdrawOutcome = "success"
	WithdrawNothingToWithdraw WithdrawOutcome = "nothing_to_withdraw"
)

func (o WithdrawOutcome) Message() string {
	switch o {
	case WithdrawSuccess:
		return "Withdrawal request sent."
	case WithdrawNothingToWithdraw:
		return "Your wallet is empty."
	default:
		return string(o)
	}
}

type WithdrawResult struct {
	Outcome WithdrawOutcome `json:"outcome"`
	Message string          `json:"message"`
	Amount  int64           `json:"amount"`
	EntryID string          `json:"entryId,omitempty"`
}

// ChainVerification reports whether a student's wallet history is intact.
type ChainVerification struct {
	Valid    bool   `json:"valid"`
	Entries  int    `json:"entries"`
	BrokenAt string `json:"brokenAt,omitempty"`
}
