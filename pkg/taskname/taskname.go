package taskname

const (
	// Wallet tasks
	WalletPayoutRequested = "wallet:payout_requested"
)
