package coin

import "github.com/prometheus/client_golang/prometheus"

var (
	awardTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coin_award_total",
		Help: "Coin award attempts by outcome.",
	}, []string{"outcome"})
	redeemTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coin_redeem_total",
		Help: "Redemption attempts by outcome.",
	}, []string{"outcome"})
	withdrawTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coin_withdraw_total",
		Help: "Withdrawal attempts by outcome.",
	}, []string{"outcome"})
	withdrawnAmount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coin_withdrawn_amount_total",
		Help: "Wallet units withdrawn.",
	})
)

func init() {
	prometheus.MustRegister(awardTotal, redeemTotal, withdrawTotal, withdrawnAmount)
}
