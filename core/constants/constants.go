package constants

const (
	APP_NAME = "paywall-bench"

	// Provider name reported for the payment wall call itself.
	PAYWALL_PROVIDER = "psp"
)
