package billing

import (
	"strings"

	"github.com/panelflow/panelflow/internal/pkg/env"
	"github.com/panelflow/panelflow/internal/pkg/payfast"
)

// DefaultProcessURL is PayFast's production process endpoint.
const DefaultProcessURL = "https://www.payfast.co.za/eng/process"

// PayFastConfig carries everything the initiation service and the ITN
// verifier need. The passphrase stays server-side only: it is appended to
// the canonical string before hashing and never transmitted as a field.
type PayFastConfig struct {
	AppBaseURL  string
	MerchantID  string
	MerchantKey string
	Passphrase  string
	ProcessURL  string
	Amount      string
	ItemName    string
	Policy      payfast.SignaturePolicy
}

// LoadPayFastConfig reads the PayFast settings from the environment. A
// missing required variable returns a ConfigurationError naming it; this is
// an operator-actionable error, not a crash.
func LoadPayFastConfig() (*PayFastConfig, error) {
	cfg := &PayFastConfig{
		AppBaseURL:  strings.TrimRight(env.GetEnv("APP_BASE_URL", ""), "/"),
		MerchantID:  env.GetEnv("PAYFAST_MERCHANT_ID", ""),
		MerchantKey: env.GetEnv("PAYFAST_MERCHANT_KEY", ""),
		Passphrase:  env.GetEnv("PAYFAST_PASSPHRASE", ""),
		ProcessURL:  env.GetEnv("PAYFAST_PROCESS_URL", DefaultProcessURL),
		Amount:      env.GetEnv("PAYFAST_AMOUNT", "99.00"),
		ItemName:    env.GetEnv("PAYFAST_ITEM_NAME", "PanelFlow Pro"),
		Policy: payfast.SignaturePolicy{
			IncludeMerchantKey: envBool("PAYFAST_SIGN_INCLUDE_MERCHANT_KEY", true),
			EncodePassphrase:   envBool("PAYFAST_SIGN_ENCODE_PASSPHRASE", true),
		},
	}

	switch {
	case cfg.AppBaseURL == "":
		return nil, &ConfigurationError{Missing: "APP_BASE_URL"}
	case cfg.MerchantID == "":
		return nil, &ConfigurationError{Missing: "PAYFAST_MERCHANT_ID"}
	case cfg.MerchantKey == "":
		return nil, &ConfigurationError{Missing: "PAYFAST_MERCHANT_KEY"}
	}

	return cfg, nil
}

// ReturnURL is where the gateway sends the browser after payment.
func (c *PayFastConfig) ReturnURL() string { return c.AppBaseURL + "/billing/success" }

// CancelURL is where the gateway sends the browser on abort.
func (c *PayFastConfig) CancelURL() string { return c.AppBaseURL + "/pricing" }

// NotifyURL is the externally reachable ITN endpoint.
func (c *PayFastConfig) NotifyURL() string { return c.AppBaseURL + "/api/payfast/itn" }

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(env.GetEnv(key, "")))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
