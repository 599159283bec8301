package billing

import (
	"errors"
	"testing"
)

func TestLoadPayFastConfig(t *testing.T) {
	t.Setenv("APP_BASE_URL", "https://panelflow.example/")
	t.Setenv("PAYFAST_MERCHANT_ID", "10000100")
	t.Setenv("PAYFAST_MERCHANT_KEY", "46f0cd694581a")
	t.Setenv("PAYFAST_PASSPHRASE", "jt7NOE43FZPn")

	cfg, err := LoadPayFastConfig()
	if err != nil {
		t.Fatalf("LoadPayFastConfig: %v", err)
	}

	if cfg.AppBaseURL != "https://panelflow.example" {
		t.Errorf("base url not trimmed: %q", cfg.AppBaseURL)
	}
	if cfg.ProcessURL != DefaultProcessURL {
		t.Errorf("process url = %q", cfg.ProcessURL)
	}
	if cfg.Amount != "99.00" || cfg.ItemName != "PanelFlow Pro" {
		t.Errorf("defaults: amount=%q item=%q", cfg.Amount, cfg.ItemName)
	}
	if !cfg.Policy.IncludeMerchantKey || !cfg.Policy.EncodePassphrase {
		t.Errorf("default policy = %+v", cfg.Policy)
	}
	if cfg.NotifyURL() != "https://panelflow.example/api/payfast/itn" {
		t.Errorf("notify url = %q", cfg.NotifyURL())
	}
	if cfg.ReturnURL() != "https://panelflow.example/billing/success" {
		t.Errorf("return url = %q", cfg.ReturnURL())
	}
	if cfg.CancelURL() != "https://panelflow.example/pricing" {
		t.Errorf("cancel url = %q", cfg.CancelURL())
	}
}

func TestLoadPayFastConfigMissingVars(t *testing.T) {
	cases := []struct {
		name string
		set  map[string]string
		want string
	}{
		{
			name: "no base url",
			set:  map[string]string{},
			want: "APP_BASE_URL",
		},
		{
			name: "no merchant id",
			set:  map[string]string{"APP_BASE_URL": "https://panelflow.example"},
			want: "PAYFAST_MERCHANT_ID",
		},
		{
			name: "no merchant key",
			set: map[string]string{
				"APP_BASE_URL":        "https://panelflow.example",
				"PAYFAST_MERCHANT_ID": "10000100",
			},
			want: "PAYFAST_MERCHANT_KEY",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			for _, key := range []string{"APP_BASE_URL", "PAYFAST_MERCHANT_ID", "PAYFAST_MERCHANT_KEY"} {
				t.Setenv(key, "")
			}
			for k, v := range c.set {
				t.Setenv(k, v)
			}

			_, err := LoadPayFastConfig()
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("got %v, want ConfigurationError", err)
			}
			if ce.Missing != c.want {
				t.Errorf("missing = %q, want %q", ce.Missing, c.want)
			}
		})
	}
}

func TestPolicyOverrides(t *testing.T) {
	t.Setenv("APP_BASE_URL", "https://panelflow.example")
	t.Setenv("PAYFAST_MERCHANT_ID", "10000100")
	t.Setenv("PAYFAST_MERCHANT_KEY", "46f0cd694581a")
	t.Setenv("PAYFAST_SIGN_INCLUDE_MERCHANT_KEY", "false")
	t.Setenv("PAYFAST_SIGN_ENCODE_PASSPHRASE", "0")

	cfg, err := LoadPayFastConfig()
	if err != nil {
		t.Fatalf("LoadPayFastConfig: %v", err)
	}
	if cfg.Policy.IncludeMerchantKey {
		t.Error("IncludeMerchantKey override ignored")
	}
	if cfg.Policy.EncodePassphrase {
		t.Error("EncodePassphrase override ignored")
	}
}
