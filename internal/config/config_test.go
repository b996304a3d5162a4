package config

import (
	"os"
	"testing"
)

func TestEnvSub_SubstitutesFromEnvironment(t *testing.T) {
	os.Setenv("MOMENTUM_TEST_KEY", "secret123")
	defer os.Unsetenv("MOMENTUM_TEST_KEY")

	got := envSub("key=${MOMENTUM_TEST_KEY}")
	if got != "key=secret123" {
		t.Fatalf("expected substitution, got %q", got)
	}
}

func TestEnvSub_LeavesUnmatchedPlaceholdersAsEmpty(t *testing.T) {
	got := envSub("${MOMENTUM_TEST_UNSET_KEY}")
	if got != "" {
		t.Fatalf("expected empty substitution for unset var, got %q", got)
	}
}

func TestValidate_RejectsDuplicateAccountNames(t *testing.T) {
	cfg := &Config{
		Pairs: []Pair{{Symbol: "BTCUSDT", Threshold: 1, NumPreviousCandles: 5, USDTAmount: 10, Leverage: 1}},
		Accounts: []Account{
			{Name: "acct1", APIKey: "k", APISecret: "s"},
			{Name: "acct1", APIKey: "k2", APISecret: "s2"},
		},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for duplicate account names")
	}
}

func TestValidate_RejectsNumPreviousCandlesOutOfRange(t *testing.T) {
	cfg := &Config{
		Pairs: []Pair{{Symbol: "BTCUSDT", Threshold: 1, NumPreviousCandles: historyCapacity + 1, USDTAmount: 10, Leverage: 1}},
		Accounts: []Account{
			{Name: "acct1", APIKey: "k", APISecret: "s"},
		},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for num_previous_candles exceeding history capacity")
	}
}
