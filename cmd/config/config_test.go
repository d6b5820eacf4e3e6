package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"

	"atmterm/internal/testutil"
)

func TestLoadConfigDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")
	if AppConfig.Terminal.ID != "atm-0001" {
		t.Fatalf("unexpected terminal id: %s", AppConfig.Terminal.ID)
	}
	if AppConfig.Host.LUNO != "009" {
		t.Fatalf("unexpected luno: %s", AppConfig.Host.LUNO)
	}
}

func TestLoadConfigOverride(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("bootstrap")
	if AppConfig.Terminal.MaxPINLength != 4 {
		t.Fatalf("expected MaxPINLength 4, got %d", AppConfig.Terminal.MaxPINLength)
	}
	if AppConfig.Logging.Level != "debug" {
		t.Fatalf("expected logging level override to debug, got %s", AppConfig.Logging.Level)
	}
}

func TestLoadConfigSandbox(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := os.Mkdir(sb.Path("config"), 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	data := []byte("terminal:\n  id: sandbox\n  max_pin_length: 8\n")
	if err := sb.WriteFile("config/default.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")

	if AppConfig.Terminal.ID != "sandbox" {
		t.Fatalf("expected terminal id sandbox, got %s", AppConfig.Terminal.ID)
	}
	if AppConfig.Terminal.MaxPINLength != 8 {
		t.Fatalf("expected MaxPINLength 8, got %d", AppConfig.Terminal.MaxPINLength)
	}
}
