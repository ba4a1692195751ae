package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/doeshing/fieldx/internal/domain"
)

func archived(model string, d time.Duration, fields ...string) domain.ArchivedRecord {
	return domain.ArchivedRecord{
		ID: "rec-" + model,
		ExtractionRecord: domain.ExtractionRecord{
			Model:    model,
			Fields:   fields,
			Duration: d,
		},
	}
}

func TestAnalyzeHistoryRecords(t *testing.T) {
	stats := analyzeHistoryRecords([]domain.ArchivedRecord{
		archived("flash", 2*time.Second, "Date", "Amount"),
		archived("flash", 4*time.Second, "Date"),
		archived("pro", 0, "Vendor", "Date"),
	})

	if stats.total != 3 {
		t.Errorf("total = %d", stats.total)
	}
	if stats.timed != 2 || stats.totalDuration != 6*time.Second {
		t.Errorf("timed = %d, duration = %s", stats.timed, stats.totalDuration)
	}

	models := topCounts(stats.modelCounts, 0)
	if len(models) != 2 || models[0].name != "flash" || models[0].count != 2 {
		t.Errorf("models = %+v", models)
	}

	fields := topCounts(stats.fieldCounts, 2)
	if len(fields) != 2 || fields[0].name != "Date" || fields[1].name != "Amount" {
		t.Errorf("fields = %+v, want Date then Amount", fields)
	}
}

func TestValidateModelAddOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    modelAddOptions
		wantErr bool
	}{
		{name: "gemini needs no endpoint", opts: modelAddOptions{Name: "G", ModelID: "gemini-x", MaxTokens: 10}},
		{name: "openai needs endpoint", opts: modelAddOptions{Name: "O", Provider: "openai", ModelID: "gpt", MaxTokens: 10}, wantErr: true},
		{name: "openai with endpoint", opts: modelAddOptions{Name: "O", Provider: "OpenAI", Endpoint: "http://x", ModelID: "gpt", MaxTokens: 10}},
		{name: "missing name", opts: modelAddOptions{ModelID: "m", MaxTokens: 10}, wantErr: true},
		{name: "unknown provider", opts: modelAddOptions{Name: "X", Provider: "watson", ModelID: "m", MaxTokens: 10}, wantErr: true},
		{name: "zero tokens", opts: modelAddOptions{Name: "X", ModelID: "m"}, wantErr: true},
		{name: "negative pages", opts: modelAddOptions{Name: "X", ModelID: "m", MaxTokens: 10, MaxPages: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateModelAddOptions(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateModelAddOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServeAddressPrecedence(t *testing.T) {
	newServe := func() (*viper.Viper, *cobra.Command) {
		v := viper.New()
		cmd := &cobra.Command{Use: "serve"}
		defineServeFlags(cmd.Flags())
		bindServeFlags(v, cmd.Flags())
		return v, cmd
	}

	v, _ := newServe()
	setupServeDefaults(v, domain.Config{})
	addr, err := serveAddress(v)
	if err != nil || addr != "127.0.0.1:8080" {
		t.Errorf("defaults: addr = %q, err = %v", addr, err)
	}

	t.Setenv("FIELDX_PORT", "9191")
	v, _ = newServe()
	setupServeDefaults(v, domain.Config{Server: domain.ServerSettings{Host: "0.0.0.0", Port: 7000}})
	addr, _ = serveAddress(v)
	if addr != "0.0.0.0:9191" {
		t.Errorf("env override: addr = %q", addr)
	}

	v, cmd := newServe()
	setupServeDefaults(v, domain.Config{})
	if err := cmd.Flags().Set("port", "7070"); err != nil {
		t.Fatal(err)
	}
	addr, _ = serveAddress(v)
	if addr != "127.0.0.1:7070" {
		t.Errorf("flag override: addr = %q", addr)
	}

	v, cmd = newServe()
	setupServeDefaults(v, domain.Config{})
	_ = cmd.Flags().Set("port", "70000")
	if _, err := serveAddress(v); err == nil {
		t.Error("expected error for out of range port")
	}
}

func TestWriteDoctorReport(t *testing.T) {
	report := domain.HealthReport{Checks: []domain.HealthCheck{
		{Name: "Config file", Status: domain.HealthOK, Details: "/tmp/config.yaml"},
		{Name: "API keys", Status: domain.HealthWarn, Details: "GOOGLE_GENAI_API_KEY not set"},
		{Name: "Archive", Status: domain.HealthError, Details: "open failed"},
	}}

	var table bytes.Buffer
	if err := writeDoctorTable(&table, report); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"[ok]", "[warn]", "[FAIL]", "1 ok, 1 warnings, 1 errors"} {
		if !strings.Contains(table.String(), want) {
			t.Errorf("table missing %q:\n%s", want, table.String())
		}
	}

	var raw bytes.Buffer
	if err := writeDoctorJSON(&raw, report); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		OK     bool `json:"ok"`
		Checks []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"checks"`
	}
	if err := json.Unmarshal(raw.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.OK || len(decoded.Checks) != 3 || decoded.Checks[2].Status != "error" {
		t.Errorf("decoded = %+v", decoded)
	}
}
