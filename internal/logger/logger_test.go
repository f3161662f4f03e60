package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, "production")

	l.Info("listing created", slog.String("listing_id", "abc"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "listing created" {
		t.Errorf("msg = %v, want %q", entry["msg"], "listing created")
	}
	if entry["listing_id"] != "abc" {
		t.Errorf("listing_id = %v, want %q", entry["listing_id"], "abc")
	}
	if entry["service"] != "livestock-api" {
		t.Errorf("service = %v, want %q", entry["service"], "livestock-api")
	}
}

func TestSetup_ProductionSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "production").Debug("noisy")
	if buf.Len() != 0 {
		t.Errorf("debug log written in production: %q", buf.String())
	}

	buf.Reset()
	Setup(&buf, "development").Debug("noisy")
	if buf.Len() == 0 {
		t.Error("debug log should be written in development")
	}
}
