package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("entry is not JSON: %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// Feature: product-catalog, Property 13: Logs are structured
func TestProperty_ProductionEntriesAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("production entries decode as JSON with level, timestamp, message and service", prop.ForAll(
		func(message, sku string, quantity int, level string) bool {
			var buf bytes.Buffer
			log := NewWithWriter("production", zapcore.AddSync(&buf))

			fields := []zap.Field{zap.String("sku", sku), zap.Int("quantity", quantity)}
			switch level {
			case "info":
				log.Info(message, fields...)
			case "warn":
				log.Warn(message, fields...)
			case "error":
				log.Error(message, fields...)
			}

			var entry map[string]interface{}
			if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
				return false
			}
			for _, key := range []string{"level", "timestamp", "msg", "caller"} {
				if _, ok := entry[key]; !ok {
					return false
				}
			}
			return entry["level"] == level &&
				entry["msg"] == message &&
				entry["service"] == ServiceName &&
				entry["sku"] == sku &&
				entry["quantity"] == float64(quantity)
		},
		gen.AlphaString(),
		gen.Identifier(),
		gen.IntRange(-1000, 1000),
		gen.OneConstOf("info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNewWithWriter_ProductionDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", zapcore.AddSync(&buf))

	log.Debug("Loading collection")
	log.Info("Catalog reset to defaults")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected only the info entry, got %d", len(entries))
	}
	if entries[0]["msg"] != "Catalog reset to defaults" {
		t.Fatalf("unexpected message %v", entries[0]["msg"])
	}
}

func TestNewWithWriter_ErrorsCarryStacktrace(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("production", zapcore.AddSync(&buf)).Error("Failed to append inventory log")

	entries := decodeLines(t, &buf)
	if _, ok := entries[0]["stacktrace"]; !ok {
		t.Fatalf("expected a stacktrace on error entries, got %v", entries[0])
	}
}

func TestNewWithWriter_DevelopmentIsConsole(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter("development", zapcore.AddSync(&buf)).Debug("Lock acquired", zap.String("key", "product:prod-001"))

	out := buf.String()
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Fatalf("expected console output, got JSON: %s", out)
	}
	if !strings.Contains(out, "Lock acquired") || !strings.Contains(out, "product:prod-001") {
		t.Fatalf("entry is missing message or fields: %s", out)
	}
}

func TestNew_BuildsForEveryEnvironment(t *testing.T) {
	for _, env := range []string{"production", "development", "test", ""} {
		log, err := New(env)
		if err != nil {
			t.Fatalf("New(%q): %v", env, err)
		}
		log.Sync()
	}
}

func TestNamed_ComponentAppearsInEntries(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter("production", zapcore.AddSync(&buf))

	Named(base, "inventory").Info("Inventory adjusted", zap.String("product_id", "prod-001"))

	entries := decodeLines(t, &buf)
	if entries[0]["logger"] != "inventory" {
		t.Fatalf("expected logger name inventory, got %v", entries[0]["logger"])
	}
	if entries[0]["product_id"] != "prod-001" {
		t.Fatalf("expected product_id field, got %v", entries[0]["product_id"])
	}

	// a nil base yields a no-op logger rather than a panic
	Named(nil, "inventory").Info("dropped")
}
