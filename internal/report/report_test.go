package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/FlorianHeigl/fastest-pkg/internal/mirror"
)

func TestStanza(t *testing.T) {
	got := Stanza("mirror1.example")
	want := `FreeBSD: { url: "http://mirror1.example/${ABI}/latest" }`
	if got != want {
		t.Errorf("Stanza() = %q, want %q", got, want)
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{5000000, "5000.0 KB/s"},
		{1234, "1.2 KB/s"},
		{999, "1.0 KB/s"},
		{0, "0.0 KB/s"},
	}
	for _, tt := range tests {
		if got := FormatRate(tt.in); got != tt.want {
			t.Errorf("FormatRate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteMeasurement(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMeasurement(&buf, mirror.Result{Mirror: "pkg0.bme.freebsd.org", BytesPerSecond: 2500000}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "pkg0.bme.freebsd.org\t2500.0 KB/s\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestWriteSummarySingleMirror(t *testing.T) {
	var buf bytes.Buffer
	results := []mirror.Result{{Mirror: "mirror1.example", BytesPerSecond: 5000000}}

	if err := WriteSummary(&buf, results, DefaultRepoConfig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Fastest:\nmirror1.example\t5000.0 KB/s\n",
		`FreeBSD: { url: "http://mirror1.example/${ABI}/latest" }`,
		"mkdir -p /usr/local/etc/pkg/repos/\n",
		`echo 'FreeBSD: { url: "http://mirror1.example/${ABI}/latest" }' > /usr/local/etc/pkg/repos/FreeBSD.conf`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
}

func TestWriteSummaryPicksFastest(t *testing.T) {
	var buf bytes.Buffer
	results := []mirror.Result{
		{Mirror: "A", BytesPerSecond: 100},
		{Mirror: "B", BytesPerSecond: 300},
		{Mirror: "C", BytesPerSecond: 200},
	}

	if err := WriteSummary(&buf, results, DefaultRepoConfig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "Fastest:\nB\t0.3 KB/s\n") {
		t.Errorf("expected B as fastest, got:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), `http://B/${ABI}/latest`) {
		t.Errorf("expected stanza for B, got:\n%s", buf.String())
	}
}

func TestWriteSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSummary(&buf, nil, DefaultRepoConfig)
	if !errors.Is(err, mirror.ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestWriteSummaryRejectsUnsafePath(t *testing.T) {
	var buf bytes.Buffer
	results := []mirror.Result{{Mirror: "mirror1.example", BytesPerSecond: 1}}
	if err := WriteSummary(&buf, results, "/tmp/$(id).conf"); err == nil {
		t.Fatal("expected error for unsafe config path")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	results := []mirror.Result{
		{Mirror: "A", BytesPerSecond: 100},
		{Mirror: "B", BytesPerSecond: 300},
		{Mirror: "C", BytesPerSecond: 200},
	}

	if err := WriteJSON(&buf, results); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded) != 3 {
		t.Fatalf("expected 3 records, got %d", len(decoded))
	}

	wantNames := []string{"B", "C", "A"}
	wantRates := []float64{300, 200, 100}
	for i := range decoded {
		if len(decoded[i]) != 2 {
			t.Errorf("record %d has unexpected fields: %v", i, decoded[i])
		}
		if decoded[i]["mirror_name"] != wantNames[i] {
			t.Errorf("record %d mirror_name = %v, want %s", i, decoded[i]["mirror_name"], wantNames[i])
		}
		if decoded[i]["bytes_per_second"] != wantRates[i] {
			t.Errorf("record %d bytes_per_second = %v, want %v", i, decoded[i]["bytes_per_second"], wantRates[i])
		}
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected [], got %q", buf.String())
	}
}
