package google

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"launchrates/internal/core"
	"launchrates/internal/dataset"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return NewWithService(svc, "sheet-id", "")
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), " ", "")
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), "sheet-id", "")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNewWithService_DefaultSheetName(t *testing.T) {
	c := NewWithService(nil, "id", "  ")
	if c.sheetName != DefaultSheetName {
		t.Fatalf("sheet name = %q, want %q", c.sheetName, DefaultSheetName)
	}
}

func TestLoad(t *testing.T) {
	var gotPath, gotRender string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRender = r.URL.Query().Get("valueRenderOption")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"range": "Launches!A1:Z6",
			"majorDimension": "ROWS",
			"values": [
				["Flight Number", "Launch Site", "class", "Payload Mass (kg)"],
				[1, "CCAFS LC-40", 0, 0],
				[2, "KSC LC-39A", 1, 2490],
				[3, "VAFB SLC-4E", 1, 9600.5],
				[4, "KSC LC-39A", "x", 100]
			]
		}`))
	})

	records, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !strings.Contains(gotPath, "/spreadsheets/sheet-id/values/") {
		t.Fatalf("unexpected request path %q", gotPath)
	}
	if gotRender != "UNFORMATTED_VALUE" {
		t.Fatalf("expected unformatted values, got %q", gotRender)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records (one skipped), got %d: %+v", len(records), records)
	}
	want := core.LaunchRecord{Site: "VAFB SLC-4E", PayloadMassKg: 9600.5, Outcome: core.Success}
	if records[2] != want {
		t.Fatalf("record = %+v, want %+v", records[2], want)
	}
}

func TestLoad_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	})
	if _, err := c.Load(context.Background()); err == nil {
		t.Fatalf("expected error on 403")
	}
}

func TestLoad_MissingHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"values": [["Launch Site", "class"], ["A", 1]]}`))
	})
	if _, err := c.Load(context.Background()); !errors.Is(err, dataset.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestLoad_NilService(t *testing.T) {
	c := &Client{}
	if _, err := c.Load(context.Background()); err == nil {
		t.Fatalf("expected error for uninitialized service")
	}
}

func TestToStrings(t *testing.T) {
	got := toStrings([]interface{}{" A ", float64(525), nil, true})
	want := []string{"A", "525", "", "true"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("toStrings[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
