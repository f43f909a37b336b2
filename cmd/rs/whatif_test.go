package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWhatIfCmd(t *testing.T) {
	var scenario string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Scenario string `json:"scenario"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		scenario = req.Scenario
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"Holding A at Mirzapur delays it by four minutes."}`))
	}))
	defer srv.Close()

	out, err := execCmd(t, "whatif", "hold", "A", "at", "Mirzapur", "--server", srv.URL)
	if err != nil {
		t.Fatalf("whatif: %v", err)
	}
	if scenario != "hold A at Mirzapur" {
		t.Errorf("scenario sent = %q", scenario)
	}
	if strings.TrimSpace(out) != "Holding A at Mirzapur delays it by four minutes." {
		t.Errorf("output = %q", out)
	}
}

func TestWhatIfCmd_OracleUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"what-if oracle is not configured"}`))
	}))
	defer srv.Close()

	_, err := execCmd(t, "whatif", "anything", "--server", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "what-if oracle is not configured") {
		t.Errorf("err = %v", err)
	}
}

func TestWhatIfCmd_BlankScenario(t *testing.T) {
	if _, err := execCmd(t, "whatif", "  "); err == nil || !strings.Contains(err.Error(), "scenario is required") {
		t.Errorf("err = %v", err)
	}
	if _, err := execCmd(t, "whatif"); err == nil {
		t.Error("expected error without a scenario")
	}
}
