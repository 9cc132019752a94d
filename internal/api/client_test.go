package api

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/genefit/genefit-link/internal/config"
	"github.com/genefit/genefit-link/internal/models"
	"github.com/genefit/genefit-link/internal/source"
)

func newTestClient(t *testing.T, handler nethttp.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.NewConfig()
	cfg.APIBaseURL = srv.URL
	cfg.APIToken = "tok"
	cfg.RequestsPerSecond = 1000

	c, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

// TestNewClientRejectsEmptyBaseURL verifies that NewClient fails with a clear error
// when APIBaseURL is empty, instead of creating a broken client that produces
// "unsupported protocol scheme" errors on every request.
func TestNewClientRejectsEmptyBaseURL(t *testing.T) {
	cfg := config.NewConfig()
	cfg.APIBaseURL = ""

	_, err := NewClient(cfg, nil)
	if err == nil {
		t.Fatal("NewClient() should return error for empty APIBaseURL")
	}
	if !strings.Contains(err.Error(), "API base URL is empty") {
		t.Errorf("NewClient() error = %q, want error containing 'API base URL is empty'", err.Error())
	}
}

func TestSubmitJobSendsMultipart(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Method != nethttp.MethodPost || r.URL.Path != "/api/dna/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("user_id") != "u1" || r.FormValue("provider") != "ancestry_dna" {
			t.Errorf("unexpected form fields %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		data, _ := io.ReadAll(f)
		if hdr.Filename != "genome.txt" || string(data) != "rs1 AA" {
			t.Errorf("unexpected file %s %q", hdr.Filename, data)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"r1","filename":"genome.txt","provider":"ancestry_dna","file_size":6,"analysis_status":"uploaded"}`))
	})

	jobID, err := c.SubmitJob(context.Background(), "u1", models.ProviderAncestryDNA, source.NewBytesFile("genome.txt", []byte("rs1 AA")))
	if err != nil {
		t.Fatalf("SubmitJob() error = %v", err)
	}
	if jobID != "r1" {
		t.Errorf("jobID = %q, want r1", jobID)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestSubmitJobValidation(t *testing.T) {
	c := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		t.Error("no request expected")
	})
	file := source.NewBytesFile("g.txt", []byte("x"))

	cases := []struct {
		owner    string
		provider models.Provider
		file     source.File
	}{
		{"", models.ProviderGeneric, file},
		{"u1", "", file},
		{"u1", models.ProviderGeneric, nil},
		{"u1", "bogus", file},
		{"u1", models.ProviderGeneric, source.NewBytesFile("empty.txt", nil)},
		{"u1", models.ProviderGeneric, source.NewBytesFile("../g.txt", []byte("x"))},
	}
	for _, tc := range cases {
		_, err := c.SubmitJob(context.Background(), tc.owner, tc.provider, tc.file)
		if !IsValidation(err) {
			t.Errorf("SubmitJob(%q, %q) error = %v, want ValidationError", tc.owner, tc.provider, err)
		}
	}
}

func TestSubmitJobIsNeverRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(nethttp.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := config.NewConfig()
	cfg.APIBaseURL = srv.URL
	cfg.RetryMax = 3
	c, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.SubmitJob(context.Background(), "u1", models.ProviderGeneric, source.NewBytesFile("g.vcf", []byte("x")))
	if !IsTransport(err) {
		t.Fatalf("error = %v, want TransportError", err)
	}
	if calls != 1 {
		t.Errorf("upload sent %d times, want 1", calls)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
		msg    string
	}{
		{"not found", 404, `{"detail":"Analysis not found"}`, IsNotFound, "Analysis not found"},
		{"rejected", 400, `{"detail":"Unsupported file format"}`, IsServer, "Unsupported file format"},
		{"validation list", 422, `{"detail":[{"loc":["body","provider"],"msg":"field required"}]}`, IsServer, "provider: field required"},
		{"server error", 500, `{"detail":"boom"}`, IsTransport, "boom"},
		{"wrapped user 404", 500, `{"detail":"Upload failed: 404: User not found"}`, IsNotFound, "User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.GetJobStatus(context.Background(), "r1")
			if !tt.check(err) {
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestServerErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(413)
		w.Write([]byte(`{"detail":"File too large"}`))
	})
	_, err := c.SubmitJob(context.Background(), "u1", models.ProviderGeneric, source.NewBytesFile("g.vcf", []byte("x")))
	if Message(err) != "File too large" {
		t.Errorf("Message() = %q", Message(err))
	}
	var se *ServerError
	if !asServer(err, &se) || se.Code != 413 {
		t.Errorf("expected ServerError 413, got %v", err)
	}
}

func asServer(err error, target **ServerError) bool {
	se, ok := err.(*ServerError)
	if ok {
		*target = se
	}
	return ok
}

func TestGetJobStatus(t *testing.T) {
	c := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/api/dna/status/r1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"processing","markers_analyzed":300,"total_markers":1000,"progress":30.0}`))
	})

	job, err := c.GetJobStatus(context.Background(), "r1")
	if err != nil {
		t.Fatalf("GetJobStatus() error = %v", err)
	}
	if job.JobID != "r1" || job.Status != models.JobAnalyzing || job.ProgressPercent != 30 {
		t.Errorf("unexpected job %+v", job)
	}
}

func TestGetJobStatusRejectsBadContract(t *testing.T) {
	c := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Write([]byte(`{"state":"processing"}`))
	})

	_, err := c.GetJobStatus(context.Background(), "r1")
	var se *ServerError
	if !asServer(err, &se) || se.Code != 502 {
		t.Fatalf("expected ServerError 502, got %v", err)
	}
}

func TestRequestAggregateRefresh(t *testing.T) {
	c := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/api/dashboard/u1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"user":             map[string]interface{}{"id": "u1", "email": "a@b.c", "name": "Ada"},
			"health_plans":     []interface{}{},
			"insights":         []interface{}{},
			"dna_reports":      []interface{}{map[string]interface{}{"id": "r1", "analysis_status": "analyzed"}},
			"risk_assessments": []interface{}{},
			"wearable_data":    map[string]interface{}{"steps": 8432, "heart_rate": 72, "sleep": 7.5, "calories": 2150, "active_minutes": 45, "sync_status": "connected"},
			"wellness_score":   78.5,
		})
	})

	snap, err := c.RequestAggregateRefresh(context.Background(), "u1")
	if err != nil {
		t.Fatalf("RequestAggregateRefresh() error = %v", err)
	}
	if snap.User == nil || snap.User.Name != "Ada" {
		t.Errorf("unexpected user %+v", snap.User)
	}
	if len(snap.DNAReports) != 1 || snap.WellnessScore != 78.5 || snap.WearableData.Steps != 8432 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestTransportErrorOnUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(nethttp.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := config.NewConfig()
	cfg.APIBaseURL = url
	c, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetJobStatus(context.Background(), "r1"); !IsTransport(err) {
		t.Errorf("error = %v, want TransportError", err)
	}
}

func TestListInsightsQuery(t *testing.T) {
	c := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/api/insights/u1" || r.URL.Query().Get("limit") != "5" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Write([]byte(`[{"id":"i1","insight_type":"daily","title":"Hydrate","content":"Drink water","confidence_score":0.9,"priority":"high"}]`))
	})

	insights, err := c.ListInsights(context.Background(), "u1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(insights) != 1 || insights[0].Title != "Hydrate" {
		t.Errorf("unexpected insights %+v", insights)
	}
}

func TestSyncWearablesBody(t *testing.T) {
	c := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if body["device_name"] != "Fitbit" || body["steps"] != 9000.0 {
			t.Errorf("unexpected body %v", body)
		}
		if _, ok := body["calories"]; ok {
			t.Error("unset metrics must be omitted")
		}
		w.Write([]byte(`{"message":"Wearable data synced successfully"}`))
	})

	steps := 9000.0
	out, err := c.SyncWearables(context.Background(), "u1", models.WearableSync{DeviceName: "Fitbit", Steps: &steps})
	if err != nil {
		t.Fatal(err)
	}
	if out.Message != "Wearable data synced successfully" {
		t.Errorf("Message = %q", out.Message)
	}

	if _, err := c.SyncWearables(context.Background(), "u1", models.WearableSync{}); !IsValidation(err) {
		t.Errorf("expected ValidationError for missing device, got %v", err)
	}
}

func TestCreateUserValidatesBeforeSending(t *testing.T) {
	c := newTestClient(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		t.Error("no request expected")
	})
	if _, err := c.CreateUser(context.Background(), models.UserCreate{Name: "Ada", Email: "nope"}); !IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
