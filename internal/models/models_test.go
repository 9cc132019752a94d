package models

import "testing"

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{"twenty_three_and_me", ProviderTwentyThreeAndMe, false},
		{"23andMe", ProviderTwentyThreeAndMe, false},
		{" ancestrydna ", ProviderAncestryDNA, false},
		{"my_heritage", ProviderMyHeritage, false},
		{"familytreedna", ProviderFamilyTreeDNA, false},
		{"generic", ProviderGeneric, false},
		{"", "", false},
		{"nebula", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProvider(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProvider(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseProvider(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeJobStatus(t *testing.T) {
	tests := map[string]JobStatus{
		"uploaded":   JobPending,
		"pending":    JobPending,
		"processing": JobAnalyzing,
		"analyzing":  JobAnalyzing,
		"analyzed":   JobAnalyzed,
		"FAILED":     JobFailed,
	}
	for in, want := range tests {
		if got := NormalizeJobStatus(in); got != want {
			t.Errorf("NormalizeJobStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatusResponseToJobClampsProgress(t *testing.T) {
	j := StatusResponse{Status: "processing", Progress: 140}.ToJob("r1")
	if j.ProgressPercent != 100 {
		t.Errorf("progress = %v, want 100", j.ProgressPercent)
	}
	if j.Status != JobAnalyzing || j.JobID != "r1" {
		t.Errorf("unexpected job %+v", j)
	}

	j = StatusResponse{Status: "uploaded", Progress: -3}.ToJob("r2")
	if j.ProgressPercent != 0 {
		t.Errorf("progress = %v, want 0", j.ProgressPercent)
	}
}

func TestUserCreateValidate(t *testing.T) {
	bad := "robot"
	if err := (UserCreate{Name: "A", Email: "a@example.com", Gender: &bad}).Validate(); err == nil {
		t.Error("expected error for invalid gender")
	}
	if err := (UserCreate{Name: "", Email: "a@example.com"}).Validate(); err == nil {
		t.Error("expected error for missing name")
	}
	if err := (UserCreate{Name: "A", Email: "a@example.com"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
