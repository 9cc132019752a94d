// Package models defines data structures exchanged with the GeneFit API.
package models

import (
	"strings"
	"time"
)

// JobStatus is the analysis status of an uploaded DNA report.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobAnalyzing JobStatus = "analyzing"
	JobAnalyzed  JobStatus = "analyzed"
	JobFailed    JobStatus = "failed"
)

// NormalizeJobStatus maps the backend's status vocabulary onto JobStatus.
// The API reports "uploaded" and "processing" for in-flight reports.
func NormalizeJobStatus(s string) JobStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uploaded", "pending", "queued":
		return JobPending
	case "processing", "analyzing":
		return JobAnalyzing
	case "analyzed", "completed":
		return JobAnalyzed
	case "failed", "error":
		return JobFailed
	default:
		return JobStatus(s)
	}
}

// IsTerminal reports whether no further status changes are expected.
func (s JobStatus) IsTerminal() bool {
	return s == JobAnalyzed || s == JobFailed
}

// StatusResponse is the body of GET /dna/status/{jobId}.
type StatusResponse struct {
	Status          string  `json:"status"`
	MarkersAnalyzed int     `json:"markers_analyzed"`
	TotalMarkers    int     `json:"total_markers"`
	Progress        float64 `json:"progress"`
}

// Job is the client-side view of a remote analysis job.
type Job struct {
	JobID           string    `json:"jobId" yaml:"jobId"`
	Status          JobStatus `json:"status" yaml:"status"`
	ProgressPercent float64   `json:"progressPercent" yaml:"progressPercent"`
	MarkersAnalyzed int       `json:"markersAnalyzed,omitempty" yaml:"markersAnalyzed,omitempty"`
	TotalMarkers    int       `json:"totalMarkers,omitempty" yaml:"totalMarkers,omitempty"`
}

// ToJob converts a status response into a Job, clamping progress to [0,100].
func (r StatusResponse) ToJob(jobID string) *Job {
	p := r.Progress
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return &Job{
		JobID:           jobID,
		Status:          NormalizeJobStatus(r.Status),
		ProgressPercent: p,
		MarkersAnalyzed: r.MarkersAnalyzed,
		TotalMarkers:    r.TotalMarkers,
	}
}

// DNAReport is one uploaded report as returned by POST /dna/upload and GET /dna/reports/{userId}.
type DNAReport struct {
	ID              string     `json:"id" yaml:"id"`
	Filename        string     `json:"filename" yaml:"filename"`
	Provider        string     `json:"provider" yaml:"provider"`
	FileSize        int64      `json:"file_size" yaml:"fileSize"`
	AnalysisStatus  string     `json:"analysis_status" yaml:"analysisStatus"`
	MarkersAnalyzed int        `json:"markers_analyzed" yaml:"markersAnalyzed"`
	TotalMarkers    int        `json:"total_markers" yaml:"totalMarkers"`
	UploadedAt      *time.Time `json:"uploaded_at,omitempty" yaml:"uploadedAt,omitempty"`
	AnalyzedAt      *time.Time `json:"analyzed_at,omitempty" yaml:"analyzedAt,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty" yaml:"errorMessage,omitempty"`
}

// AnalysisStep is one entry of the step table shown while a job is analyzed.
type AnalysisStep struct {
	Title       string
	Description string
}

// DefaultAnalysisSteps is the step table rendered during polling.
var DefaultAnalysisSteps = []AnalysisStep{
	{Title: "Upload Your DNA Report", Description: "Securely upload raw data from 23andMe, AncestryDNA or another provider"},
	{Title: "AI Analysis", Description: "Genetic markers are analyzed for health, nutrition and fitness traits"},
	{Title: "Personalized Insights", Description: "Risk assessments and recommendations are generated from your markers"},
	{Title: "Continuous Evolution", Description: "Plans adapt as new wearable and lifestyle data arrives"},
}
