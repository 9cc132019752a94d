package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/genefit/genefit-link/internal/models"
)

// Output formats accepted by -o/--output.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func addOutputFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "output", "o", formatTable, "Output format: table, json or yaml")
}

func checkOutputFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q (expected table, json or yaml)", format)
}

// writeOutput writes v as JSON or YAML, or calls table for the table format.
func writeOutput(w io.Writer, format string, v interface{}, table func(io.Writer)) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	case formatTable, "":
		table(w)
		return nil
	}
	return checkOutputFormat(format)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func renderUser(w io.Writer, u *models.User) {
	fmt.Fprintf(w, "ID:     %s\n", u.ID)
	fmt.Fprintf(w, "Name:   %s\n", u.Name)
	fmt.Fprintf(w, "Email:  %s\n", u.Email)
	if u.Age != nil {
		fmt.Fprintf(w, "Age:    %d\n", *u.Age)
	}
	if u.Gender != nil {
		fmt.Fprintf(w, "Gender: %s\n", *u.Gender)
	}
	if u.Height != nil {
		fmt.Fprintf(w, "Height: %.1f cm\n", *u.Height)
	}
	if u.Weight != nil {
		fmt.Fprintf(w, "Weight: %.1f kg\n", *u.Weight)
	}
}

func renderReports(w io.Writer, reports []models.DNAReport) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No DNA reports found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tFILE\tPROVIDER\tSTATUS\tMARKERS\tUPLOADED")
	for _, r := range reports {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\n",
			r.ID, r.Filename, r.Provider, r.AnalysisStatus, r.MarkersAnalyzed, r.TotalMarkers, formatTime(r.UploadedAt))
	}
	tw.Flush()
}

func renderJob(w io.Writer, job *models.Job, steps []models.AnalysisStep, step int) {
	fmt.Fprintf(w, "Job:      %s\n", job.JobID)
	fmt.Fprintf(w, "Status:   %s\n", job.Status)
	fmt.Fprintf(w, "Progress: %.0f%%\n", job.ProgressPercent)
	if job.TotalMarkers > 0 {
		fmt.Fprintf(w, "Markers:  %d/%d\n", job.MarkersAnalyzed, job.TotalMarkers)
	}
	if step >= 0 && step < len(steps) {
		fmt.Fprintf(w, "Step:     [%d/%d] %s\n", step+1, len(steps), steps[step].Title)
	}
}

func renderDashboard(w io.Writer, snap *models.AggregateSnapshot) {
	if snap.User != nil {
		fmt.Fprintf(w, "%s (%s)\n", snap.User.Name, snap.User.Email)
	}
	fmt.Fprintf(w, "Wellness score: %.0f\n\n", snap.WellnessScore)

	fmt.Fprintf(w, "DNA reports (%d)\n", len(snap.DNAReports))
	renderReports(w, snap.DNAReports)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Health plans (%d)\n", len(snap.HealthPlans))
	renderPlans(w, snap.HealthPlans)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Insights (%d)\n", len(snap.Insights))
	renderInsights(w, snap.Insights)
	fmt.Fprintln(w)

	if len(snap.RiskAssessments) > 0 {
		fmt.Fprintf(w, "Risk assessments (%d)\n", len(snap.RiskAssessments))
		tw := newTable(w)
		fmt.Fprintln(tw, "CONDITION\tRISK\tCONFIDENCE")
		for _, r := range snap.RiskAssessments {
			fmt.Fprintf(tw, "%s\t%s\t%.0f%%\n", r.Condition, r.RiskLevel, r.ConfidenceScore*100)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}

	wd := snap.WearableData
	fmt.Fprintln(w, "Wearables")
	fmt.Fprintf(w, "  Steps %.0f  Heart rate %.0f bpm  Sleep %.1f h  Calories %.0f  Active %.0f min  (%s)\n",
		wd.Steps, wd.HeartRate, wd.Sleep, wd.Calories, wd.ActiveMinutes, orDash(wd.SyncStatus))
}

func renderPlans(w io.Writer, plans []models.HealthPlan) {
	if len(plans) == 0 {
		fmt.Fprintln(w, "No health plans found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tPROGRESS\tACTIVE")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%t\n", p.ID, p.PlanType, p.Title, p.Progress, p.IsActive)
	}
	tw.Flush()
}

func renderPlanDetail(w io.Writer, p *models.HealthPlanDetail) {
	fmt.Fprintf(w, "%s\n%s\n\n", p.Title, p.Description)
	fmt.Fprintf(w, "Progress: %.0f%%\n", p.Progress)
	fmt.Fprintf(w, "Created:  %s\n", formatTime(p.CreatedAt))
	if len(p.Content) > 0 {
		fmt.Fprintln(w)
		data, err := yaml.Marshal(p.Content)
		if err != nil {
			fmt.Fprintf(w, "(content could not be rendered: %v)\n", err)
			return
		}
		fmt.Fprint(w, string(data))
	}
}

func renderInsights(w io.Writer, insights []models.Insight) {
	if len(insights) == 0 {
		fmt.Fprintln(w, "No insights found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "PRIORITY\tTYPE\tTITLE\tCONFIDENCE\tCREATED")
	for _, in := range insights {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%s\n",
			orDash(in.Priority), in.InsightType, in.Title, in.ConfidenceScore*100, formatTime(in.CreatedAt))
	}
	tw.Flush()
}

func renderDailyInsight(w io.Writer, d *models.DailyInsight) {
	fmt.Fprintf(w, "%s\n\n%s\n", d.Title, d.Message)
	if len(d.ActionItems) > 0 {
		fmt.Fprintln(w)
		for _, item := range d.ActionItems {
			fmt.Fprintf(w, "  • %s\n", item)
		}
	}
}

func renderWearables(w io.Writer, readings []models.WearableReading) {
	if len(readings) == 0 {
		fmt.Fprintln(w, "No wearable data found")
		return
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "RECORDED\tDEVICE\tTYPE\tVALUE")
	for _, r := range readings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g %s\n", formatTime(r.RecordedAt), r.DeviceName, r.DataType, r.Value, r.Unit)
	}
	tw.Flush()
}

func renderProviders(w io.Writer, providers []models.ProviderInfo) {
	tw := newTable(w)
	fmt.Fprintln(tw, "TAG\tNAME\tEXTENSION")
	for _, p := range providers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Provider, p.DisplayName, p.Extension)
	}
	tw.Flush()
}
