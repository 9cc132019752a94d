package models

import "time"

// PlanType is the kind of AI-generated health plan.
type PlanType string

const (
	PlanNutrition         PlanType = "nutrition"
	PlanFitness           PlanType = "fitness"
	PlanMentalWellness    PlanType = "mental_wellness"
	PlanDiseasePrevention PlanType = "disease_prevention"
)

// Valid reports whether t is a known plan type.
func (t PlanType) Valid() bool {
	switch t {
	case PlanNutrition, PlanFitness, PlanMentalWellness, PlanDiseasePrevention:
		return true
	}
	return false
}

// HealthPlanCreate is the request body of POST /health-plans.
type HealthPlanCreate struct {
	UserID   string   `json:"user_id"`
	PlanType PlanType `json:"plan_type"`
}

// HealthPlan is a plan summary.
type HealthPlan struct {
	ID          string     `json:"id" yaml:"id"`
	PlanType    PlanType   `json:"plan_type" yaml:"planType"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Progress    float64    `json:"progress" yaml:"progress"`
	IsActive    bool       `json:"is_active" yaml:"isActive"`
	CreatedAt   *time.Time `json:"created_at,omitempty" yaml:"createdAt,omitempty"`
}

// HealthPlanDetail is the body of GET /health-plans/detail/{planId}.
type HealthPlanDetail struct {
	ID          string         `json:"id" yaml:"id"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description" yaml:"description"`
	Content     map[string]any `json:"content" yaml:"content"`
	Progress    float64        `json:"progress" yaml:"progress"`
	CreatedAt   *time.Time     `json:"created_at,omitempty" yaml:"createdAt,omitempty"`
}

// Insight is a stored AI insight.
type Insight struct {
	ID              string     `json:"id" yaml:"id"`
	InsightType     string     `json:"insight_type" yaml:"insightType"`
	Title           string     `json:"title" yaml:"title"`
	Content         string     `json:"content" yaml:"content"`
	ConfidenceScore float64    `json:"confidence_score" yaml:"confidenceScore"`
	Priority        string     `json:"priority" yaml:"priority"`
	CreatedAt       *time.Time `json:"created_at,omitempty" yaml:"createdAt,omitempty"`
}

// DailyInsight is the body of POST /insights/daily/{userId}.
type DailyInsight struct {
	Title       string   `json:"title" yaml:"title"`
	Message     string   `json:"message" yaml:"message"`
	ActionItems []string `json:"actionItems" yaml:"actionItems"`
}

// RiskAssessment is a genetic health risk entry.
type RiskAssessment struct {
	ID               string   `json:"id" yaml:"id"`
	Condition        string   `json:"condition" yaml:"condition"`
	RiskLevel        string   `json:"risk_level" yaml:"riskLevel"`
	ConfidenceScore  float64  `json:"confidence_score" yaml:"confidenceScore"`
	GeneticFactors   []string `json:"genetic_factors,omitempty" yaml:"geneticFactors,omitempty"`
	LifestyleFactors []string `json:"lifestyle_factors,omitempty" yaml:"lifestyleFactors,omitempty"`
	Recommendations  []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// WearableSummary is the device summary embedded in the dashboard.
type WearableSummary struct {
	Steps         float64 `json:"steps" yaml:"steps"`
	HeartRate     float64 `json:"heart_rate" yaml:"heartRate"`
	Sleep         float64 `json:"sleep" yaml:"sleep"`
	Calories      float64 `json:"calories" yaml:"calories"`
	ActiveMinutes float64 `json:"active_minutes" yaml:"activeMinutes"`
	SyncStatus    string  `json:"sync_status" yaml:"syncStatus"`
}

// WearableReading is one stored data point from GET /wearables/{userId}.
type WearableReading struct {
	ID         string     `json:"id" yaml:"id"`
	DeviceName string     `json:"device_name" yaml:"deviceName"`
	DataType   string     `json:"data_type" yaml:"dataType"`
	Value      float64    `json:"value" yaml:"value"`
	Unit       string     `json:"unit" yaml:"unit"`
	RecordedAt *time.Time `json:"recorded_at,omitempty" yaml:"recordedAt,omitempty"`
}

// WearableSync is the request body of POST /wearables/sync/{userId}.
// Only the metric keys the API recognizes are sent.
type WearableSync struct {
	DeviceName    string   `json:"device_name"`
	Steps         *float64 `json:"steps,omitempty"`
	HeartRate     *float64 `json:"heart_rate,omitempty"`
	SleepHours    *float64 `json:"sleep_hours,omitempty"`
	Calories      *float64 `json:"calories,omitempty"`
	ActiveMinutes *float64 `json:"active_minutes,omitempty"`
}

// MessageResponse is the generic {"message": ...} body.
type MessageResponse struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// AggregateSnapshot is the dashboard read-model from GET /dashboard/{userId}.
type AggregateSnapshot struct {
	User            *User            `json:"user,omitempty" yaml:"user,omitempty"`
	HealthPlans     []HealthPlan     `json:"health_plans" yaml:"healthPlans"`
	Insights        []Insight        `json:"insights" yaml:"insights"`
	DNAReports      []DNAReport      `json:"dna_reports" yaml:"dnaReports"`
	RiskAssessments []RiskAssessment `json:"risk_assessments" yaml:"riskAssessments"`
	WearableData    WearableSummary  `json:"wearable_data" yaml:"wearableData"`
	WellnessScore   float64          `json:"wellness_score" yaml:"wellnessScore"`
}
