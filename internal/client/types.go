package client

// Account is what the backend returns from register and login.
type Account struct {
	Message string  `json:"message"`
	UserID  int64   `json:"user_id"`
	Email   string  `json:"email"`
	Name    *string `json:"name"`
}

// BPReading is one stored blood-pressure measurement.
type BPReading struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Timestamp string `json:"timestamp"`
}

// NewBPReading is the body of POST /api/bp. Timestamp is ISO 8601 and
// optional; the backend stamps the reading when it is empty.
type NewBPReading struct {
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Timestamp string `json:"timestamp,omitempty"`
}

// MoodLog is one stored mood entry. MoodLevel is 1 (stressed), 2 (okay) or
// 3 (calm).
type MoodLog struct {
	ID        int64   `json:"id"`
	UserID    int64   `json:"user_id"`
	MoodLevel int     `json:"mood_level"`
	Note      *string `json:"note"`
	Timestamp string  `json:"timestamp"`
}

// NewMoodLog is the body of POST /api/mood.
type NewMoodLog struct {
	MoodLevel int    `json:"mood_level"`
	Note      string `json:"note,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// BPPoint is a single reading inside dashboard and recommendation payloads.
type BPPoint struct {
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Timestamp string `json:"timestamp"`
}

// MoodPoint is a single mood entry inside the dashboard series.
type MoodPoint struct {
	Timestamp string  `json:"timestamp"`
	MoodLevel int     `json:"mood_level"`
	Note      *string `json:"note"`
}

// BPDay is the per-day blood-pressure average.
type BPDay struct {
	Date         string  `json:"date"`
	AvgSystolic  float64 `json:"avg_systolic"`
	AvgDiastolic float64 `json:"avg_diastolic"`
}

// MoodDay is the per-day mood average and its category
// (high_stress, medium or calm).
type MoodDay struct {
	Date         string  `json:"date"`
	AvgMood      float64 `json:"avg_mood"`
	MoodCategory string  `json:"mood_category"`
}

// CorrelationPoint joins BPDay and MoodDay for days that have both.
type CorrelationPoint struct {
	Date         string  `json:"date"`
	AvgSystolic  float64 `json:"avg_systolic"`
	AvgDiastolic float64 `json:"avg_diastolic"`
	AvgMood      float64 `json:"avg_mood"`
	MoodCategory string  `json:"mood_category"`
}

// DailySummary is the nested per-day aggregate container. It is the only
// dashboard shape this client understands.
type DailySummary struct {
	BPDaily           []BPDay            `json:"bp_daily"`
	MoodDaily         []MoodDay          `json:"mood_daily"`
	CorrelationPoints []CorrelationPoint `json:"correlation_points"`
}

// Dashboard is the response of GET /api/dashboard.
type Dashboard struct {
	Range        string       `json:"range"`
	StartDate    string       `json:"start_date"`
	EndDate      string       `json:"end_date"`
	LastBP       *BPPoint     `json:"last_bp"`
	HighestBP    *BPPoint     `json:"highest_bp"`
	LowestBP     *BPPoint     `json:"lowest_bp"`
	BPSeries     []BPPoint    `json:"bp_series"`
	MoodSeries   []MoodPoint  `json:"mood_series"`
	DailySummary DailySummary `json:"daily_summary"`
}

// Badge is one achievement and whether the user has earned it.
type Badge struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Earned      bool    `json:"earned"`
	EarnedAt    *string `json:"earned_at"`
}

// Recommendation is the daily advice returned by
// GET /api/recommendation/today.
type Recommendation struct {
	Date            string   `json:"date"`
	LatestBP        *BPPoint `json:"latest_bp,omitempty"`
	BPStatus        string   `json:"bp_status"`
	BPRiskLevel     string   `json:"bp_risk_level"`
	BPTrend         string   `json:"bp_trend"`
	MoodStatus      string   `json:"mood_status"`
	StressImpact    string   `json:"stress_impact"`
	LoggingStatus   string   `json:"logging_status"`
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}
