package classifier

// Level is the severity verdict for a single event.
type Level string

const (
	LevelNormal     Level = "NORMAL"
	LevelSuspicious Level = "SUSPICIOUS"
	LevelMalicious  Level = "MALICIOUS"
)

// Category names the kind of threat an assessment describes.
type Category string

const (
	CategoryClean             Category = "CLEAN"
	CategorySQLInjection      Category = "SQL_INJECTION"
	CategorySuspiciousPattern Category = "SUSPICIOUS_PATTERN"
	CategoryDDoSAttempt       Category = "DDOS_ATTEMPT"
)

// RateLimitPattern is reported as the matched pattern for volumetric verdicts.
const RateLimitPattern = "rate_limit_exceeded"

// Fixed confidences per verdict path.
const (
	ConfidenceSQLInjection = 0.95
	ConfidenceSuspicious   = 0.7
	ConfidenceDDoS         = 0.9
	ConfidenceClean        = 1.0
)

// Assessment is the result of classifying one event.
type Assessment struct {
	Level          Level    `json:"level"`
	Category       Category `json:"category"`
	MatchedPattern string   `json:"matched_pattern,omitempty"`
	Confidence     float64  `json:"confidence"`
}

// IsThreat reports whether the assessment needs a mitigation decision.
func (a Assessment) IsThreat() bool {
	return a.Level != LevelNormal
}
