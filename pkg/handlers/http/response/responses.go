package response

import "github.com/NeuralTrust/TrustShield/pkg/domain/decision"

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type BlockedResponse struct {
	BlockedIPs []string `json:"blocked_ips"`
}

type StatsResponse struct {
	Attacks        int64 `json:"attacks"`
	Blocked        int   `json:"blocked"`
	TrackedOrigins int   `json:"tracked_origins"`
}

// LogEntry mirrors one row of the anomaly log.
type LogEntry struct {
	Time            string  `json:"time"`
	IP              string  `json:"ip"`
	RequestsPerMin  float64 `json:"requests_per_min"`
	SessionDuration float64 `json:"session_duration"`
	FailedLogin     int     `json:"failed_login"`
	Score           int     `json:"score"`
}

func NewLogEntries(records []decision.Record) []LogEntry {
	entries := make([]LogEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, LogEntry{
			Time:            r.Timestamp.UTC().Format(decision.TimeLayout),
			IP:              r.Origin,
			RequestsPerMin:  r.RequestsPerMin,
			SessionDuration: r.SessionDuration,
			FailedLogin:     r.FailedLogin,
			Score:           r.Score,
		})
	}
	return entries
}
