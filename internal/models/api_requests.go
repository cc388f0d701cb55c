package models

// SubmitReportRequest is the body of POST /reports.
type SubmitReportRequest struct {
	TargetSteamID string `json:"targetSteamId" validate:"required,steamid"`
	TargetName    string `json:"targetName" validate:"max=64"`
	OccurredAt    string `json:"occurredAt" validate:"required"`
	DemoURL       string `json:"demoUrl" validate:"required,url"`
	CheatType     string `json:"cheatType" validate:"required,cheattype"`
}

// DecideReportRequest is the body of POST /admin/reports/status.
type DecideReportRequest struct {
	ID     int64        `json:"id"`
	Status ReportStatus `json:"status"`
}

// HeartbeatRequest is the body of POST /track/heartbeat.
type HeartbeatRequest struct {
	Path string `json:"path"`
}
