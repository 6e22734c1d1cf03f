package dto

// DailyStats counts audit entries for one calendar day
type DailyStats struct {
	Date  string `json:"date"`
	In    int64  `json:"in"`
	Out   int64  `json:"out"`
	Total int64  `json:"total"`
}

// ClearLogsRequest is the body of DELETE /logs/cleanup
type ClearLogsRequest struct {
	Days *int `json:"days"`
}
