package model

// Victory records a daily winner. The log is append-only and chronological.
type Victory struct {
	Winner string `json:"winner"`
	Date   string `json:"date"`
}

// Settings holds the chat the daily report is delivered to. A zero ChatID
// means no chat has been registered yet.
type Settings struct {
	ChatID int64 `json:"chatId"`
}
