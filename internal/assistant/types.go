package assistant

// Thread тред разговора на стороне assistant API.
type Thread struct {
	ID string `json:"id"`
}

// Message сообщение треда.
type Message struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text struct {
			Value string `json:"value"`
		} `json:"text"`
	} `json:"content"`
}

// MessageList ответ на запрос списка сообщений треда.
type MessageList struct {
	Data []Message `json:"data"`
}

// Run запуск ассистента на треде.
type Run struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Статусы запуска, означающие завершение опроса.
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
	RunStatusExpired   = "expired"
)
