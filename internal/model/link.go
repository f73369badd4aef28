package model

import "time"

// Link - единственная сущность системы: короткий код -> целевой URL.
// LastClicked остается nil до первого редиректа.
type Link struct {
	ID          int64      `json:"-"`
	Code        string     `json:"code"`
	TargetURL   string     `json:"targetUrl"`
	Clicks      int64      `json:"clicks"`
	LastClicked *time.Time `json:"lastClicked,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type CreateLinkRequest struct {
	TargetURL string `json:"targetUrl"`
	Code      string `json:"code"`
}

// LinkResponse - внешнее представление ссылки.
// ShortURL всегда вычисляется из base URL, в базе не хранится.
type LinkResponse struct {
	Code        string     `json:"code"`
	TargetURL   string     `json:"targetUrl"`
	ShortURL    string     `json:"shortUrl"`
	Clicks      int64      `json:"clicks"`
	LastClicked *time.Time `json:"lastClicked,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
