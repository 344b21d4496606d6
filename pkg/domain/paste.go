package domain

const (
	MaxTitleLen     = 200
	MaxContentLen   = 500000
	DefaultTitle    = "Untitled"
	DefaultLanguage = "plaintext"
)

// Paste is immutable once stored: create, read, delete only.
// Timestamps are milliseconds since epoch. A nil ExpiresAt means the paste
// never expires and serializes as JSON null.
type Paste struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Language  string `json:"language"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt *int64 `json:"expiresAt"`
}

func (p *Paste) Expired(nowMillis int64) bool {
	return p.ExpiresAt != nil && nowMillis >= *p.ExpiresAt
}
