package persistence

import "time"

// AgentModel represents the agents table: symbol PK, bearer_token, agent
// jsonb, created_at, updated_at.
type AgentModel struct {
	Symbol      string    `gorm:"column:symbol;primaryKey;not null"`
	BearerToken string    `gorm:"column:bearer_token;not null"`
	Agent       string    `gorm:"column:agent;type:jsonb;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (AgentModel) TableName() string {
	return "agents"
}

// MarketModel represents the markets table: symbol PK, market jsonb,
// created_at, updated_at — upsert by symbol.
type MarketModel struct {
	Symbol    string    `gorm:"column:symbol;primaryKey;not null"`
	Market    string    `gorm:"column:market;type:jsonb;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (MarketModel) TableName() string {
	return "markets"
}

// SurveyModel represents the surveys table: id bigserial PK,
// asteroid_symbol, survey jsonb, expires_at, created_at, updated_at,
// extract_state int (0=active, 1=reserved, 2=exhausted).
type SurveyModel struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	AsteroidSymbol string    `gorm:"column:asteroid_symbol;not null;index"`
	Survey         string    `gorm:"column:survey;type:jsonb;not null"`
	ExpiresAt      time.Time `gorm:"column:expires_at;not null;index"`
	CreatedAt      time.Time `gorm:"column:created_at;not null;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;not null;autoUpdateTime"`
	ExtractState   int       `gorm:"column:extract_state;not null;default:0;index"`
}

func (SurveyModel) TableName() string {
	return "surveys"
}
