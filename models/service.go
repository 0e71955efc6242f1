package models

// Service is a catalog entry offered to clients. Entries are defined at
// deployment time and never mutated while the bot runs.
type Service struct {
	Key      string `json:"key" mapstructure:"key"`
	Name     string `json:"name" mapstructure:"name"`
	Price    int    `json:"price" mapstructure:"price"`       // whole roubles
	Duration int    `json:"duration" mapstructure:"duration"` // in minutes
}

// Snapshot captures the fields that are copied into a reservation at booking
// time so later catalog edits do not rewrite history.
func (s Service) Snapshot() ServiceSnapshot {
	return ServiceSnapshot{
		Key:      s.Key,
		Name:     s.Name,
		Price:    s.Price,
		Duration: s.Duration,
	}
}

type ServiceSnapshot struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Duration int    `json:"duration"`
}
