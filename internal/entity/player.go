package entity

type Player struct {
	ID     string `json:"id"`
	GameID string `json:"game_id,omitempty"`
	Mark   Cell   `json:"mark"`
}
