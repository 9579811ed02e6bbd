package model

import "time"

// Route 班线，按线路编号全局唯一
type Route struct {
	ID            string    `json:"id" bson:"_id"`
	Number        string    `json:"number" bson:"number"`
	Start         string    `json:"start" bson:"start"`
	End           string    `json:"end" bson:"end"`
	TotalDistance float64   `json:"total_distance" bson:"total_distance"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// RouteFilter 班线查询条件（按需组合）
type RouteFilter struct {
	ID    string
	Start string
	End   string
}
