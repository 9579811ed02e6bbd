// Package model 定义核心数据模型
package model

import "time"

// BusType 车辆类型
type BusType string

const (
	BusTypeNormal     BusType = "normal"
	BusTypeSemiLuxury BusType = "semi-luxury"
	BusTypeLuxury     BusType = "luxury"
)

// Bus 车辆，按 NTC 编号全局唯一
type Bus struct {
	ID          string    `json:"id" bson:"_id"`
	NTCNo       string    `json:"ntc_no" bson:"ntc_no"`
	BusNo       string    `json:"bus_no" bson:"bus_no"`
	DriverID    string    `json:"driver_id,omitempty" bson:"driver_id,omitempty"`
	ConductorID string    `json:"conductor_id,omitempty" bson:"conductor_id,omitempty"`
	BusType     BusType   `json:"bus_type" bson:"bus_type"`
	BusName     string    `json:"bus_name" bson:"bus_name"`
	RouteID     string    `json:"route_id,omitempty" bson:"route_id,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
