package model

import "time"

// TripStatus 班次状态
type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusCancelled TripStatus = "cancelled"
)

// Trip 班次，按业务 trip_id 全局唯一
//
// bookedSeats/notProvidedSeats 仅作持久化记录，
// 座位预订的并发控制不在本服务范围内。
type Trip struct {
	ID               string     `json:"id" bson:"_id"`
	TripID           string     `json:"trip_id" bson:"trip_id"`
	RouteID          string     `json:"route_id" bson:"route_id"`
	BusID            string     `json:"bus_id" bson:"bus_id"`
	StartTime        string     `json:"start_time" bson:"start_time"`
	EndTime          string     `json:"end_time" bson:"end_time"`
	Date             string     `json:"date" bson:"date"`
	TotalSeats       int        `json:"total_seats" bson:"total_seats"`
	AvailableSeats   int        `json:"available_seats" bson:"available_seats"`
	BookedSeats      []int      `json:"booked_seats" bson:"booked_seats"`
	NotProvidedSeats []int      `json:"not_provided_seats" bson:"not_provided_seats"`
	Status           TripStatus `json:"status" bson:"status"`
	CreatedAt        time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" bson:"updated_at"`
}
