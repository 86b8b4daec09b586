package entity

import "time"

// GigCategories is the fixed category set the marketplace accepts.
var GigCategories = []string{
	"graphics-design",
	"digital-marketing",
	"writing-translation",
	"video-animation",
	"music-audio",
	"programming-tech",
	"business",
	"lifestyle",
}

type Gig struct {
	ID           string    `json:"id"`
	FreelancerID string    `json:"freelancer_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Price        float64   `json:"price"`
	DeliveryDays int       `json:"delivery_days"`
	Images       []string  `json:"images,omitempty"`
	Rating       float64   `json:"rating,omitempty"`
	ReviewCount  int       `json:"review_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
