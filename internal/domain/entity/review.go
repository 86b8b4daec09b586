package entity

import "time"

type Review struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	GigID      string    `json:"gig_id"`
	ReviewerID string    `json:"reviewer_id"`
	TargetID   string    `json:"target_id"`
	Rating     int       `json:"rating"` // 1-5
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}
