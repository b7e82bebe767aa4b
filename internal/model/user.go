package model

import "time"

// User is a registered learner account.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the credentials payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// ArchivedExamRecord is one row of the durable exam-history archive kept in
// PostgreSQL, written asynchronously by the history worker.
type ArchivedExamRecord struct {
	ID       int64     `json:"id"`
	UserID   int       `json:"user_id"`
	Bank     Bank      `json:"bank"`
	Score    int       `json:"score"`
	Duration int       `json:"duration"` // seconds
	TakenAt  time.Time `json:"taken_at"`
}
