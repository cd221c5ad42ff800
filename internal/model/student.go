package model

import "time"

// Student is an exam candidate.
type Student struct {
	ID           int       `json:"id"`
	RollNo       string    `json:"roll_no"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// StudentLoginRequest is the payload for a student login.
type StudentLoginRequest struct {
	RollNo   string `json:"roll_no" binding:"required,min=3,max=30"`
	Password string `json:"password" binding:"required,min=6"`
}
