package domain

import "time"

type User struct {
	Login        string
	PasswordHash string
	Email        string
	Username     string
	CreatedAt    time.Time
}
