package domain

import "time"

type Customer struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string
	CreatedAt time.Time
}
