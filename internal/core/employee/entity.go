package employee

import "time"

// Employee は社員エンティティです。ID は永続化層が採番します。
type Employee struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
