package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"   json:"id"       bson:"_id"`
	Username     string    `gorm:"uniqueIndex;not null"          json:"username" bson:"username"`
	PasswordHash string    `gorm:"not null"                      json:"-"        bson:"password_hash"`
	Role         string    `gorm:"not null;default:user"         json:"role"     bson:"role"`
	CreatedAt    time.Time `                                     json:"-"        bson:"created_at"`
}

// Role is written once per registration. SecretHash carries the same bcrypt
// hash as the user's password.
type Role struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"   bson:"_id"`
	RoleName   string    `gorm:"index;not null"              json:"role" bson:"role"`
	SecretHash string    `gorm:"not null"                    json:"-"    bson:"secret_hash"`
	CreatedAt  time.Time `                                   json:"-"    bson:"created_at"`
}

type RefreshSession struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"            bson:"_id"`
	UserID       string    `gorm:"uniqueIndex;not null"        json:"user_id"       bson:"user_id"`
	RefreshToken string    `gorm:"index;not null"              json:"refresh_token" bson:"refresh_token"`
	UpdatedAt    time.Time `                                   json:"-"             bson:"updated_at"`
}

type Task struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"          bson:"_id"`
	UserID      string    `gorm:"index;not null"              json:"user_id"     bson:"user_id"`
	Title       string    `gorm:"not null"                    json:"title"       bson:"title"`
	IsCompleted bool      `gorm:"not null;default:false"      json:"isCompleted" bson:"is_completed"`
	CreatedAt   time.Time `                                   json:"created_at"  bson:"created_at"`
}

// All lists every model the SQL stores migrate.
func All() []any {
	return []any{&User{}, &Role{}, &RefreshSession{}, &Task{}}
}
