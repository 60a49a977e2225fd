package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Product ids are assigned by the catalog (max+1), never by the database.
type Product struct {
	ID         int       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Nombre     string    `gorm:"not null" json:"nombre"`
	Precio     float64   `gorm:"not null" json:"precio"`
	Imagen     string    `json:"imagen"`
	Habilitado bool      `gorm:"not null" json:"habilitado"`
	Extra      string    `gorm:"type:text" json:"-"`
	Comments   []Comment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"-"`
}

type Comment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	ProductID int       `gorm:"index;not null" json:"-"`
	Body      string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `json:"-"`
}

func All() []any {
	return []any{&User{}, &Product{}, &Comment{}}
}
