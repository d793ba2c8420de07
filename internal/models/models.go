package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
	Activated    bool   `gorm:"default:true"             json:"activated"`
}

type Store struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
}

type Item struct {
	ID      uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name    string  `gorm:"unique;not null"          json:"name"`
	Price   float64 `gorm:"not null"                 json:"price"`
	StoreID uint    `gorm:"index;not null"           json:"store_id"`
}
