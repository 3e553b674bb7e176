package models

import "time"

// SocialMedia holds optional social links of a profile.
type SocialMedia struct {
	YouTube   string `gorm:"column:youtube" json:"youtube,omitempty"`
	Twitter   string `gorm:"column:twitter" json:"twitter,omitempty"`
	Facebook  string `gorm:"column:facebook" json:"facebook,omitempty"`
	LinkedIn  string `gorm:"column:linkedin" json:"linkedin,omitempty"`
	Instagram string `gorm:"column:instagram" json:"instagram,omitempty"`
}

// Profile is the professional profile of a user; at most one per user.
type Profile struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	UserID         uint        `gorm:"uniqueIndex;not null" json:"-"`
	User           *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Company        string      `json:"company,omitempty"`
	Website        string      `json:"website,omitempty"`
	Location       string      `json:"location,omitempty"`
	Status         string      `gorm:"not null" json:"status"`
	Skills         []string    `gorm:"serializer:json" json:"skills"`
	Bio            string      `json:"bio,omitempty"`
	GitHubUsername string      `gorm:"column:github_username" json:"githubUsername,omitempty"`
	SocialMedia    SocialMedia `gorm:"embedded;embeddedPrefix:social_" json:"socialMedia"`
	// Experience and Education are kept newest first.
	Experience []Experience `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"experience"`
	Education  []Education  `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"education"`
	CreatedAt  time.Time    `json:"date"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// Experience is one job entry of a profile.
type Experience struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	ProfileID   uint       `gorm:"not null;index" json:"-"`
	Title       string     `gorm:"not null" json:"title"`
	Company     string     `gorm:"not null" json:"company"`
	Location    string     `json:"location,omitempty"`
	From        time.Time  `gorm:"not null" json:"from"`
	To          *time.Time `json:"to,omitempty"`
	Current     bool       `json:"current"`
	Description string     `json:"description,omitempty"`
}

// Education is one school entry of a profile.
type Education struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ProfileID    uint       `gorm:"not null;index" json:"-"`
	School       string     `gorm:"not null" json:"school"`
	Degree       string     `gorm:"not null" json:"degree"`
	FieldOfStudy string     `gorm:"not null" json:"fieldOfStudy"`
	From         time.Time  `gorm:"not null" json:"from"`
	To           *time.Time `json:"to,omitempty"`
	Current      bool       `json:"current"`
	Description  string     `json:"description,omitempty"`
}

// GitHubRepo is the reshaped view of a public GitHub repository.
type GitHubRepo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Forks       int    `json:"forks"`
	Stars       int    `json:"stars"`
	Watchers    int    `json:"watchers"`
}
