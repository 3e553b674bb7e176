package models

import (
	"sort"
	"time"
)

// Reaction kinds stored in post_reactions.kind.
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Post is a short authored entry. Name and Avatar are a snapshot of the author
// taken at creation and are never rewritten.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user"`
	Head      string     `gorm:"not null" json:"head"`
	Body      string     `gorm:"not null" json:"body"`
	Name      string     `json:"name"`
	Avatar    string     `json:"avatar"`
	Reactions []Reaction `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	// Likes and Dislikes are derived from Reactions, most recent first.
	Likes     []ReactionRef `gorm:"-" json:"likes"`
	Dislikes  []ReactionRef `gorm:"-" json:"dislikes"`
	Comments  []Comment     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`
	CreatedAt time.Time     `gorm:"index" json:"date"`
}

// Reaction is one user's like or dislike on a post. The composite key makes
// a user appear at most once per post, so likes and dislikes never overlap.
type Reaction struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"-"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user"`
	Kind      string    `gorm:"size:16;not null" json:"-"`
	ReactedAt time.Time `gorm:"not null;index" json:"-"`
}

func (Reaction) TableName() string {
	return "post_reactions"
}

// ReactionRef is the wire form of a like or dislike entry.
type ReactionRef struct {
	User uint `json:"user"`
}

// ReactionSummary holds both reaction sets of a post.
type ReactionSummary struct {
	Likes    []ReactionRef `json:"likes"`
	Dislikes []ReactionRef `json:"dislikes"`
}

// Comment is a reply on a post with a snapshot of the commenter.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user"`
	Body      string    `gorm:"not null" json:"body"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"date"`
}

// SummarizeReactions splits reactions into likes and dislikes, most recent first.
func SummarizeReactions(reactions []Reaction) ReactionSummary {
	sorted := make([]Reaction, len(reactions))
	copy(sorted, reactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReactedAt.After(sorted[j].ReactedAt)
	})

	summary := ReactionSummary{Likes: []ReactionRef{}, Dislikes: []ReactionRef{}}
	for _, r := range sorted {
		switch r.Kind {
		case ReactionLike:
			summary.Likes = append(summary.Likes, ReactionRef{User: r.UserID})
		case ReactionDislike:
			summary.Dislikes = append(summary.Dislikes, ReactionRef{User: r.UserID})
		}
	}
	return summary
}

// FillReactions populates Likes and Dislikes from the loaded Reactions.
func (p *Post) FillReactions() {
	summary := SummarizeReactions(p.Reactions)
	p.Likes = summary.Likes
	p.Dislikes = summary.Dislikes
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
}
