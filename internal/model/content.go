package model

import "time"

// ForumCategory is read-only reference data, seeded by migrations.
type ForumCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// ForumPost belongs to a category. Content is Markdown; ContentHTML is the
// rendered form and is never stored.
type ForumPost struct {
	ID          string     `json:"id"`
	CategoryID  string     `json:"category_id"`
	AuthorID    string     `json:"author_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	ContentHTML string     `json:"content_html,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Author      *PersonRef `json:"author,omitempty"`
}

// NewForumPost is the create form payload.
type NewForumPost struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// GearTypes are the review categories.
var GearTypes = []string{"Shoes", "Watch", "Apparel", "Nutrition", "Other"}

const (
	MinRating = 1
	MaxRating = 5
)

// ValidGearType reports whether t is one of GearTypes.
func ValidGearType(t string) bool {
	for _, known := range GearTypes {
		if known == t {
			return true
		}
	}
	return false
}

// GearReview is a runner's rating of a piece of gear. Rating is in [1,5].
type GearReview struct {
	ID         string     `json:"id"`
	AuthorID   string     `json:"author_id"`
	GearName   string     `json:"gear_name"`
	GearType   string     `json:"gear_type"`
	Rating     int        `json:"rating"`
	ReviewText string     `json:"review_text"`
	CreatedAt  time.Time  `json:"created_at"`
	Author     *PersonRef `json:"author,omitempty"`
}

// NewGearReview is the create form payload.
type NewGearReview struct {
	GearName   string `json:"gear_name"`
	GearType   string `json:"gear_type"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

// TrainingResource is an entry of the static training catalog.
type TrainingResource struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"` // plan, guide or video
	Level       string `json:"level"`
	Link        string `json:"link"`
}
