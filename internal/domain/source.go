package domain

import "github.com/google/uuid"

// Novel is the source work a generation job draws text from.
type Novel struct {
	ID          uuid.UUID `json:"novel_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language"`
}

// Chapter is a single chapter of a novel.
type Chapter struct {
	ID      uuid.UUID `json:"chapter_id"`
	NovelID uuid.UUID `json:"novel_id"`
	Number  int       `json:"number"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
}
