package models

import "time"

// SavedView is a named dashboard link.
type SavedView struct {
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
}

// SavedViewsFile is the on-disk layout of the views file.
type SavedViewsFile struct {
	Views   []SavedView `json:"views"`
	Version int         `json:"version"`
}
