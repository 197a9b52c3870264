package models

import "time"

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

type StatusResponse struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type VersionSummary struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

type ProjectResponse struct {
	ID             string           `json:"project_id"`
	Name           string           `json:"name"`
	Status         StatusResponse   `json:"status"`
	CurrentVersion int              `json:"current_version"`
	HistoryLength  int              `json:"history_length"`
	HasEdits       bool             `json:"has_edits"`
	CanUndo        bool             `json:"can_undo"`
	CanRedo        bool             `json:"can_redo"`
	OriginalCount  int              `json:"original_count"`
	InitialOptions []string         `json:"initial_options"`
	SavedVersions  []VersionSummary `json:"saved_versions"`
	ImageURL       string           `json:"image_url"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type ProjectSummary struct {
	ID             string         `json:"project_id"`
	Name           string         `json:"name"`
	Status         StatusResponse `json:"status"`
	CurrentVersion int            `json:"current_version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type VersionListResponse struct {
	Versions []VersionSummary `json:"versions"`
}

type ExportResponse struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	URL   string `json:"url"`
}

type PresetResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type PresetCategoryResponse struct {
	Category string           `json:"category"`
	Presets  []PresetResponse `json:"presets"`
}

type PresetListResponse struct {
	Categories []PresetCategoryResponse `json:"categories"`
}

type OptionResponse struct {
	ID          string `json:"id"`
	Group       string `json:"group"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type OptionListResponse struct {
	Options []OptionResponse `json:"options"`
}

type NameSuggestionResponse struct {
	Name string `json:"name"`
}

type EditStatsResponse struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type UserResponse struct {
	ID          string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Provider    string `json:"provider"`
}

// MeResponse carries a null user for anonymous callers.
type MeResponse struct {
	User  *UserResponse      `json:"user"`
	Stats *EditStatsResponse `json:"stats,omitempty"`
}

type SignOutResponse struct {
	Status string `json:"status"`
}
