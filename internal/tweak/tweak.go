package tweak

// Tweak represents a catalog item: a named script fragment with usage metadata.
type Tweak struct {
	// ID is an opaque stable identifier assigned by the catalog
	ID string `json:"id"`

	// CategoryID references the owning category
	CategoryID string `json:"category_id"`

	// Title is the display name of the tweak
	Title string `json:"title"`

	// Description is a short human-readable summary (markdown, nullable)
	Description *string `json:"description,omitempty"`

	// Code is the raw script fragment (nullable; absent code composes as empty)
	Code *string `json:"code,omitempty"`

	// Comment is a free-form annotation shown in the rendered header (nullable)
	Comment *string `json:"comment,omitempty"`

	// DownloadCount is a monotonic non-negative counter, incremented at the store
	DownloadCount int64 `json:"download_count"`

	// FavoriteCount is a monotonic non-negative counter, read-only to this core
	FavoriteCount int64 `json:"favorite_count"`

	// ReportCount is the number of user reports against this tweak (nullable)
	ReportCount *int64 `json:"report_count,omitempty"`

	// IsVisible gates catalog display; hidden tweaks can still be composed by id
	IsVisible bool `json:"is_visible"`

	// CreatedAt is the Unix timestamp when the tweak was ingested
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp when the tweak was last re-ingested
	UpdatedAt int64 `json:"updated_at"`
}

// Category groups tweaks for catalog display. Read-only to this core.
type Category struct {
	ID string `json:"id"`

	Name string `json:"name"`

	// Icon is a symbolic name resolved by the UI layer (nullable)
	Icon *string `json:"icon,omitempty"`

	// Position orders categories in the catalog
	Position int `json:"position"`
}

// Summary represents a tweak's metadata without the script body.
// Used for browse operations (list, stats) to reduce data transfer.
type Summary struct {
	ID            string  `json:"id"`
	CategoryID    string  `json:"category_id"`
	Title         string  `json:"title"`
	Description   *string `json:"description,omitempty"`
	DownloadCount int64   `json:"download_count"`
	FavoriteCount int64   `json:"favorite_count"`
	ReportCount   *int64  `json:"report_count,omitempty"`
	IsVisible     bool    `json:"is_visible"`
	UpdatedAt     int64   `json:"updated_at"`
}

// ToSummary converts a Tweak to a Summary by stripping the script body.
func (t *Tweak) ToSummary() Summary {
	return Summary{
		ID:            t.ID,
		CategoryID:    t.CategoryID,
		Title:         t.Title,
		Description:   t.Description,
		DownloadCount: t.DownloadCount,
		FavoriteCount: t.FavoriteCount,
		ReportCount:   t.ReportCount,
		IsVisible:     t.IsVisible,
		UpdatedAt:     t.UpdatedAt,
	}
}
