package domain

import "time"

// Site is a physical location tickets are filed against.
type Site struct {
	ID        int64
	Name      string
	Address   string
	Phone     string
	Email     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Department is an organizational unit, usually inside a site.
type Department struct {
	ID          int64
	SiteID      *int64
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// Category classifies tickets.
type Category struct {
	ID        int64
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// Subcategory refines a category.
type Subcategory struct {
	ID         int64
	CategoryID int64
	Name       string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

// SiteChannel maps a site to the messaging group notified of new tickets.
type SiteChannel struct {
	ID        int64
	SiteID    int64
	ChatID    string
	Name      string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
