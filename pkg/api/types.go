package api

import "time"

// Listing is a marketplace listing record as stored under
// <tenant>:listing:<id>.
type Listing struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency,omitempty"`
	CategoryID string    `json:"category_id,omitempty"`
	SiteID     string    `json:"site_id,omitempty"`
	Status     string    `json:"status,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// Category is a listing category record as stored under
// <tenant>:category:<id>.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
}

// Site is a marketplace site record as stored under <tenant>:site:<id>.
type Site struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Hostname string `json:"hostname,omitempty"`
}

// listResponse wraps collection responses with a count, matching the
// shape monitoring dashboards already scrape.
type listResponse struct {
	Count int         `json:"count"`
	Items interface{} `json:"items"`
}
