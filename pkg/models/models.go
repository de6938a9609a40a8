package models

import "time"

// Bag is one calendar slot together with the people assigned to it
type Bag struct {
	SlotID   int      `json:"slot"`
	Day      int      `json:"day"`
	Assigned []string `json:"assigned"`
}

// BagView is a bag enriched with its pickup instruction for display
type BagView struct {
	SlotID   int      `json:"slot"`
	Day      int      `json:"day"`
	Assigned []string `json:"assigned"`
	Pickup   string   `json:"pickup"`
}

// AllocateInput is the data structure for the JSON allocation endpoint
type AllocateInput struct {
	Names []string `json:"names"`
	Year  int      `json:"year,omitempty"`
	Seed  *int64   `json:"seed,omitempty"`
}

// AllocateURLInput requests an allocation from a roster hosted at a URL
type AllocateURLInput struct {
	URL  string `json:"url" binding:"required"`
	Year int    `json:"year,omitempty"`
	Seed *int64 `json:"seed,omitempty"`
}

// AllocationResponse is the data structure for the allocation result
type AllocationResponse struct {
	RunID     string    `json:"run_id"`
	Year      int       `json:"year"`
	PoolSize  int       `json:"pool_size"`
	Regime    string    `json:"regime"`
	CreatedAt time.Time `json:"created_at"`
	Bags      []BagView `json:"bags"`
	Exports   Exports   `json:"exports"`
}

// Exports lists the download links for a stored allocation
type Exports struct {
	CSV  string `json:"csv"`
	HTML string `json:"html"`
	XLSX string `json:"xlsx"`
}

// PickupResponse is the data structure for the pickup rule endpoint
type PickupResponse struct {
	Day       int    `json:"day"`
	Year      int    `json:"year"`
	PickupDay int    `json:"pickup_day"`
	Date      string `json:"date"`
	Weekday   string `json:"weekday"`
	Shifted   bool   `json:"shifted"`
	Message   string `json:"message"`
}
