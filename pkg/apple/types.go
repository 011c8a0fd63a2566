package apple

import "time"

// Pickup-message response structures. Only the fields the predicate and the
// notifiers need are decoded.
type PickupResponse struct {
	Body *PickupBody `json:"body"`
}

type PickupBody struct {
	Stores []Store `json:"stores"`
}

type Store struct {
	StoreName         string                      `json:"storeName"`
	StoreNumber       string                      `json:"storeNumber"`
	City              string                      `json:"city,omitempty"`
	ReservationURL    string                      `json:"reservationUrl"`
	PartsAvailability map[string]PartAvailability `json:"partsAvailability"`
}

type PartAvailability struct {
	PickupDisplay     string `json:"pickupDisplay"`
	StorePickupQuote  string `json:"storePickupQuote"`
	PickupSearchQuote string `json:"pickupSearchQuote,omitempty"`
}

// StoreAvailability is a store that passed the availability predicate.
type StoreAvailability struct {
	StoreName         string                      `json:"store_name,omitempty"`
	StoreNumber       string                      `json:"store_number,omitempty"`
	ReservationURL    string                      `json:"reservation_url"`
	PartsAvailability map[string]PartAvailability `json:"parts_availability"`
}

// CheckResult is produced fresh by every check and never persisted.
type CheckResult struct {
	URL        string              `json:"url"`
	Codes      Codes               `json:"codes"`
	CheckedAt  time.Time           `json:"checked_at"`
	StoresSeen int                 `json:"stores_seen"`
	Available  []StoreAvailability `json:"available"`
}

// Found reports whether at least one store can take the order today.
func (r *CheckResult) Found() bool {
	return r != nil && len(r.Available) > 0
}
