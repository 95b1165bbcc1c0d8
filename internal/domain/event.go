package domain

// EventDetails is revealed only to guests with a confirmed "yes".
type EventDetails struct {
	Location          Location          `json:"location"`
	AccommodationInfo AccommodationInfo `json:"accommodationInfo"`
	AdditionalInfo    string            `json:"additionalInfo"`
}

type Location struct {
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	AccessCode  string      `json:"accessCode,omitempty"`
	ParkingInfo string      `json:"parkingInfo,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type AccommodationInfo struct {
	CheckIn   string   `json:"checkIn"`
	CheckOut  string   `json:"checkOut"`
	Amenities []string `json:"amenities"`
}
