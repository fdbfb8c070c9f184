package models

// PersonSummary is a person projection joined on cid across reports
type PersonSummary struct {
	CID         int    `json:"cid"`
	Name        string `json:"name"`
	ReportCount int    `json:"reportCount"`
}

// Person is the detailed person projection
type Person struct {
	PersonSummary
	Reports []Report `json:"reports"`
	Bolos   []Bolo   `json:"bolos"`
}

// VehicleSummary is a vehicle projection joined on plate across reports and bolos
type VehicleSummary struct {
	Plate       string `json:"plate"`
	ReportCount int    `json:"reportCount"`
	BoloCount   int    `json:"boloCount"`
}

// Vehicle is the detailed vehicle projection
type Vehicle struct {
	VehicleSummary
	Reports []Report `json:"reports"`
	Bolos   []Bolo   `json:"bolos"`
}
