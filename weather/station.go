// Package weather implements the climate station and observation
// lifecycle: validation criteria over station metadata and daily
// observations, and an ingest processor backed by the MSC GeoMet API.
package weather

import (
	lifecycle "github.com/goliatone/go-lifecycle"
)

// Entity types owned by this package.
const (
	EntityTypeStation     = "weather_station"
	EntityTypeObservation = "weather_data"
)

// Station envelope states.
const (
	StationStateRegistered = "registered"
	StationStateActive     = "active"
	StationStateRetired    = "retired"
)

// Observation envelope states.
const (
	ObservationStateReceived  = "received"
	ObservationStateValidated = "validated"
	ObservationStateRejected  = "rejected"
)

// Geographic and temporal bounds enforced by the criteria.
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0

	CanadaMinLatitude  = 41.0
	CanadaMaxLatitude  = 84.0
	CanadaMinLongitude = -141.0
	CanadaMaxLongitude = -52.0

	EarliestRecordYear = 1840
	LatestRecordYear   = 2024

	MinTemperature = -60.0
	MaxTemperature = 60.0
	MinHumidity    = 0.0
	MaxHumidity    = 100.0
)

// Station is the decoded weather station record.
type Station struct {
	StationID string  `json:"station_id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation,omitempty"`
	FirstYear int     `json:"first_year"`
	LastYear  int     `json:"last_year"`
	Province  string  `json:"province,omitempty"`
}

// DecodeStation maps entity attributes onto a Station.
func DecodeStation(e *lifecycle.Entity) (*Station, error) {
	var s Station
	if err := lifecycle.Decode(e, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Observation is one decoded daily climate observation.
type Observation struct {
	StationID       string   `json:"station_id"`
	Date            string   `json:"date"`
	TemperatureMin  *float64 `json:"temperature_min,omitempty"`
	TemperatureMean *float64 `json:"temperature_mean,omitempty"`
	TemperatureMax  *float64 `json:"temperature_max,omitempty"`
	Humidity        *float64 `json:"humidity,omitempty"`
	Precipitation   *float64 `json:"precipitation,omitempty"`
	IngestedAt      string   `json:"ingested_at,omitempty"`
	Source          string   `json:"source,omitempty"`
}

// DecodeObservation maps entity attributes onto an Observation.
func DecodeObservation(e *lifecycle.Entity) (*Observation, error) {
	var o Observation
	if err := lifecycle.Decode(e, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
