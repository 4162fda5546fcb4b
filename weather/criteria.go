package weather

import (
	"strings"

	lifecycle "github.com/goliatone/go-lifecycle"
)

// Reason codes attached to failing verdicts.
const (
	CodeStationIDRequired   = "STATION_ID_REQUIRED"
	CodeStationNameRequired = "STATION_NAME_REQUIRED"
	CodeStationLatitude     = "STATION_LATITUDE_RANGE"
	CodeStationLongitude    = "STATION_LONGITUDE_RANGE"
	CodeStationOutsideCA    = "STATION_OUTSIDE_CANADA"
	CodeStationYears        = "STATION_YEARS_INVALID"

	CodeObservationStation  = "OBSERVATION_STATION_REQUIRED"
	CodeObservationDate     = "OBSERVATION_DATE_REQUIRED"
	CodeObservationTempOOR  = "OBSERVATION_TEMPERATURE_RANGE"
	CodeObservationHumidity = "OBSERVATION_HUMIDITY_RANGE"
	CodeObservationTempSkew = "OBSERVATION_TEMPERATURE_ORDER"
)

// NewStationCriterion builds the station battery: identity, coordinate
// ranges, the Canada-bounds business rule, then record-year ordering.
func NewStationCriterion(logger lifecycle.Logger) lifecycle.Criterion {
	return lifecycle.NewBattery("weather_station", logger,
		lifecycle.SubCheck{
			Name: "required_fields",
			Run: func(e *lifecycle.Entity) error {
				s, err := DecodeStation(e)
				if err != nil {
					return err
				}
				if strings.TrimSpace(s.StationID) == "" {
					return lifecycle.Reject(CodeStationIDRequired, "station id is required")
				}
				if strings.TrimSpace(s.Name) == "" {
					return lifecycle.Reject(CodeStationNameRequired, "station name is required")
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "coordinate_range",
			Run: func(e *lifecycle.Entity) error {
				s, _ := DecodeStation(e)
				if s.Latitude < MinLatitude || s.Latitude > MaxLatitude {
					return lifecycle.Reject(CodeStationLatitude, "latitude %.4f outside [%.0f, %.0f]",
						s.Latitude, MinLatitude, MaxLatitude)
				}
				if s.Longitude < MinLongitude || s.Longitude > MaxLongitude {
					return lifecycle.Reject(CodeStationLongitude, "longitude %.4f outside [%.0f, %.0f]",
						s.Longitude, MinLongitude, MaxLongitude)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "canada_bounds",
			Run: func(e *lifecycle.Entity) error {
				s, _ := DecodeStation(e)
				if s.Latitude < CanadaMinLatitude || s.Latitude > CanadaMaxLatitude ||
					s.Longitude < CanadaMinLongitude || s.Longitude > CanadaMaxLongitude {
					return lifecycle.Reject(CodeStationOutsideCA,
						"station at (%.4f, %.4f) falls outside Canada bounds", s.Latitude, s.Longitude)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "record_years",
			Run: func(e *lifecycle.Entity) error {
				s, _ := DecodeStation(e)
				if s.FirstYear < EarliestRecordYear || s.LastYear > LatestRecordYear || s.FirstYear > s.LastYear {
					return lifecycle.Reject(CodeStationYears,
						"record years [%d, %d] must satisfy %d <= first <= last <= %d",
						s.FirstYear, s.LastYear, EarliestRecordYear, LatestRecordYear)
				}
				return nil
			},
		},
	)
}

// NewObservationCriterion builds the observation battery: identity,
// physical ranges, then the min/mean/max ordering invariant.
func NewObservationCriterion(logger lifecycle.Logger) lifecycle.Criterion {
	return lifecycle.NewBattery("weather_data", logger,
		lifecycle.SubCheck{
			Name: "required_fields",
			Run: func(e *lifecycle.Entity) error {
				o, err := DecodeObservation(e)
				if err != nil {
					return err
				}
				if strings.TrimSpace(o.StationID) == "" {
					return lifecycle.Reject(CodeObservationStation, "observation station id is required")
				}
				if strings.TrimSpace(o.Date) == "" {
					return lifecycle.Reject(CodeObservationDate, "observation date is required")
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "physical_range",
			Run: func(e *lifecycle.Entity) error {
				o, _ := DecodeObservation(e)
				for name, v := range map[string]*float64{
					"temperature_min":  o.TemperatureMin,
					"temperature_mean": o.TemperatureMean,
					"temperature_max":  o.TemperatureMax,
				} {
					if v != nil && (*v < MinTemperature || *v > MaxTemperature) {
						return lifecycle.Reject(CodeObservationTempOOR,
							"%s %.1f outside [%.0f, %.0f] C", name, *v, MinTemperature, MaxTemperature)
					}
				}
				if o.Humidity != nil && (*o.Humidity < MinHumidity || *o.Humidity > MaxHumidity) {
					return lifecycle.Reject(CodeObservationHumidity,
						"humidity %.1f outside [%.0f, %.0f]", *o.Humidity, MinHumidity, MaxHumidity)
				}
				return nil
			},
		},
		lifecycle.SubCheck{
			Name: "temperature_order",
			Run: func(e *lifecycle.Entity) error {
				o, _ := DecodeObservation(e)
				if o.TemperatureMin != nil && o.TemperatureMean != nil && o.TemperatureMax != nil {
					if *o.TemperatureMin > *o.TemperatureMean || *o.TemperatureMean > *o.TemperatureMax {
						return lifecycle.Reject(CodeObservationTempSkew,
							"temperatures must satisfy min <= mean <= max, got %.1f/%.1f/%.1f",
							*o.TemperatureMin, *o.TemperatureMean, *o.TemperatureMax)
					}
				}
				return nil
			},
		},
	)
}
