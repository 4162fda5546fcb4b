package weather

import (
	"context"
	"time"

	lifecycle "github.com/goliatone/go-lifecycle"
	"github.com/goliatone/go-lifecycle/machine"
)

// ObservationSource is the slice of the GeoMet client the ingest
// processor consumes.
type ObservationSource interface {
	DailyObservations(ctx context.Context, stationID, from, to string) ([]Observation, error)
}

// Deps bundles the collaborators shared by the weather processors.
type Deps struct {
	Service lifecycle.EntityService
	Logger  lifecycle.Logger
	Clock   func() time.Time
}

func (d *Deps) normalize() {
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC() }
	}
	d.Logger = lifecycle.NormalizeLogger(d.Logger)
}

// IngestObservationsProcessor activates a station by pulling its recent
// daily observations and saving them as weather_data entities. A GeoMet
// failure falls back to a single mock observation; ingest is never on the
// critical path of station activation.
type IngestObservationsProcessor struct {
	deps   Deps
	source ObservationSource
}

// NewIngestObservationsProcessor wires the processor.
func NewIngestObservationsProcessor(deps Deps, source ObservationSource) *IngestObservationsProcessor {
	deps.normalize()
	return &IngestObservationsProcessor{deps: deps, source: source}
}

func (p *IngestObservationsProcessor) Name() string { return "ingest_observations" }

func (p *IngestObservationsProcessor) Process(ctx context.Context, e *lifecycle.Entity, params lifecycle.Params) (*lifecycle.Entity, *lifecycle.Outcome, error) {
	logger := p.deps.Logger.WithContext(ctx)

	station, err := DecodeStation(e)
	if err != nil {
		return nil, nil, err
	}

	now := p.deps.Clock()
	from := params.String("from")
	to := params.String("to")
	if from == "" {
		from = now.AddDate(0, 0, -7).Format("2006-01-02")
	}
	if to == "" {
		to = now.Format("2006-01-02")
	}

	var observations []Observation
	if p.source != nil {
		observations, err = p.source.DailyObservations(ctx, station.StationID, from, to)
		if err != nil {
			logger.Warn("geomet fetch for station %s failed, using mock data: %v", station.StationID, err)
			observations = nil
		}
	}
	if len(observations) == 0 {
		observations = mockObservations(station.StationID, now)
	}

	saved := 0
	for _, obs := range observations {
		obs.IngestedAt = now.Format(time.RFC3339)
		entity := &lifecycle.Entity{
			Type:  EntityTypeObservation,
			State: ObservationStateReceived,
		}
		if err := lifecycle.Encode(entity, obs); err != nil {
			logger.Warn("encode observation for %s failed: %v", station.StationID, err)
			continue
		}
		if _, err := p.deps.Service.Save(ctx, entity); err != nil {
			logger.Warn("save observation for %s failed: %v", station.StationID, err)
			continue
		}
		saved++
	}

	e.SetTime("last_ingested_at", now)
	e.Set("last_ingest_count", saved)
	logger.Info("station %s ingested %d observations (%s to %s)", station.StationID, saved, from, to)
	return e, nil, nil
}

func mockObservations(stationID string, now time.Time) []Observation {
	tmin, tmean, tmax := 5.0, 10.0, 15.0
	humidity := 60.0
	return []Observation{
		{
			StationID:       stationID,
			Date:            now.Format("2006-01-02"),
			TemperatureMin:  &tmin,
			TemperatureMean: &tmean,
			TemperatureMax:  &tmax,
			Humidity:        &humidity,
			Source:          "mock",
		},
	}
}

// StationDefinition declares the station state machine.
func StationDefinition() machine.Definition {
	return machine.Definition{
		ID:      EntityTypeStation,
		Version: "v1",
		States: []machine.StateDef{
			{Name: StationStateRegistered, Initial: true},
			{Name: StationStateActive},
			{Name: StationStateRetired, Terminal: true},
		},
		Transitions: []machine.TransitionDef{
			{
				Name:      "activate",
				From:      []string{StationStateRegistered},
				To:        StationStateActive,
				Criteria:  []string{"weather_station"},
				Processor: "ingest_observations",
			},
			{
				Name:      "ingest",
				From:      []string{StationStateActive},
				To:        StationStateActive,
				Criteria:  []string{"weather_station"},
				Processor: "ingest_observations",
			},
			{
				Name: "retire",
				From: []string{StationStateRegistered, StationStateActive},
				To:   StationStateRetired,
			},
		},
	}
}

// ObservationDefinition declares the observation state machine.
func ObservationDefinition() machine.Definition {
	return machine.Definition{
		ID:      EntityTypeObservation,
		Version: "v1",
		States: []machine.StateDef{
			{Name: ObservationStateReceived, Initial: true},
			{Name: ObservationStateValidated, Terminal: true},
			{Name: ObservationStateRejected, Terminal: true},
		},
		Transitions: []machine.TransitionDef{
			{
				Name:     "validate",
				From:     []string{ObservationStateReceived},
				To:       ObservationStateValidated,
				Criteria: []string{"weather_data"},
			},
			{
				Name: "reject",
				From: []string{ObservationStateReceived},
				To:   ObservationStateRejected,
			},
		},
	}
}

// Register wires the weather criteria and processors into the registries
// and compiles both machines into the set.
func Register(
	set *machine.Set,
	criteria *machine.CriterionRegistry,
	processors *machine.ProcessorRegistry,
	deps Deps,
	source ObservationSource,
) error {
	deps.normalize()

	for name, c := range map[string]lifecycle.Criterion{
		"weather_station": NewStationCriterion(deps.Logger),
		"weather_data":    NewObservationCriterion(deps.Logger),
	} {
		if err := criteria.Register(name, c); err != nil {
			return err
		}
	}
	if err := processors.Register("ingest_observations", NewIngestObservationsProcessor(deps, source)); err != nil {
		return err
	}

	for _, def := range []machine.Definition{StationDefinition(), ObservationDefinition()} {
		m, err := machine.Compile(def, criteria, processors, deps.Service, machine.WithLogger(deps.Logger))
		if err != nil {
			return err
		}
		set.Add(m)
	}
	return nil
}
