package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	lifecycle "github.com/goliatone/go-lifecycle"
	"github.com/goliatone/go-lifecycle/machine"
	"github.com/goliatone/go-lifecycle/memory"
	"github.com/goliatone/go-lifecycle/petstore"
	"github.com/goliatone/go-lifecycle/report"
	"github.com/goliatone/go-lifecycle/schedule"
	"github.com/goliatone/go-lifecycle/weather"
)

var cli struct {
	Level string `help:"Log level." default:"info" enum:"trace,debug,info,warn,error"`

	Validate ValidateCmd `cmd:"" help:"Validate a machine definitions file."`
	Demo     DemoCmd     `cmd:"" help:"Run the pet store and report flows against an in-memory store."`
	Run      RunCmd      `cmd:"" help:"Start the scheduler with the weekly report job."`
}

type cliContext struct {
	logger lifecycle.Logger
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("lifecycle"),
		kong.Description("Entity lifecycle orchestration: criteria, processors and state machines."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cliContext{logger: newLogger(cli.Level)})
	ctx.FatalIfErrorf(err)
}

// ValidateCmd parses and structurally validates machine definitions.
type ValidateCmd struct {
	Path string `arg:"" help:"Path to a YAML or JSON definitions file." type:"existingfile"`
}

func (c *ValidateCmd) Run(cc *cliContext) error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("read definitions: %w", err)
	}
	set, err := machine.ParseDefinitions(data)
	if err != nil {
		return fmt.Errorf("invalid definitions: %w", err)
	}
	for _, def := range set.Machines {
		fmt.Printf("machine %-24s states=%d transitions=%d initial=%s\n",
			def.ID, len(def.States), len(def.Transitions), def.InitialState())
	}
	fmt.Printf("ok: %d machine(s)\n", len(set.Machines))
	return nil
}

// app wires the in-memory store, registries and every machine the module
// ships with.
type app struct {
	store *memory.Store
	set   *machine.Set
}

func buildApp(logger lifecycle.Logger) (*app, error) {
	store := memory.NewStore()
	set := machine.NewSet()
	criteria := machine.NewCriterionRegistry()
	processors := machine.NewProcessorRegistry()

	if err := petstore.Register(set, criteria, processors,
		petstore.Deps{Service: store, Logger: logger},
		petstore.NewClient(""),
	); err != nil {
		return nil, err
	}
	if err := report.Register(set, criteria, processors,
		report.Deps{Service: store, Logger: logger},
		&report.SimulatedMailer{Logger: logger},
		nil,
	); err != nil {
		return nil, err
	}
	if err := weather.Register(set, criteria, processors,
		weather.Deps{Service: store, Logger: logger},
		weather.NewClient(""),
	); err != nil {
		return nil, err
	}

	store.SetRouter(set)
	return &app{store: store, set: set}, nil
}

// DemoCmd drives a pet sale and a report dispatch end to end.
type DemoCmd struct{}

func (c *DemoCmd) Run(cc *cliContext) error {
	ctx := context.Background()
	a, err := buildApp(cc.logger)
	if err != nil {
		return err
	}

	pet := &lifecycle.Entity{Type: petstore.EntityTypePet, State: petstore.PetStateInitial}
	pet.Set("name", "Rex")
	pet.Set("status", "available")
	pet.Set("price", 250.0)
	pet.Set("adoption_status", petstore.AdoptionAvailable)
	pet.Set("health_status", petstore.HealthHealthy)
	if pet, err = a.store.Save(ctx, pet); err != nil {
		return err
	}
	if _, err := a.set.Apply(ctx, petstore.EntityTypePet, pet.ID, "activate", nil); err != nil {
		return err
	}

	order := &lifecycle.Entity{Type: petstore.EntityTypeOrder, State: petstore.OrderStateInitial}
	order.Set("petId", pet.ID)
	order.Set("quantity", 1)
	order.Set("unit_price", 250.0)
	if order, err = a.store.Save(ctx, order); err != nil {
		return err
	}
	for _, transition := range []string{"place", "approve", "process"} {
		result, err := a.set.Apply(ctx, petstore.EntityTypeOrder, order.ID, transition, nil)
		if err != nil {
			return err
		}
		fmt.Printf("order %s: %s -> %s\n", order.ID, result.PreviousState, result.CurrentState)
	}

	// Reserve the pet so delivery can complete the sale on its side.
	if _, err := a.set.Apply(ctx, petstore.EntityTypePet, pet.ID, "reserve", nil); err != nil {
		return err
	}
	result, err := a.set.Apply(ctx, petstore.EntityTypeOrder, order.ID, "deliver", nil)
	if err != nil {
		return err
	}
	fmt.Printf("order %s: %s -> %s\n", order.ID, result.PreviousState, result.CurrentState)
	if result.Outcome != nil {
		for _, attempt := range result.Outcome.Secondary {
			fmt.Printf("  secondary %s on %s/%s: err=%v\n",
				attempt.Transition, attempt.Target.Type, attempt.Target.ID, attempt.Err)
		}
	}

	for _, p := range []struct {
		name, category string
		price          float64
		sold, stock    int
	}{
		{"collar", "accessories", 12.5, 40, 3},
		{"kibble 10kg", "food", 55.0, 120, 64},
		{"chew toy", "toys", 8.0, 4, 30},
	} {
		product := &lifecycle.Entity{Type: report.EntityTypeProduct, State: "active"}
		product.Set("name", p.name)
		product.Set("category", p.category)
		product.Set("price", p.price)
		product.Set("units_sold", p.sold)
		product.Set("revenue", p.price*float64(p.sold))
		product.Set("stock", p.stock)
		if _, err := a.store.Save(ctx, product); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	rep := &lifecycle.Entity{Type: report.EntityTypeReport, State: report.ReportStateDraft}
	rep.Set("title", "Weekly Performance Report")
	rep.Set("report_period_start", now.AddDate(0, 0, -7).Format("2006-01-02"))
	rep.Set("report_period_end", now.Format("2006-01-02"))
	rep.Set("recipient", "ops@example.com")
	if rep, err = a.store.Save(ctx, rep); err != nil {
		return err
	}
	for _, transition := range []string{"generate", "render", "send"} {
		result, err := a.set.Apply(ctx, report.EntityTypeReport, rep.ID, transition, nil)
		if err != nil {
			return err
		}
		fmt.Printf("report %s: %s -> %s\n", rep.ID, result.PreviousState, result.CurrentState)
	}

	fmt.Println("demo complete")
	return nil
}

// RunCmd seeds a draft report and keeps regenerating it on a cron schedule
// until interrupted.
type RunCmd struct {
	Expression string `help:"Cron expression for the report job." default:"@weekly"`
	Recipient  string `help:"Report recipient address." default:"ops@example.com"`
}

func (c *RunCmd) Run(cc *cliContext) error {
	ctx := context.Background()
	a, err := buildApp(cc.logger)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	rep := &lifecycle.Entity{Type: report.EntityTypeReport, State: report.ReportStateDraft}
	rep.Set("title", "Weekly Performance Report")
	rep.Set("report_period_start", now.AddDate(0, 0, -7).Format("2006-01-02"))
	rep.Set("report_period_end", now.Format("2006-01-02"))
	rep.Set("recipient", c.Recipient)
	if rep, err = a.store.Save(ctx, rep); err != nil {
		return err
	}

	scheduler := schedule.NewScheduler(a.set, schedule.WithLogger(cc.logger))
	_, err = scheduler.Schedule(schedule.Job{
		Expression: c.Expression,
		EntityType: report.EntityTypeReport,
		EntityID:   rep.ID,
		Transition: "generate",
		MaxRetries: 2,
		Timeout:    time.Minute,
	})
	if err != nil {
		return err
	}
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	cc.logger.Info("scheduler started, report %s generates on %q", rep.ID, c.Expression)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return scheduler.Stop(ctx)
}
