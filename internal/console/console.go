package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"renewable-monitor/internal/analytics/domain/statistic"
	"renewable-monitor/internal/analytics/domain/temporal"
	"renewable-monitor/internal/analytics/domain/transform"
	readings "renewable-monitor/internal/readings/domain"
	sessionapp "renewable-monitor/internal/session/application"
)

const (
	dateLayout      = "2006-01-02"
	previewLimit    = 10
	defaultLookback = 24 * time.Hour
)

const menu = `
Renewable Energy Monitor
 1) Fetch data
 2) Statistics
 3) Filter by time
 4) Transform values
 5) Check alerts
 6) Update storage
 7) Storage status
 8) Simulate storage
 9) Toggle source
10) Save data
11) Load data
12) Export report
13) Save snapshot
14) Restore snapshot
15) Storage history
 0) Quit`

// Console is the interactive text menu. It owns the session state and
// replaces it with the value returned by each operation.
type Console struct {
	svc   *sessionapp.Service
	in    *bufio.Scanner
	out   io.Writer
	state readings.AppState
	now   func() time.Time
}

// New constructs a console reading commands from in.
func New(svc *sessionapp.Service, state readings.AppState, in io.Reader, out io.Writer) *Console {
	return &Console{
		svc:   svc,
		in:    bufio.NewScanner(in),
		out:   out,
		state: state,
		now:   time.Now,
	}
}

// State returns the current session state.
func (c *Console) State() readings.AppState {
	return c.state
}

// Run shows the menu until the user quits, input ends or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintln(c.out, menu)
		choice, ok := c.prompt("Select option")
		if !ok {
			return c.in.Err()
		}
		if choice == "0" || strings.EqualFold(choice, "q") {
			fmt.Fprintln(c.out, "Goodbye.")
			return nil
		}
		if err := c.dispatch(ctx, choice); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}
}

func (c *Console) dispatch(ctx context.Context, choice string) error {
	switch choice {
	case "1":
		return c.fetch(ctx)
	case "2":
		return c.statistics()
	case "3":
		return c.filter()
	case "4":
		return c.transform()
	case "5":
		return c.alerts(ctx)
	case "6":
		return c.updateStorage()
	case "7":
		c.storageStatus()
		return nil
	case "8":
		return c.simulate()
	case "9":
		return c.toggle()
	case "10":
		return c.save()
	case "11":
		return c.load()
	case "12":
		return c.export()
	case "13":
		return c.snapshot(ctx)
	case "14":
		return c.restore(ctx)
	case "15":
		return c.history()
	default:
		fmt.Fprintf(c.out, "Unknown option %q\n", choice)
		return nil
	}
}

func (c *Console) prompt(label string) (string, bool) {
	fmt.Fprintf(c.out, "%s: ", label)
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

func (c *Console) ask(label string) (string, error) {
	value, ok := c.prompt(label)
	if !ok {
		return "", io.EOF
	}
	return value, nil
}

func (c *Console) askFloat(label string, fallback float64) (float64, error) {
	value, err := c.ask(label)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", value)
	}
	return parsed, nil
}

func (c *Console) askOptionalFloat(label string) (*float64, error) {
	value, err := c.ask(label)
	if err != nil || value == "" {
		return nil, err
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", value)
	}
	return transform.Bound(parsed), nil
}

func (c *Console) askSource(label string) (readings.Source, error) {
	value, err := c.ask(label)
	if err != nil || value == "" {
		return "", err
	}
	return readings.ParseSource(value)
}

func (c *Console) askDate(label string, fallback time.Time) (time.Time, error) {
	value, err := c.ask(label)
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return fallback, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", value)
	}
	return t, nil
}

func (c *Console) fetch(ctx context.Context) error {
	value, err := c.ask("Sources (comma separated, blank for enabled)")
	if err != nil {
		return err
	}
	var sources []readings.Source
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		source, err := readings.ParseSource(part)
		if err != nil {
			return err
		}
		sources = append(sources, source)
	}
	now := c.now()
	start, err := c.askDate("Start date (blank for last 24h)", now.Add(-defaultLookback))
	if err != nil {
		return err
	}
	end, err := c.askDate("End date (blank for now)", now)
	if err != nil {
		return err
	}
	next, result, err := c.svc.Fetch(ctx, c.state, sources, start, end)
	c.state = next
	fmt.Fprintf(c.out, "Fetched %d readings (%d total).\n", result.Fetched, result.Total)
	return err
}

func (c *Console) printSummary(title string, s statistic.Summary) {
	fmt.Fprintf(c.out, "%s (%d readings)\n", title, s.Count)
	fmt.Fprintf(c.out, "  Mean: %s  Median: %s  Mode: %s\n", s.Mean, s.Median, s.Mode)
	fmt.Fprintf(c.out, "  Range: %s  Midrange: %s  Min: %s  Max: %s\n", s.Range, s.Midrange, s.Min, s.Max)
}

func (c *Console) statistics() error {
	source, err := c.askSource("Source (blank for each)")
	if err != nil {
		return err
	}
	if source == "" {
		summaries := c.svc.SourceStatistics(c.state)
		for _, s := range readings.AllSources() {
			c.printSummary(s.Label(), summaries[s])
		}
		return nil
	}
	res, err := c.svc.Statistics(c.state, sessionapp.Query{Source: source})
	if err != nil {
		return err
	}
	c.printSummary(source.Label(), res.Summary)
	return nil
}

func (c *Console) filter() error {
	value, err := c.ask("Field (hour, day, week, month)")
	if err != nil {
		return err
	}
	field, err := temporal.ParseField(value)
	if err != nil {
		return err
	}
	lo, hi := field.Bounds()
	value, err = c.ask(fmt.Sprintf("Value (%d-%d, blank for all)", lo, hi))
	if err != nil {
		return err
	}
	if value == "" {
		buckets, err := c.svc.Partition(c.state, field)
		if err != nil {
			return err
		}
		for _, b := range buckets {
			fmt.Fprintf(c.out, "%s %d: %d readings, mean %s\n", field, b.Key, b.Summary.Count, b.Summary.Mean)
		}
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q", field, value)
	}
	res, err := c.svc.Statistics(c.state, sessionapp.Query{Field: field, Value: n})
	if err != nil {
		return err
	}
	c.printSummary(fmt.Sprintf("%s %d", field, n), res.Summary)
	c.preview(res.Matched)
	return nil
}

func (c *Console) preview(rs []readings.Reading) {
	for i, r := range rs {
		if i == previewLimit {
			fmt.Fprintf(c.out, "  ... %d more\n", len(rs)-previewLimit)
			return
		}
		fmt.Fprintf(c.out, "  %s %-5s %10.2f %-6s %s\n", r.Timestamp.Format(time.RFC3339), r.Source, r.Output, r.Status, r.Location)
	}
}

func (c *Console) transform() error {
	value, err := c.ask("Transform (scale, convert, normalize, threshold)")
	if err != nil {
		return err
	}
	op := sessionapp.TransformOp{Kind: sessionapp.TransformKind(strings.ToLower(value))}
	switch op.Kind {
	case sessionapp.TransformScale:
		if op.Factor, err = c.askFloat("Factor", 1); err != nil {
			return err
		}
	case sessionapp.TransformConvert:
		from, err := c.ask("From unit")
		if err != nil {
			return err
		}
		to, err := c.ask("To unit")
		if err != nil {
			return err
		}
		var ok bool
		if op.From, ok = transform.ParseUnit(from); !ok {
			return fmt.Errorf("unknown unit %q", from)
		}
		if op.To, ok = transform.ParseUnit(to); !ok {
			return fmt.Errorf("unknown unit %q", to)
		}
	case sessionapp.TransformThreshold:
		if op.Lower, err = c.askOptionalFloat("Lower bound (blank for none)"); err != nil {
			return err
		}
		if op.Upper, err = c.askOptionalFloat("Upper bound (blank for none)"); err != nil {
			return err
		}
	}
	rs, err := c.svc.Transform(c.state, op)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Transformed %d readings.\n", len(rs))
	c.preview(rs)
	return nil
}

func (c *Console) alerts(ctx context.Context) error {
	alerts, err := c.svc.Alerts(ctx, c.state)
	if len(alerts) == 0 {
		fmt.Fprintln(c.out, "No alerts.")
	}
	for _, alert := range alerts {
		fmt.Fprintf(c.out, "[%s] %s: %s\n", alert.Kind, alert.Source.Label(), alert.Message)
	}
	return err
}

func (c *Console) updateStorage() error {
	hours, err := c.askFloat("Hours", 1)
	if err != nil {
		return err
	}
	c.state = c.svc.UpdateStorage(c.state, hours)
	c.storageStatus()
	return nil
}

func formatHours(h float64) string {
	if math.IsInf(h, 1) {
		return "unlimited"
	}
	return fmt.Sprintf("%.1fh", h)
}

func (c *Console) storageStatus() {
	rep := c.svc.StorageReport(c.state)
	fmt.Fprintf(c.out, "Storage: %.2f / %.2f MWh (%.1f%%) %s, runway %s\n",
		rep.Level, rep.Capacity, rep.Percent, rep.Status, formatHours(rep.RemainingHours))
	for _, source := range readings.AllSources() {
		state := "off"
		if c.state.IsOn(source) {
			state = "on"
		}
		fmt.Fprintf(c.out, "  %s: %s\n", source.Label(), state)
	}
}

func (c *Console) simulate() error {
	hours, err := c.askFloat("Hours", 1)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, c.svc.Simulate(c.state, hours).Summary)
	return nil
}

func (c *Console) toggle() error {
	source, err := c.askSource("Source (solar, wind, hydro)")
	if err != nil {
		return err
	}
	next, err := c.svc.Toggle(c.state, source)
	if err != nil {
		return err
	}
	c.state = next
	c.storageStatus()
	return nil
}

func (c *Console) save() error {
	path, err := c.ask("File (blank for default)")
	if err != nil {
		return err
	}
	if err := c.svc.Save(c.state, path); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Saved %d readings.\n", len(c.state.Readings))
	return nil
}

func (c *Console) load() error {
	path, err := c.ask("File (blank for default)")
	if err != nil {
		return err
	}
	next, err := c.svc.Load(c.state, path)
	if err != nil {
		return err
	}
	c.state = next
	fmt.Fprintf(c.out, "Loaded %d readings.\n", len(c.state.Readings))
	return nil
}

func (c *Console) export() error {
	path, err := c.ask("Report file (.xlsx or .pdf)")
	if err != nil {
		return err
	}
	if err := c.svc.Export(c.state, path); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Report written to %s.\n", path)
	return nil
}

func (c *Console) snapshot(ctx context.Context) error {
	snap, err := c.svc.Snapshot(ctx, c.state)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Snapshot %s saved (%d readings).\n", snap.ID, snap.Count)
	return nil
}

func (c *Console) restore(ctx context.Context) error {
	if c.svc.SnapshotsEnabled() {
		list, err := c.svc.Snapshots(ctx, 5)
		if err != nil {
			return err
		}
		for _, snap := range list {
			fmt.Fprintf(c.out, "  %s %s (%d readings)\n", snap.ID, snap.CreatedAt.Format(time.RFC3339), snap.Count)
		}
	}
	value, err := c.ask("Snapshot id (blank for latest)")
	if err != nil {
		return err
	}
	id := uuid.Nil
	if value != "" {
		if id, err = uuid.Parse(value); err != nil {
			return fmt.Errorf("invalid snapshot id %q", value)
		}
	}
	next, err := c.svc.Restore(ctx, c.state, id)
	if err != nil {
		return err
	}
	c.state = next
	fmt.Fprintf(c.out, "Restored %d readings.\n", len(c.state.Readings))
	return nil
}

func (c *Console) history() error {
	initial, err := c.askFloat("Initial level (blank for current)", c.state.StorageLevel)
	if err != nil {
		return err
	}
	hours, err := c.askFloat("Step hours", 1)
	if err != nil {
		return err
	}
	steps, err := c.svc.History(c.state, initial, time.Duration(hours*float64(time.Hour)))
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		fmt.Fprintln(c.out, "No readings.")
	}
	for _, step := range steps {
		fmt.Fprintf(c.out, "  %s %10.2f -> %10.2f %s\n", step.End.Format(time.RFC3339), step.Before, step.After, step.Status)
	}
	return nil
}
