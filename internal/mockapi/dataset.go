// Package mockapi generates a deterministic synthetic trip dataset and serves the
// statistics API over it.
package mockapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
)

// GeneratorConfig controls the synthetic month.
type GeneratorConfig struct {
	Seed  int64
	Trips int
	// Scale is how many real trips one synthetic trip stands for.
	Scale int
}

// DefaultConfig yields 7,500,000 scaled trips.
var DefaultConfig = GeneratorConfig{Seed: 2019, Trips: 20000, Scale: 375}

// ZoneDef is one taxi zone of the synthetic boundary document.
type ZoneDef struct {
	ID      int
	Name    string
	Borough string
	Weight  float64
	// Lon, Lat is the south-west corner of the zone square.
	Lon, Lat float64
}

// Zones is a subset of the real taxi zone table.
var Zones = []ZoneDef{
	{1, "Newark Airport", "EWR", 0.3, -74.18, 40.68},
	{7, "Astoria", "Queens", 2.5, -73.93, 40.76},
	{41, "Central Harlem", "Manhattan", 3, -73.95, 40.80},
	{74, "East Harlem North", "Manhattan", 2.5, -73.94, 40.79},
	{75, "East Harlem South", "Manhattan", 2.5, -73.945, 40.785},
	{87, "Financial District North", "Manhattan", 4, -74.01, 40.70},
	{94, "Fordham South", "Bronx", 1, -73.90, 40.85},
	{132, "JFK Airport", "Queens", 3, -73.79, 40.64},
	{138, "LaGuardia Airport", "Queens", 3, -73.87, 40.77},
	{161, "Midtown Center", "Manhattan", 10, -73.98, 40.75},
	{168, "Mott Haven/Port Morris", "Bronx", 1, -73.92, 40.80},
	{190, "Prospect Park", "Brooklyn", 0.5, -73.97, 40.66},
	{206, "Saint George/New Brighton", "Staten Island", 0.2, -74.08, 40.64},
	{237, "Upper East Side South", "Manhattan", 9, -73.965, 40.765},
	{255, "Williamsburg (North Side)", "Brooklyn", 2, -73.96, 40.715},
}

// zoneSize is the side of each zone square in degrees.
const zoneSize = 0.008

// Trip is one synthetic pickup.
type Trip struct {
	Zone       int
	Day        int
	Hour       int
	Fare       float64
	Tip        float64
	Distance   float64
	Duration   float64
	Passengers int
}

// Dataset is the generated month.
type Dataset struct {
	Config GeneratorConfig
	Trips  []Trip
	zones  map[int]ZoneDef
}

// hourWeights peak at the morning and evening rush.
var hourWeights = [24]float64{
	2, 1.5, 1, 0.7, 0.6, 0.8, 2, 4, 5.5, 5,
	4, 4, 4.2, 4.3, 4.5, 4.8, 5.2, 5.8, 6.5, 6.2,
	5.5, 5, 4.4, 3.3,
}

// Generate builds a dataset. The same config always yields the same trips.
func Generate(cfg GeneratorConfig) *Dataset {
	if cfg.Trips <= 0 {
		cfg.Trips = DefaultConfig.Trips
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	ds := &Dataset{Config: cfg, zones: make(map[int]ZoneDef, len(Zones))}
	for _, z := range Zones {
		ds.zones[z.ID] = z
	}

	zonePick := cumulative(len(Zones), func(i int) float64 { return Zones[i].Weight })
	hourPick := cumulative(24, func(i int) float64 { return hourWeights[i] })

	ds.Trips = make([]Trip, 0, cfg.Trips)
	for i := 0; i < cfg.Trips; i++ {
		z := Zones[pick(rng, zonePick)]

		// Distances are roughly exponential with a 3 mile mean; airports run long.
		dist := 0.3 + rng.ExpFloat64()*2.7
		if z.Borough == "EWR" || z.ID == 132 || z.ID == 138 {
			dist += 8 + rng.Float64()*10
		}
		dist = math.Min(round(dist, 2), 49.5)

		fare := 2.5 + 2.5*dist + rng.Float64()*4
		if rng.Float64() < 0.005 {
			fare += 60 + rng.Float64()*120
		}
		fare = math.Min(round(fare, 2), 250)

		speed := 8 + rng.Float64()*14
		ds.Trips = append(ds.Trips, Trip{
			Zone:       z.ID,
			Day:        1 + rng.Intn(31),
			Hour:       pick(rng, hourPick),
			Fare:       fare,
			Tip:        round(fare*rng.Float64()*0.25, 2),
			Distance:   dist,
			Duration:   round(dist/speed*60+2, 2),
			Passengers: 1 + int(math.Min(5, rng.ExpFloat64())),
		})
	}
	return ds
}

func cumulative(n int, weight func(int) float64) []float64 {
	out := make([]float64, n)
	total := 0.0
	for i := range out {
		total += weight(i)
		out[i] = total
	}
	return out
}

func pick(rng *rand.Rand, cum []float64) int {
	x := rng.Float64() * cum[len(cum)-1]
	for i, c := range cum {
		if x < c {
			return i
		}
	}
	return len(cum) - 1
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Zone returns the zone a trip was picked up in.
func (d *Dataset) Zone(id int) (ZoneDef, bool) {
	z, ok := d.zones[id]
	return z, ok
}

// Date returns the ISO date of a day of January 2019.
func Date(day int) string {
	return fmt.Sprintf("2019-01-%02d", day)
}

// Save writes the trips as JSON lines and the boundary document to outDir.
func Save(outDir string, ds *Dataset) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(outDir, fmt.Sprintf("trips_%d.jsonl", ds.Config.Seed)))
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, t := range ds.Trips {
		if err := enc.Encode(t); err != nil {
			return fmt.Errorf("failed to write trip: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fw, err := os.Create(filepath.Join(outDir, "zones.geojson"))
	if err != nil {
		return err
	}
	defer fw.Close()

	encW := json.NewEncoder(fw)
	encW.SetIndent("", "  ")
	return encW.Encode(Boundaries())
}
