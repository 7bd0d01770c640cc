// Command genmock generates the sample NOTAM fixture used by the pipeline and
// integration tests, and can publish the same notices to the source topic for
// a local end-to-end run. Coordinates and dates are encoded with the domain
// package so the fixture always matches what the parser accepts.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/notams.json
//	go run ./cmd/genmock -base 2025-01-12 -kafka localhost:9092 -topic raw-notams
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// mockNotice is one fixture entry.
type mockNotice struct {
	Key    string `json:"key"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// sample describes a notice in decoded form. A zero radius omits the area
// from the Q) line; a zero validFor means PERM.
type sample struct {
	number   int
	codes    string
	scope    string
	purpose  string
	upper    int
	lat, lon float64
	radius   int
	location string
	validFor time.Duration
	body     string // {point} expands to the encoded center
}

var samples = []sample{
	{
		number: 123, codes: "QRTCA", purpose: "NBO", scope: "W", upper: 120,
		lat: dm(35, 41), lon: dm(51, 24), radius: 25, location: "OIII",
		validFor: 3*24*time.Hour - time.Minute,
		body: "TEMPORARY RESTRICTED AREA ACTIVATED DUE TO VIP MOVEMENT.\n" +
			"AREA: 25NM RADIUS CENTERED ON {point} (TEHRAN MEHRABAD).\n" +
			"ALTITUDES: SFC TO FL120.",
	},
	{
		number: 124, codes: "QRDCA", purpose: "BO", scope: "W", upper: 150,
		lat: dm(36, 29), lon: dm(46, 11), radius: 15, location: "OITT",
		validFor: 4*24*time.Hour - time.Minute,
		body: "DANGER AREA D-IR-1 ACTIVATED.\n" +
			"MILITARY EXERCISES IN PROGRESS.\n" +
			"AREA: 15NM RADIUS CENTERED ON TABRIZ.",
	},
	{
		number: 125, codes: "QFALC", purpose: "NBO", scope: "A", upper: 999,
		lat: dm(32, 39), lon: dm(52, 40), radius: 5, location: "OIFM",
		validFor: 2*24*time.Hour - time.Minute,
		body:     "ESFAHAN SHAHID BEHESHTI INTL AIRPORT CLOSED FOR RUNWAY MAINTENANCE.",
	},
	{
		number: 126, codes: "QWPLW", purpose: "NBO", scope: "W", upper: 200,
		lat: dm(29, 58), lon: dm(52, 34), radius: 20, location: "OISS",
		validFor: 3*24*time.Hour - time.Minute,
		body: "WARNING AREA ACTIVATED OVER SHIRAZ REGION.\n" +
			"UNMANNED AIRCRAFT OPERATIONS IN PROGRESS.\n" +
			"AREA: 20NM RADIUS CENTERED ON SHIRAZ.",
	},
	{
		number: 127, codes: "QRTCA", purpose: "NBO", scope: "W", upper: 100,
		lat: dm(36, 26), lon: dm(59, 25), radius: 10, location: "OIMM",
		body: "PERMANENT RESTRICTED AREA OVER MASHHAD HOLY SHRINE.\n" +
			"NO OVERFLIGHT PERMITTED BELOW FL100.",
	},
}

// noCoordinates has no area in its Q) line and no point in its body.
var noCoordinates = sample{
	number: 128, codes: "QNMAS", purpose: "BO", scope: "AE", upper: 999,
	location: "OIKB", validFor: 2*24*time.Hour - time.Minute,
	body: "VOR KIS UNSERVICEABLE.",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	base := flag.String("base", "2025-01-12", "start date of every notice (YYYY-MM-DD, UTC)")
	out := flag.String("out", "", "output path for the JSON fixture")
	brokers := flag.String("kafka", "", "comma-separated brokers to publish to instead of writing a file")
	topic := flag.String("topic", "raw-notams", "source topic used with -kafka")
	source := flag.String("source", domain.DefaultSourceName, "source header value")
	invalid := flag.Bool("invalid", true, "include a notice without coordinates")
	flag.Parse()

	if *out == "" && *brokers == "" {
		flag.Usage()
		return fmt.Errorf("one of -out or -kafka is required")
	}

	start, err := time.Parse(time.DateOnly, *base)
	if err != nil {
		return fmt.Errorf("invalid -base: %w", err)
	}

	notices := generate(start, *source, *invalid)
	log.Printf("generated %d notices starting %s", len(notices), start.Format(time.DateOnly))

	if *out != "" {
		if err := writeJSON(*out, notices); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		log.Printf("wrote fixture: %s", *out)
	}
	if *brokers != "" {
		if err := publish(strings.Split(*brokers, ","), *topic, notices); err != nil {
			return fmt.Errorf("publishing: %w", err)
		}
		log.Printf("published %d notices to %s", len(notices), *topic)
	}
	return nil
}

func generate(start time.Time, source string, withInvalid bool) []mockNotice {
	all := samples
	if withInvalid {
		all = append(append([]sample(nil), samples...), noCoordinates)
	}

	notices := make([]mockNotice, 0, len(all))
	for _, s := range all {
		id := fmt.Sprintf("A%04d/%02d", s.number, start.Year()%100)
		notices = append(notices, mockNotice{
			Key:    id,
			Source: source,
			Text:   s.render(id, start),
		})
	}
	return notices
}

func (s sample) render(id string, start time.Time) string {
	point := domain.FormatICAOPoint(s.lat, s.lon)

	qline := fmt.Sprintf("OIIX/%s/IV/%s/%s/000/%03d", s.codes, s.purpose, s.scope, s.upper)
	if s.radius > 0 {
		qline += fmt.Sprintf("/%s%03d", point, s.radius)
	}

	end := "PERM"
	if s.validFor > 0 {
		end = domain.FormatNoticeTime(start.Add(s.validFor))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s NOTAMN\n", id)
	fmt.Fprintf(&b, "Q) %s\n", qline)
	fmt.Fprintf(&b, "A) %s\n", s.location)
	fmt.Fprintf(&b, "B) %s\n", domain.FormatNoticeTime(start))
	fmt.Fprintf(&b, "C) %s\n", end)
	fmt.Fprintf(&b, "E) %s", strings.ReplaceAll(s.body, "{point}", point))
	return b.String()
}

func publish(brokers []string, topic string, notices []mockNotice) error {
	w := &kafkago.Writer{
		Addr:     kafkago.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafkago.Hash{},
	}
	defer w.Close() //nolint:errcheck // best-effort close after writes

	msgs := make([]kafkago.Message, 0, len(notices))
	for _, n := range notices {
		msgs = append(msgs, kafkago.Message{
			Key:     []byte(n.Key),
			Value:   []byte(n.Text),
			Headers: []kafkago.Header{{Key: "source", Value: []byte(n.Source)}},
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return w.WriteMessages(ctx, msgs...)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// dm converts whole degrees and minutes to decimal degrees.
func dm(deg, mins int) float64 {
	return float64(deg) + float64(mins)/60
}
