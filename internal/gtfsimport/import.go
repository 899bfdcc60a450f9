// Package gtfsimport turns a static GTFS feed into trains and adds them to the
// store. Each scheduled trip becomes one train keyed by its trip id.
package gtfsimport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/OneBusAway/go-gtfs"
	"railbook.dev/railbook/internal/logging"
	"railbook.dev/railbook/internal/models"
	"railbook.dev/railbook/internal/store"
)

var weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ImportFile parses the GTFS zip at path and adds every trip that is not
// already a train.
func ImportFile(ctx context.Context, path string, s *store.Store, logger *slog.Logger) (store.BatchResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "gtfs_import"))

	b, err := os.ReadFile(path)
	if err != nil {
		return store.BatchResult{}, fmt.Errorf("error reading GTFS file: %w", err)
	}

	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return store.BatchResult{}, fmt.Errorf("error parsing GTFS data: %w", err)
	}

	trains := Trains(staticData)
	result, err := s.AddTrains(ctx, trains)
	if err != nil {
		return result, err
	}

	logging.LogOperation(logger, "gtfs_import_completed",
		slog.String("path", path),
		slog.Int("trips", len(staticData.Trips)),
		slog.Int("added", len(result.Added)),
		slog.Int("skipped", len(result.Skipped)))

	return result, nil
}

// Trains converts every trip with at least one stop time. Trips are returned
// in feed order.
func Trains(staticData *gtfs.Static) []models.Train {
	trains := make([]models.Train, 0, len(staticData.Trips))
	for i := range staticData.Trips {
		trip := &staticData.Trips[i]
		if len(trip.StopTimes) == 0 {
			continue
		}
		trains = append(trains, models.Train{
			TrainID:  trip.ID,
			Schedule: tripSchedule(trip),
		})
	}
	return trains
}

func tripSchedule(trip *gtfs.ScheduledTrip) *models.Schedule {
	stopTimes := make([]gtfs.ScheduledStopTime, len(trip.StopTimes))
	copy(stopTimes, trip.StopTimes)
	sort.SliceStable(stopTimes, func(i, j int) bool {
		return stopTimes[i].StopSequence < stopTimes[j].StopSequence
	})

	days := serviceDays(trip.Service)
	first := firstServiceDay(trip.Service)

	schedule := models.NewSchedule()
	for _, st := range stopTimes {
		name := stationName(st.Stop)
		if name == "" {
			continue
		}
		// A trip that visits a station twice keeps its first call.
		if _, seen := schedule.Get(name); seen {
			continue
		}

		stop := models.Stop{
			Arrival:   clockTime(st.ArrivalTime),
			Departure: clockTime(st.DepartureTime),
			Days:      append([]string(nil), days...),
		}
		if first >= 0 {
			stop.Day = weekdays[(first+dayOffset(st.DepartureTime))%len(weekdays)]
		}
		schedule.Set(name, stop)
	}
	return schedule
}

func stationName(stop *gtfs.Stop) string {
	if stop == nil {
		return ""
	}
	if stop.Name != "" {
		return stop.Name
	}
	return stop.Id
}

// clockTime formats a time since service midnight as HH:MM. Times past
// midnight wrap around.
func clockTime(d time.Duration) string {
	minutes := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", (minutes/60)%24, minutes%60)
}

func dayOffset(d time.Duration) int {
	return int(d / (24 * time.Hour))
}

func serviceDays(service *gtfs.Service) []string {
	days := []string{}
	if service == nil {
		return days
	}
	for i, runs := range weekdayFlags(service) {
		if runs {
			days = append(days, weekdays[i])
		}
	}
	return days
}

func firstServiceDay(service *gtfs.Service) int {
	if service == nil {
		return -1
	}
	for i, runs := range weekdayFlags(service) {
		if runs {
			return i
		}
	}
	return -1
}

func weekdayFlags(service *gtfs.Service) [7]bool {
	return [7]bool{
		service.Monday,
		service.Tuesday,
		service.Wednesday,
		service.Thursday,
		service.Friday,
		service.Saturday,
		service.Sunday,
	}
}
