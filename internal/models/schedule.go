package models

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Schedule maps station name to Stop in route order: the oldest key is the
// origin and the newest key is the terminus.
type Schedule = orderedmap.OrderedMap[string, Stop]

// StationSchedule maps train id to that train's stop at one station.
type StationSchedule = orderedmap.OrderedMap[string, StationStop]

// TrainTable maps train id to schedule, in insertion order.
type TrainTable = orderedmap.OrderedMap[string, *Schedule]

// StationTable maps station name to its station schedule, in insertion order.
type StationTable = orderedmap.OrderedMap[string, *StationSchedule]

// TrainSummaries maps train id to its "origin to terminus" summary.
type TrainSummaries = orderedmap.OrderedMap[string, string]

func NewSchedule() *Schedule {
	return orderedmap.New[string, Stop]()
}

func NewStationSchedule() *StationSchedule {
	return orderedmap.New[string, StationStop]()
}

func NewTrainTable() *TrainTable {
	return orderedmap.New[string, *Schedule]()
}

func NewStationTable() *StationTable {
	return orderedmap.New[string, *StationSchedule]()
}

func NewTrainSummaries() *TrainSummaries {
	return orderedmap.New[string, string]()
}

// CloneSchedule returns a deep copy of s. A nil schedule clones to an empty one.
func CloneSchedule(s *Schedule) *Schedule {
	out := NewSchedule()
	if s == nil {
		return out
	}
	for pair := s.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value.clone())
	}
	return out
}

// CloneStationSchedule returns a deep copy of s.
func CloneStationSchedule(s *StationSchedule) *StationSchedule {
	out := NewStationSchedule()
	if s == nil {
		return out
	}
	for pair := s.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value.clone())
	}
	return out
}

// Endpoints returns the origin and terminus station of a schedule. ok is false
// for an empty schedule.
func Endpoints(s *Schedule) (origin, terminus string, ok bool) {
	if s == nil || s.Len() == 0 {
		return "", "", false
	}
	return s.Oldest().Key, s.Newest().Key, true
}

// StationIndex returns the position of station within the route, or -1.
func StationIndex(s *Schedule, station string) int {
	if s == nil {
		return -1
	}
	i := 0
	for pair := s.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == station {
			return i
		}
		i++
	}
	return -1
}

// StationNames lists the stations of a schedule in route order.
func StationNames(s *Schedule) []string {
	if s == nil {
		return []string{}
	}
	names := make([]string, 0, s.Len())
	for pair := s.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
