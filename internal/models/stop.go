package models

import (
	"fmt"
	"slices"

	"github.com/jinzhu/copier"
)

// Stop is one train's timing at one station as recorded in the train's schedule.
// Times and weekday names are opaque strings.
type Stop struct {
	Arrival   string   `json:"arrival"`
	Departure string   `json:"departure"`
	Day       string   `json:"day"`
	Days      []string `json:"days"`
}

// StationStop is the reduced copy of a Stop kept in the station index. It has no Day.
type StationStop struct {
	Arrival   string   `json:"arrival"`
	Departure string   `json:"departure"`
	Days      []string `json:"days"`
}

// NewStationStop projects a train stop onto the station index record.
func NewStationStop(stop Stop) (StationStop, error) {
	var stationStop StationStop
	if err := copier.CopyWithOption(&stationStop, &stop, copier.Option{DeepCopy: true}); err != nil {
		return StationStop{}, fmt.Errorf("projecting stop onto station record: %w", err)
	}
	return stationStop, nil
}

func (s Stop) clone() Stop {
	s.Days = slices.Clone(s.Days)
	return s
}

func (s StationStop) clone() StationStop {
	s.Days = slices.Clone(s.Days)
	return s
}
