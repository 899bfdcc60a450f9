package models

import "slices"

type ConnectionOrigin struct {
	Station   string `json:"station"`
	Departure string `json:"departure"`
}

type ConnectionDestination struct {
	Station string `json:"station"`
	Arrival string `json:"arrival"`
}

// Connection is one search result: a train that calls at the origin before the
// destination.
type Connection struct {
	TrainID         string                `json:"train_id"`
	Origin          ConnectionOrigin      `json:"origin"`
	Destination     ConnectionDestination `json:"destination"`
	OperationalDays []string              `json:"operational_days"`
}

// NewConnection builds a search result. Operational days come from the origin stop.
func NewConnection(trainID, from string, fromStop Stop, to string, toStop Stop) Connection {
	return Connection{
		TrainID: trainID,
		Origin: ConnectionOrigin{
			Station:   from,
			Departure: fromStop.Departure,
		},
		Destination: ConnectionDestination{
			Station: to,
			Arrival: toStop.Arrival,
		},
		OperationalDays: slices.Clone(fromStop.Days),
	}
}
