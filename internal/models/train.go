package models

import orderedmap "github.com/wk8/go-ordered-map/v2"

// Train is a train id with its full schedule.
type Train struct {
	TrainID  string    `json:"train_id"`
	Schedule *Schedule `json:"schedule"`
}

// StopRequest is one schedule entry of a POST /trains body. Pointer fields
// separate a missing key from an empty string, which is a valid value.
type StopRequest struct {
	Arrival   *string  `json:"arrival" validate:"required"`
	Departure *string  `json:"departure" validate:"required"`
	Day       *string  `json:"day" validate:"required"`
	Days      []string `json:"days" validate:"required"`
}

// Stop returns the stored form of the entry.
func (r StopRequest) Stop() Stop {
	return Stop{
		Arrival:   deref(r.Arrival),
		Departure: deref(r.Departure),
		Day:       deref(r.Day),
		Days:      r.Days,
	}
}

// NewTrainRequest is the POST /trains body.
type NewTrainRequest struct {
	TrainID  *string                                     `json:"train_id" validate:"required"`
	Schedule *orderedmap.OrderedMap[string, StopRequest] `json:"schedule" validate:"required"`
}

// Train converts the request into a Train, keeping the route order.
func (r NewTrainRequest) Train() Train {
	schedule := NewSchedule()
	if r.Schedule != nil {
		for pair := r.Schedule.Oldest(); pair != nil; pair = pair.Next() {
			schedule.Set(pair.Key, pair.Value.Stop())
		}
	}
	return Train{TrainID: deref(r.TrainID), Schedule: schedule}
}

// AddToStationRequest is the POST /stations/{station_name} body.
type AddToStationRequest struct {
	TrainID   *string  `json:"train_id" validate:"required"`
	Arrival   *string  `json:"arrival" validate:"required"`
	Departure *string  `json:"departure" validate:"required"`
	Days      []string `json:"days" validate:"required"`
}

// StationStop returns the station index record carried by the request.
func (r AddToStationRequest) StationStop() StationStop {
	return StationStop{
		Arrival:   deref(r.Arrival),
		Departure: deref(r.Departure),
		Days:      r.Days,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
