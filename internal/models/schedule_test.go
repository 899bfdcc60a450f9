package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delhiMumbaiSchedule = `{
	"Delhi": {"arrival": "00:00", "departure": "08:00", "day": "Mon", "days": ["Mon", "Wed"]},
	"Kota": {"arrival": "13:00", "departure": "13:10", "day": "Mon", "days": ["Mon", "Wed"]},
	"Mumbai": {"arrival": "20:00", "departure": "20:10", "day": "Mon", "days": ["Mon", "Wed"]}
}`

func TestScheduleDecodingKeepsRouteOrder(t *testing.T) {
	schedule := NewSchedule()
	require.NoError(t, json.Unmarshal([]byte(delhiMumbaiSchedule), schedule))

	assert.Equal(t, []string{"Delhi", "Kota", "Mumbai"}, StationNames(schedule))

	origin, terminus, ok := Endpoints(schedule)
	assert.True(t, ok)
	assert.Equal(t, "Delhi", origin)
	assert.Equal(t, "Mumbai", terminus)

	assert.Equal(t, 0, StationIndex(schedule, "Delhi"))
	assert.Equal(t, 2, StationIndex(schedule, "Mumbai"))
	assert.Equal(t, -1, StationIndex(schedule, "Chennai"))

	encoded, err := json.Marshal(schedule)
	require.NoError(t, err)
	assert.Regexp(t, `^\{"Delhi":.*"Kota":.*"Mumbai":`, string(encoded))
}

func TestEndpointsEmptySchedule(t *testing.T) {
	_, _, ok := Endpoints(NewSchedule())
	assert.False(t, ok)

	_, _, ok = Endpoints(nil)
	assert.False(t, ok)
}

func TestCloneScheduleIsIndependent(t *testing.T) {
	original := NewSchedule()
	original.Set("Delhi", Stop{Arrival: "00:00", Departure: "08:00", Day: "Mon", Days: []string{"Mon"}})

	clone := CloneSchedule(original)
	stop, _ := clone.Get("Delhi")
	stop.Days[0] = "Sun"
	clone.Set("Agra", Stop{})

	originalStop, _ := original.Get("Delhi")
	assert.Equal(t, []string{"Mon"}, originalStop.Days)
	assert.Equal(t, 1, original.Len())
	assert.Equal(t, 0, CloneSchedule(nil).Len())
}

func TestNewStationStopDropsDay(t *testing.T) {
	stop := Stop{Arrival: "20:00", Departure: "20:10", Day: "Mon", Days: []string{"Mon", "Wed"}}

	stationStop, err := NewStationStop(stop)
	require.NoError(t, err)
	assert.Equal(t, StationStop{Arrival: "20:00", Departure: "20:10", Days: []string{"Mon", "Wed"}}, stationStop)

	stop.Days[0] = "Fri"
	assert.Equal(t, "Mon", stationStop.Days[0], "days must not alias the train schedule")

	encoded, err := json.Marshal(stationStop)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), `"day"`)
}

func TestNewConnectionUsesOriginDays(t *testing.T) {
	from := Stop{Departure: "08:00", Days: []string{"Mon", "Wed"}}
	to := Stop{Arrival: "20:00", Days: []string{"Tue"}}

	conn := NewConnection("T1", "Delhi", from, "Mumbai", to)

	assert.Equal(t, "T1", conn.TrainID)
	assert.Equal(t, ConnectionOrigin{Station: "Delhi", Departure: "08:00"}, conn.Origin)
	assert.Equal(t, ConnectionDestination{Station: "Mumbai", Arrival: "20:00"}, conn.Destination)
	assert.Equal(t, []string{"Mon", "Wed"}, conn.OperationalDays)
}

func TestTrainRequestDecoding(t *testing.T) {
	body := `{"train_id": "T1", "schedule": ` + delhiMumbaiSchedule + `}`

	var req NewTrainRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	train := req.Train()
	assert.Equal(t, "T1", train.TrainID)
	require.NotNil(t, train.Schedule)
	assert.Equal(t, []string{"Delhi", "Kota", "Mumbai"}, StationNames(train.Schedule))

	delhi, ok := train.Schedule.Get("Delhi")
	require.True(t, ok)
	assert.Equal(t, Stop{Arrival: "00:00", Departure: "08:00", Day: "Mon", Days: []string{"Mon", "Wed"}}, delhi)
}

func TestTrainRequestTracksMissingFields(t *testing.T) {
	body := `{"train_id": "", "schedule": {"A": {"arrival": "", "days": []}}}`

	var req NewTrainRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	require.NotNil(t, req.TrainID)
	assert.Equal(t, "", *req.TrainID)

	stop, ok := req.Schedule.Get("A")
	require.True(t, ok)
	assert.NotNil(t, stop.Arrival, "an empty string is present")
	assert.Nil(t, stop.Departure)
	assert.Nil(t, stop.Day)
	assert.Equal(t, Stop{Days: []string{}}, stop.Stop())
}
