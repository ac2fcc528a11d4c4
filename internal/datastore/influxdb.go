package datastore

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

// InfluxDBStore stores field readings as time-series points, one
// measurement ("field_reading") tagged by VIN, field name, and ECU,
// grounded on the teacher's influxdb.go write/query API usage (that
// file used influxdb2.Client/influxdb2.NewPoint without importing the
// top-level influxdb-client-go/v2 package — fixed here).
type InfluxDBStore struct {
	client   influxdb2.Client
	org      string
	bucket   string
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
}

// NewInfluxDBStore creates a new InfluxDB-backed store and verifies
// connectivity.
func NewInfluxDBStore(url, token, org, bucket string) (*InfluxDBStore, error) {
	client := influxdb2.NewClient(url, token)

	store := &InfluxDBStore{
		client:   client,
		org:      org,
		bucket:   bucket,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		queryAPI: client.QueryAPI(org),
	}

	if _, err := client.Ping(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	return store, nil
}

func (s *InfluxDBStore) SaveReading(vin string, reading *Reading) error {
	point := influxdb2.NewPoint(
		"field_reading",
		map[string]string{
			"vin": vin,
			"sid": reading.SID,
			"ecu": reading.ECU,
		},
		map[string]interface{}{
			"value":  reading.Value,
			"status": reading.Status,
		},
		reading.Timestamp,
	)

	if err := s.writeAPI.WritePoint(context.Background(), point); err != nil {
		return fmt.Errorf("failed to write reading: %w", err)
	}

	return nil
}

func (s *InfluxDBStore) GetReadings(vin string, start, end time.Time) ([]*Reading, error) {
	query := fmt.Sprintf(`
		from(bucket:"%s")
			|> range(start: %s, stop: %s)
			|> filter(fn: (r) => r["_measurement"] == "field_reading" and r["vin"] == "%s")
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
	`, s.bucket, start.Format(time.RFC3339), end.Format(time.RFC3339), vin)

	result, err := s.queryAPI.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer result.Close()

	var readings []*Reading
	for result.Next() {
		record := result.Record()
		readings = append(readings, &Reading{
			Timestamp: record.Time(),
			VIN:       vin,
			SID:       fmt.Sprintf("%v", record.ValueByKey("sid")),
			ECU:       fmt.Sprintf("%v", record.ValueByKey("ecu")),
			Value:     record.ValueByKey("value").(float64),
			Status:    fmt.Sprintf("%v", record.ValueByKey("status")),
		})
	}

	return readings, result.Err()
}

func (s *InfluxDBStore) GetLatestReading(vin, sid string) (*Reading, error) {
	query := fmt.Sprintf(`
		from(bucket:"%s")
			|> range(start: -1h)
			|> filter(fn: (r) => r["_measurement"] == "field_reading" and r["vin"] == "%s" and r["sid"] == "%s")
			|> last()
			|> pivot(rowKey:["_time"], columnKey: ["_field"], valueColumn: "_value")
	`, s.bucket, vin, sid)

	result, err := s.queryAPI.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest reading: %w", err)
	}
	defer result.Close()

	if !result.Next() {
		return nil, fmt.Errorf("no readings found for %s on VIN %s", sid, vin)
	}

	record := result.Record()
	return &Reading{
		Timestamp: record.Time(),
		VIN:       vin,
		SID:       sid,
		ECU:       fmt.Sprintf("%v", record.ValueByKey("ecu")),
		Value:     record.ValueByKey("value").(float64),
		Status:    fmt.Sprintf("%v", record.ValueByKey("status")),
	}, nil
}

func (s *InfluxDBStore) Close() error {
	s.client.Close()
	return nil
}
