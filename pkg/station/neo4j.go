package station

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const stationQuery = `
MATCH (s:Station)
RETURN s.name AS name, s.lat AS lat, s.lon AS lon, s.rate AS rate
ORDER BY s.name
`

// Neo4jSource loads stations stored as (:Station {name, lat, lon, rate}) nodes.
type Neo4jSource struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jSource connects to uri and verifies connectivity.
func NewNeo4jSource(ctx context.Context, uri, user, password, database string) (*Neo4jSource, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("could not create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify connection: %w", err)
	}
	return &Neo4jSource{driver: driver, database: database}, nil
}

// Close releases the driver.
func (s *Neo4jSource) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Load runs the station query and converts every record.
func (s *Neo4jSource) Load(ctx context.Context) ([]Station, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithReadersRouting()}
	if s.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(s.database))
	}

	result, err := neo4j.ExecuteQuery(ctx, s.driver, stationQuery, nil, neo4j.EagerResultTransformer, opts...)
	if err != nil {
		return nil, fmt.Errorf("error fetching stations: %w", err)
	}

	stations := make([]Station, 0, len(result.Records))
	for i, rec := range result.Records {
		st, err := stationFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		stations = append(stations, st)
	}
	return stations, nil
}

func stationFromRecord(rec *neo4j.Record) (Station, error) {
	raw, ok := rec.Get("name")
	if !ok {
		return Station{}, fmt.Errorf("missing name")
	}
	name, ok := raw.(string)
	if !ok {
		return Station{}, fmt.Errorf("name is %T, want string", raw)
	}

	var st = Station{Name: name}
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"lat", &st.Lat},
		{"lon", &st.Lon},
		{"rate", &st.Rate},
	} {
		raw, ok := rec.Get(f.key)
		if !ok {
			return Station{}, fmt.Errorf("%q: missing %s", name, f.key)
		}
		switch v := raw.(type) {
		case float64:
			*f.dst = v
		case int64:
			*f.dst = float64(v)
		default:
			return Station{}, fmt.Errorf("%q: %s is %T, want number", name, f.key, raw)
		}
	}
	return st, nil
}
