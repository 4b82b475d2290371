package gtfs

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

// sampleFeed is a small feed touching every file. It holds 22 data rows.
var sampleFeed = map[string]string{
	"agency.txt": `agency_id,agency_name,agency_url,agency_timezone,agency_lang,agency_phone
SEPTA,"Southeastern Pennsylvania Transportation Authority",https://www.septa.org,America/New_York,en,215-580-7800
`,
	"stops.txt": `stop_id,stop_name,stop_lat,stop_lon,location_type,parent_station,wheelchair_boarding
S1,Main St,40.0,-75.0,,,
S2,"Market St, East",39.9522,-75.1636,0,STA1,1
STA1,Market Station,39.9523,-75.1637,1,,
`,
	"routes.txt": `route_id,agency_id,route_short_name,route_long_name,route_type,route_color
R1,SEPTA,17,Seventeenth Street,3,
R2,SEPTA,MFL,Market-Frankford Line,1,0066CC
`,
	"trips.txt": `route_id,service_id,trip_id,trip_headsign,direction_id,shape_id
R1,WK,T1,Center City,0,SH1
R2,WK,T2,Frankford,1,
`,
	"stop_times.txt": `trip_id,arrival_time,departure_time,stop_id,stop_sequence,pickup_type,timepoint
T1,8:00:00,8:00:00,S1,1,,
T1,08:05:30,08:06:00,S2,2,0,0
T2,25:10:00,25:10:00,S2,1,1,
`,
	"calendar.txt": `service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date
WK,1,1,1,1,1,0,,20240101,20241231
`,
	"calendar_dates.txt": `service_id,date,exception_type
WK,20240704,2
WK,20240706,
`,
	"fare_attributes.txt": `fare_id,price,currency_type,payment_method,transfers,transfer_duration
F1,2.50,USD,0,,
F2,1.00,USD,1,1,3600
`,
	"fare_rules.txt": `fare_id,route_id
F1,R1
`,
	"frequencies.txt": `trip_id,start_time,end_time,headway_secs,exact_times
T2,06:00:00,09:00:00,600,1
`,
	"shapes.txt": `shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence,shape_dist_traveled
SH1,40.0,-75.0,1,0
SH1,40.001,-75.001,2,0.14
`,
	"transfers.txt": `from_stop_id,to_stop_id,transfer_type,min_transfer_time
S1,S2,2,180
`,
	"feed_info.txt": `feed_publisher_name,feed_publisher_url,feed_lang,feed_start_date,feed_end_date,feed_version
SEPTA,https://www.septa.org,en,20240101,20241231,2024.1
`,
}

const sampleRows = 22

// withFiles returns a copy of sampleFeed with files replaced or, for an
// empty body, removed.
func withFiles(files map[string]string) map[string]string {
	out := make(map[string]string, len(sampleFeed))
	for name, body := range sampleFeed {
		out[name] = body
	}
	for name, body := range files {
		if body == "" {
			delete(out, name)
			continue
		}
		out[name] = body
	}
	return out
}

func writeFeed(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func writeZipFeed(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feed.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}
