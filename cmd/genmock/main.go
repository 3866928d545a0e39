// Command genmock writes a set of sample workbooks shaped like the field
// exports: the cable routes, the recovery site list and the progress
// workbook with its repeater sheet. Output is deterministic for a given seed.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -sites 120 -seed 7
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/wireline-recovery-map/internal/dataset"
)

// Gapyeong bounding box.
const (
	minLat, maxLat = 37.66, 37.95
	minLon, maxLon = 127.28, 127.62
)

var (
	regions    = []string{"가평읍", "청평면", "설악면", "상면", "조종면", "북면"}
	categories = []string{"선로불량", "정전/선로불량", "정전", "유니트"}
	equipment  = []string{"RU", "광중계기", "RF중계기", "소형중계기"}
	networks   = []string{"단독망", "공동망"}
	divisions  = []string{"이동기지국", "중계기 복구", "광케이블 복구", "전원 복구"}
	progresses = []string{"진행중", "현장확인", "작업완료", "보류"}
)

type options struct {
	out      string
	cables   int
	sites    int
	progress int
	seed     uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var opts options
	flag.StringVar(&opts.out, "out", "data/mock", "output directory for the workbooks")
	flag.IntVar(&opts.cables, "cables", 40, "number of cable segments")
	flag.IntVar(&opts.sites, "sites", 120, "number of recovery sites")
	flag.IntVar(&opts.progress, "progress", 25, "number of progress rows")
	flag.Uint64Var(&opts.seed, "seed", 7, "random seed")
	flag.Parse()

	if opts.cables < 0 || opts.sites < 0 || opts.progress < 0 {
		flag.Usage()
		return fmt.Errorf("counts must not be negative")
	}
	return generate(opts)
}

func generate(opts options) error {
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))

	workbooks := []struct {
		file   string
		tables []dataset.Table
	}{
		{dataset.CableFile, []dataset.Table{cableTable(rng, opts.cables)}},
		{dataset.RecoveryFile, []dataset.Table{siteTable(rng, opts.sites)}},
		{dataset.ProgressFile, []dataset.Table{progressTable(rng, opts.progress), repeaterTable(rng, opts.progress)}},
	}
	for _, wb := range workbooks {
		path := filepath.Join(opts.out, wb.file)
		if err := dataset.WriteWorkbook(path, wb.tables...); err != nil {
			return fmt.Errorf("writing %s: %w", wb.file, err)
		}
		log.Printf("wrote %s (%d rows)", path, len(wb.tables[0].Rows))
	}
	return nil
}

func cableTable(rng *rand.Rand, n int) dataset.Table {
	t := dataset.Table{Header: []string{dataset.ColRegion, dataset.ColGeometry}}
	for range n {
		lat, lon := randomPoint(rng)
		vertices := 2 + rng.IntN(4)
		pairs := make([]string, 0, vertices)
		for range vertices {
			pairs = append(pairs, fmt.Sprintf("%.6f %.6f", lon, lat))
			lat += (rng.Float64() - 0.5) * 0.01
			lon += (rng.Float64() - 0.5) * 0.01
		}
		t.Rows = append(t.Rows, []string{
			pick(rng, regions),
			"LINESTRING(" + strings.Join(pairs, ", ") + ")",
		})
	}
	return t
}

func siteTable(rng *rand.Rand, n int) dataset.Table {
	t := dataset.Table{Header: []string{
		dataset.ColSiteName, dataset.ColAddress, dataset.ColDMSLat, dataset.ColDMSLon,
		dataset.ColStatus, dataset.ColEquipment, dataset.ColNetworkType, dataset.ColInspection,
	}}
	for i := range n {
		lat, lon := randomPoint(rng)
		region := pick(rng, regions)

		address := ""
		if rng.IntN(3) > 0 {
			address = fmt.Sprintf("경기도 가평군 %s %d", region, 1+rng.IntN(300))
		}
		latDMS, lonDMS := toDMS("N", lat), toDMS("E", lon)
		if rng.IntN(10) == 0 {
			latDMS, lonDMS = "", ""
		}
		status := "미복구"
		if rng.IntN(5) < 3 {
			status = "복구"
		}

		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%s%03d국소", region, i+1),
			address,
			latDMS, // the 경도 header holds latitude
			lonDMS,
			status,
			pick(rng, equipment),
			pick(rng, networks),
			pick(rng, categories),
		})
	}
	return t
}

func progressTable(rng *rand.Rand, n int) dataset.Table {
	t := dataset.Table{Header: []string{"번호", dataset.ColDivision, "작업내용", dataset.ColLatLon, dataset.ColProgress, "담당"}}
	for i := range n {
		lat, lon := randomPoint(rng)
		t.Rows = append(t.Rows, []string{
			fmt.Sprint(i + 1),
			pick(rng, divisions),
			pick(rng, regions) + " 복구 작업",
			fmt.Sprintf("%.5f,%.5f", lat, lon),
			pick(rng, progresses),
			fmt.Sprintf("%d팀", 1+rng.IntN(6)),
		})
	}
	return t
}

func repeaterTable(rng *rand.Rand, n int) dataset.Table {
	t := dataset.Table{
		Sheet:  dataset.RepeaterSheet,
		Header: []string{"중계기명", "지역", "복구상태", "복구예정일"},
	}
	for i := range n / 2 {
		status := "미복구"
		if rng.IntN(2) == 0 {
			status = "복구"
		}
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("중계기-%02d", i+1),
			pick(rng, regions),
			status,
			fmt.Sprintf("9/%d", 1+rng.IntN(30)),
		})
	}
	return t
}

func randomPoint(rng *rand.Rand) (lat, lon float64) {
	return minLat + rng.Float64()*(maxLat-minLat), minLon + rng.Float64()*(maxLon-minLon)
}

// toDMS formats a positive decimal degree as "<cardinal>deg:min:sec".
func toDMS(cardinal string, dd float64) string {
	deg := int(dd)
	minutesF := (dd - float64(deg)) * 60
	mins := int(minutesF)
	secs := (minutesF - float64(mins)) * 60
	return fmt.Sprintf("%s%d:%02d:%04.1f", cardinal, deg, mins, secs)
}

func pick[T any](rng *rand.Rand, values []T) T {
	return values[rng.IntN(len(values))]
}
