// Package domain models wired-network disaster recovery data: fibre cable
// routes, recovery sites (국소) and field progress reports exported from the
// operations spreadsheets.
//
// # Data Sources
//
// Three workbooks are produced by the regional operations team and refreshed
// by hand during an incident:
//
//	광케이블가평.xlsx    cable routes, one row per segment
//	복구미복구국소.xlsx  recovery status per site
//	진행현황.xlsx        field progress (first sheet) and repeater status (Sheet2)
//
// The loaders in package dataset map header-keyed rows into the typed records
// of this package. Everything here is pure and free of I/O except the
// [Geocoder] port.
//
// # Coordinate Encodings
//
// Cable geometry ("공간위치G") is WKT-like text with longitude-first pairs:
//
//	"LINESTRING(127.10 37.10, 127.20 37.20)"  →  [[37.10 127.10] [37.20 127.20]]
//
// Pairs are swapped to latitude-first for drawing. A record with any
// unparseable pair yields no geometry at all. See [ParseGeometry].
//
// Site coordinates are degree-minute-second text with a cardinal prefix:
//
//	"N37:30:00.0"  →  37.5
//	"E127:30:36"   →  127.51
//
// S and W negate. Minutes and seconds are not range-checked. See [ParseDMS].
//
// Progress reports carry a single decimal "lat,lon" string ("위경도"). See
// [ParseLatLon].
//
// # Column Label Swap
//
// In the recovery workbook the column labelled 경도 (longitude) holds the
// latitude DMS text and the column labelled 위도 (latitude) holds the
// longitude. This is a labelling defect in the source spreadsheets. The
// loader preserves the observed mapping so sites land in the right place;
// it does not trust the labels.
//
// # Location Resolution
//
// A site has up to two coordinate candidates: one from forward geocoding its
// address and one from its DMS columns. [ResolveLocation] is the only place
// that decides between them:
//
//	geocoded complete    → address-based
//	dms-derived complete → coordinate-based
//	neither              → excluded from the map
//
// The provenance travels with the resolved coordinate into every popup.
package domain
