package domain

import "strings"

// LatLon is a WGS-84 coordinate in map-drawing order (latitude first).
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Candidate is an optional coordinate whose components may each be missing.
// Only a candidate with both components set is usable.
type Candidate struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// NewCandidate builds a complete candidate.
func NewCandidate(lat, lon float64) Candidate {
	return Candidate{Lat: &lat, Lon: &lon}
}

// Complete reports whether both components are present.
func (c Candidate) Complete() bool {
	return c.Lat != nil && c.Lon != nil
}

// Point returns the candidate as a coordinate. The second value is false
// unless the candidate is complete.
func (c Candidate) Point() (LatLon, bool) {
	if !c.Complete() {
		return LatLon{}, false
	}
	return LatLon{Lat: *c.Lat, Lon: *c.Lon}, true
}

// Attribute is a single label/value pair shown in a detail popup.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MissingValue is displayed for any attribute the source row did not provide.
const MissingValue = "정보 없음"

// displayValue applies the default-value policy for popup attributes.
func displayValue(s string) string {
	if strings.TrimSpace(s) == "" {
		return MissingValue
	}
	return s
}

// CableSegment is one fibre route from the cable workbook.
type CableSegment struct {
	ID     string   `json:"id"`
	Region string   `json:"region"` // 읍면동명
	Path   []LatLon `json:"path"`
}

// RecoveryStatus is the closed two-value recovery enum. Values outside the
// enum are kept as StatusUnknown so they still count towards totals.
type RecoveryStatus string

const (
	StatusRecovered   RecoveryStatus = "복구"
	StatusUnrecovered RecoveryStatus = "미복구"
	StatusUnknown     RecoveryStatus = "기타"
)

// ParseRecoveryStatus maps the raw 복구상태 cell to the enum.
func ParseRecoveryStatus(raw string) RecoveryStatus {
	switch strings.TrimSpace(raw) {
	case string(StatusRecovered):
		return StatusRecovered
	case string(StatusUnrecovered):
		return StatusUnrecovered
	default:
		return StatusUnknown
	}
}

// RecoveryStatuses lists the selectable statuses in display order.
func RecoveryStatuses() []RecoveryStatus {
	return []RecoveryStatus{StatusRecovered, StatusUnrecovered}
}

// RecoverySite is one row of the recovery workbook after normalization.
type RecoverySite struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`    // 국소명
	Address     string         `json:"address"` // 주소
	Status      RecoveryStatus `json:"status"`
	StatusRaw   string         `json:"status_raw,omitempty"`
	Equipment   string         `json:"equipment,omitempty"`    // RU / 중계기=>중계기 종류
	NetworkType string         `json:"network_type,omitempty"` // 공동망구분
	Category    string         `json:"category,omitempty"`     // 점검내역(정전/선로불량/유니트)

	Geocoded   Candidate `json:"geocoded"`
	DMSDerived Candidate `json:"dms_derived"`
}

// Displayable reports whether the site can be placed on the map at all.
func (s RecoverySite) Displayable() bool {
	return s.Geocoded.Complete() || s.DMSDerived.Complete()
}

// StatusLabel is the status as shown to users.
func (s RecoverySite) StatusLabel() string {
	switch s.Status {
	case StatusRecovered, StatusUnrecovered:
		return string(s.Status)
	default:
		return displayValue(s.StatusRaw)
	}
}

// Details returns the popup payload for the site. Provenance is appended by
// the caller once the location has been resolved.
func (s RecoverySite) Details() []Attribute {
	return []Attribute{
		{Key: "국소명", Value: displayValue(s.Name)},
		{Key: "주소", Value: displayValue(s.Address)},
		{Key: "복구 상태", Value: s.StatusLabel()},
		{Key: "장비 종류", Value: displayValue(s.Equipment)},
		{Key: "공동망 구분", Value: displayValue(s.NetworkType)},
		{Key: "점검 내역", Value: displayValue(s.Category)},
	}
}

// ProgressStatus is the 진행여부 column of the progress sheet.
type ProgressStatus string

const (
	ProgressInProgress ProgressStatus = "진행중"
	ProgressFieldCheck ProgressStatus = "현장확인"
	ProgressCompleted  ProgressStatus = "작업완료"
	ProgressOther      ProgressStatus = "기타"
)

// ParseProgressStatus maps a raw status cell; anything unrecognised is Other.
func ParseProgressStatus(raw string) ProgressStatus {
	switch s := ProgressStatus(strings.TrimSpace(raw)); s {
	case ProgressInProgress, ProgressFieldCheck, ProgressCompleted:
		return s
	default:
		return ProgressOther
	}
}

// MobileBaseStationMarker is the division text that flags a mobile base station.
const MobileBaseStationMarker = "이동기지국"

// ProgressEntry is one row of the progress sheet with a usable coordinate.
type ProgressEntry struct {
	ID         string         `json:"id"`
	Division   string         `json:"division"` // 구분
	Status     ProgressStatus `json:"status"`
	RawCoord   string         `json:"raw_coord"` // 위경도
	Coord      LatLon         `json:"coord"`
	Attributes []Attribute    `json:"attributes"`
}

// MobileBaseStation reports whether the division marks a mobile base station.
func (p ProgressEntry) MobileBaseStation() bool {
	return strings.Contains(p.Division, MobileBaseStationMarker)
}
