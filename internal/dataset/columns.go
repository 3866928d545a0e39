package dataset

// Default workbook file names.
const (
	CableFile    = "광케이블가평.xlsx"
	RecoveryFile = "복구미복구국소.xlsx"
	ProgressFile = "진행현황.xlsx"

	// RepeaterSheet is the progress workbook sheet holding the repeater table.
	RepeaterSheet = "Sheet2"
)

// Cable workbook columns.
const (
	ColRegion   = "읍면동명"
	ColGeometry = "공간위치G"
)

// Recovery workbook columns.
//
// The DMS columns are labelled the wrong way round in the source exports:
// ColDMSLat carries the header 경도 (longitude) but holds the latitude, and
// ColDMSLon carries 위도 (latitude) but holds the longitude. The loader reads
// them as they are actually filled, not as they are labelled.
const (
	ColAddress     = "주소"
	ColDMSLat      = "경도"
	ColDMSLon      = "위도"
	ColStatus      = "복구상태"
	ColSiteName    = "국소명"
	ColEquipment   = "RU / 중계기=>중계기 종류"
	ColNetworkType = "공동망구분"
	ColInspection  = "점검내역(정전/선로불량/유니트)"
)

// Progress workbook columns.
const (
	ColLatLon   = "위경도"
	ColDivision = "구분"
	ColProgress = "진행여부"
)

// Dataset names used in logs, metrics and load status.
const (
	NameCable    = "cable"
	NameRecovery = "recovery"
	NameProgress = "progress"
	NameRepeater = "repeater"
)
