package render

import (
	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
)

// PolylineStyle styles a cable segment.
type PolylineStyle struct {
	Color  string  `json:"color"`
	Weight float64 `json:"weight"`
}

// CircleStyle styles a recovery site marker.
type CircleStyle struct {
	Radius      float64 `json:"radius"`
	Fill        string  `json:"fill"`
	Border      string  `json:"border"`
	FillOpacity float64 `json:"fill_opacity"`
}

// IconKind is the marker family used for a progress entry.
type IconKind string

const (
	IconGlyph  IconKind = "glyph"  // static text glyph
	IconPulse  IconKind = "pulse"  // animated dot
	IconMarker IconKind = "marker" // plain pin with a named icon
)

// IconStyle styles a progress entry marker.
type IconStyle struct {
	Kind  IconKind `json:"kind"`
	Color string   `json:"color,omitempty"`
	Glyph string   `json:"glyph,omitempty"`
	Icon  string   `json:"icon,omitempty"`
	Size  int      `json:"size"`
}

// OverlayStyle styles the cluster polygons.
type OverlayStyle struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	Weight      float64 `json:"weight"`
	FillOpacity float64 `json:"fill_opacity"`
}

// Rule tables. Every visual decision the map makes is read from here.
var (
	cableStyle = PolylineStyle{Color: "red", Weight: 2.5}

	siteStyles = map[domain.RecoveryStatus]CircleStyle{
		domain.StatusRecovered:   {Radius: 7, Fill: "blue", Border: "white", FillOpacity: 1},
		domain.StatusUnrecovered: {Radius: 7, Fill: "red", Border: "yellow", FillOpacity: 1},
	}
	unknownSiteStyle = CircleStyle{Radius: 7, Fill: "gray", Border: "white", FillOpacity: 1}

	mobileBaseStationStyle = IconStyle{Kind: IconGlyph, Glyph: "📡", Size: 30}

	progressStyles = map[domain.ProgressStatus]IconStyle{
		domain.ProgressFieldCheck: {Kind: IconPulse, Color: "#28a745", Size: 24},
		domain.ProgressCompleted:  {Kind: IconPulse, Color: "#9370DB", Size: 24},
		domain.ProgressInProgress: {Kind: IconPulse, Color: "#007bff", Size: 24},
	}
	otherProgressStyle = IconStyle{Kind: IconMarker, Color: "gray", Icon: "info-sign", Size: 24}

	clusterStyle = OverlayStyle{Fill: "yellow", Stroke: "orange", Weight: 2, FillOpacity: 0.3}
)

// CableStyle returns the style for every drawn cable segment.
func CableStyle() PolylineStyle { return cableStyle }

// SiteStyle returns the marker style for a recovery status.
func SiteStyle(status domain.RecoveryStatus) CircleStyle {
	if s, ok := siteStyles[status]; ok {
		return s
	}
	return unknownSiteStyle
}

// ProgressStyle returns the marker style for a progress entry. A mobile base
// station wins over any status.
func ProgressStyle(p domain.ProgressEntry) IconStyle {
	if p.MobileBaseStation() {
		return mobileBaseStationStyle
	}
	if s, ok := progressStyles[p.Status]; ok {
		return s
	}
	return otherProgressStyle
}

// ClusterStyle returns the cluster overlay style.
func ClusterStyle() OverlayStyle { return clusterStyle }

// LegendEntry is one legend row.
type LegendEntry struct {
	Label    string         `json:"label"`
	Kind     string         `json:"kind"` // overlay, polyline, circle, icon
	Overlay  *OverlayStyle  `json:"overlay,omitempty"`
	Polyline *PolylineStyle `json:"polyline,omitempty"`
	Circle   *CircleStyle   `json:"circle,omitempty"`
	Icon     *IconStyle     `json:"icon,omitempty"`
}

// Legend lists the rule table in display order.
func Legend() []LegendEntry {
	overlay := ClusterStyle()
	cable := CableStyle()
	recovered := SiteStyle(domain.StatusRecovered)
	unrecovered := SiteStyle(domain.StatusUnrecovered)
	unknown := SiteStyle(domain.StatusUnknown)
	mobile := mobileBaseStationStyle
	completed := progressStyles[domain.ProgressCompleted]
	inProgress := progressStyles[domain.ProgressInProgress]
	fieldCheck := progressStyles[domain.ProgressFieldCheck]
	other := otherProgressStyle

	return []LegendEntry{
		{Label: "클러스터", Kind: "overlay", Overlay: &overlay},
		{Label: "광케이블", Kind: "polyline", Polyline: &cable},
		{Label: "국소 (복구)", Kind: "circle", Circle: &recovered},
		{Label: "국소 (미복구)", Kind: "circle", Circle: &unrecovered},
		{Label: "국소 (기타)", Kind: "circle", Circle: &unknown},
		{Label: domain.MobileBaseStationMarker, Kind: "icon", Icon: &mobile},
		{Label: string(domain.ProgressCompleted), Kind: "icon", Icon: &completed},
		{Label: string(domain.ProgressInProgress), Kind: "icon", Icon: &inProgress},
		{Label: string(domain.ProgressFieldCheck), Kind: "icon", Icon: &fieldCheck},
		{Label: "기타 상태", Kind: "icon", Icon: &other},
	}
}
