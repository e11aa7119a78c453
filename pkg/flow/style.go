package flow

import "github.com/opsdeck/opsdeck/pkg/rel"

// Style is the visual treatment of an edge. Styles are a pure function of
// the relationship kind and are derived at render time, never persisted, so
// restyling a kind never needs a data migration.
type Style struct {
	Color  string `json:"color"`
	Dashed bool   `json:"dashed"`
	Label  string `json:"label"`
}

// edgeStyles maps each built-in kind to its treatment.
var edgeStyles = map[rel.Kind]Style{
	rel.KindBlocks:    {Color: "#e05561", Dashed: false, Label: "blocks"},
	rel.KindSupports:  {Color: "#61afef", Dashed: false, Label: "supports"},
	rel.KindMaintains: {Color: "#98c379", Dashed: false, Label: "maintains"},
	rel.KindRelatesTo: {Color: "#8a919d", Dashed: true, Label: "related"},
	rel.KindSubTaskOf: {Color: "#c678dd", Dashed: false, Label: "sub-task"},
}

// fallbackStyle renders unknown relationship kinds.
var fallbackStyle = Style{Color: "#8a919d", Dashed: true}

// EdgeStyle returns the visual treatment for a relationship kind. Unknown
// kinds get the fallback treatment labeled with the raw kind string.
func EdgeStyle(k rel.Kind) Style {
	if s, ok := edgeStyles[k]; ok {
		return s
	}
	s := fallbackStyle
	s.Label = string(k)
	return s
}
