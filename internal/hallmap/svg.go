package hallmap

import (
	"errors"
	"html/template"
	"io"
)

var ErrNotMapScene = errors.New("svg needs a map scene")

type palette struct {
	Table  string
	Stroke string
	Chair  string
	Label  string
}

var palettes = map[TableState]palette{
	StateDefault:  {Table: "#202020", Stroke: "rgba(255,255,255,0.1)", Chair: "#2a2a2a", Label: "rgba(255,255,255,0.3)"},
	StateSelected: {Table: "#d4af37", Stroke: "rgba(255,255,255,0.5)", Chair: "#d4af37", Label: "#0a0a0a"},
	StateOccupied: {Table: "#251515", Stroke: "rgba(239,68,68,0.2)", Chair: "rgba(127,29,29,0.3)", Label: "rgba(239,68,68,0.3)"},
}

func paletteFor(state TableState) palette {
	if p, ok := palettes[state]; ok {
		return p
	}
	return palettes[StateDefault]
}

var svgTemplate = template.Must(template.New("hallmap").Funcs(template.FuncMap{
	"num":      num,
	"negHalf":  func(f float64) string { return num(-f / 2) },
	"colors":   paletteFor,
	"legendAt": func(i int) string { return num(float64(20 + i*18)) },
}).Parse(svgSource))

const svgSource = `<svg xmlns="http://www.w3.org/2000/svg" width="{{num .Canvas.Width}}" height="{{num .Canvas.Height}}" viewBox="0 0 {{num .Canvas.Width}} {{num .Canvas.Height}}" data-zone="{{.Zone}}">
<rect width="100%" height="100%" fill="#1a1a1a"/>
<text x="24" y="32" font-size="12" fill="rgba(255,255,255,0.3)">{{.Entrance}}</text>
<g class="content" transform="{{.Transform}}">
{{- range .Tables}}
{{- $c := colors .State}}
<g class="table table-{{.State}}" data-table-id="{{.ID}}" data-clickable="{{.Clickable}}" transform="{{.Transform}}">
<rect class="hitbox" x="{{negHalf .HitBox.Width}}" y="{{negHalf .HitBox.Height}}" width="{{num .HitBox.Width}}" height="{{num .HitBox.Height}}" fill="transparent"/>
{{- range .Chairs}}
<rect class="chair" x="-12" y="-12" width="24" height="24" rx="6" transform="{{.Transform}}" fill="{{$c.Chair}}"/>
{{- end}}
<rect class="top" x="{{negHalf .Size.Width}}" y="{{negHalf .Size.Height}}" width="{{num .Size.Width}}" height="{{num .Size.Height}}" rx="12" fill="{{$c.Table}}" stroke="{{$c.Stroke}}" stroke-width="2"/>
<text x="0" y="-8" transform="{{.LabelTransform}}" text-anchor="middle" font-size="16" font-weight="bold" fill="{{$c.Label}}">{{.Number}}</text>
<text x="0" y="15" transform="{{.LabelTransform}}" text-anchor="middle" font-size="11" fill="{{$c.Label}}">{{.Caption}}</text>
</g>
{{- end}}
</g>
<g class="legend" transform="translate({{num .Canvas.Width}}, {{num .Canvas.Height}}) translate(-110, -80)">
{{- range $i, $item := .Legend}}
<circle cx="8" cy="{{legendAt $i}}" r="4" fill="{{(colors $item.State).Table}}"/>
<text x="18" y="{{legendAt $i}}" dy="4" font-size="10" fill="rgba(255,255,255,0.5)">{{$item.Label}}</text>
{{- end}}
</g>
</svg>
`

// RenderSVG writes the map scene as a standalone SVG document.
func RenderSVG(w io.Writer, scene Scene) error {
	if scene.Mode != ModeMap {
		return ErrNotMapScene
	}
	return svgTemplate.Execute(w, scene)
}
