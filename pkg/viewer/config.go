package viewer

import (
	"net/url"
	"path"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Selector names one of the bundled models.
type Selector string

const (
	Base                Selector = "base"
	MengerSponge        Selector = "menger_sponge"
	StanfordBunny       Selector = "stanford_bunny"
	EiffelTower         Selector = "eiffel_tower"
	Cabinet3DGeometryS2 Selector = "cabinet_3d_geomery_s2"
)

// Selectors lists the recognized selectors, Base first.
var Selectors = []Selector{Base, MengerSponge, StanfordBunny, EiffelTower, Cabinet3DGeometryS2}

// ModelDir is where model files live, relative to the asset root.
const ModelDir = "models/stl"

// EnvMapDir and EnvMapSuffix locate the six environment cube faces.
const (
	EnvMapDir    = "img"
	EnvMapSuffix = "_50.png"
)

// CameraConfig is the per-model camera placement and clipping range.
type CameraConfig struct {
	Position mgl64.Vec3
	Near     float64
	Far      float64
}

// Config is everything derived from the location.
type Config struct {
	Selector  Selector
	Filename  string // <selector>.stl
	AssetPath string // ModelDir/<Filename>
	Camera    CameraConfig
}

// SearchFromLocation returns the query part of a location, including the
// leading "?", or "" when there is none. A location may be a full URL
// ("http://host/?stanford_bunny"), a relative one ("index.html?stanford_bunny"),
// a bare query ("?stanford_bunny") or just the query text ("stanford_bunny").
// Any "#fragment" after the query is dropped.
func SearchFromLocation(location string) string {
	switch {
	case location == "":
		return ""
	case strings.Contains(location, "://"):
		u, err := url.Parse(location)
		if err != nil || u.RawQuery == "" {
			return ""
		}
		return "?" + u.RawQuery
	case strings.Contains(location, "?"):
		search := location[strings.Index(location, "?"):]
		search, _, _ = strings.Cut(search, "#")
		return search
	default:
		return "?" + location
	}
}

// ResolveSelector maps a search string to a selector. Only an exact match
// of one of the named models after the leading "?" selects it.
func ResolveSelector(search string) Selector {
	if search == "" || search[0] != '?' {
		return Base
	}
	candidate := Selector(search[1:])
	for _, s := range Selectors[1:] {
		if candidate == s {
			return s
		}
	}
	return Base
}

// Resolve derives the full configuration for a search string.
func Resolve(search string) Config {
	sel := ResolveSelector(search)
	filename := string(sel) + ".stl"
	return Config{
		Selector:  sel,
		Filename:  filename,
		AssetPath: path.Join(ModelDir, filename),
		Camera:    cameraFor(sel),
	}
}

func cameraFor(sel Selector) CameraConfig {
	cam := CameraConfig{Position: mgl64.Vec3{0, 0, 10}, Near: 0.1, Far: 100}

	switch sel {
	case MengerSponge:
		cam.Position = mgl64.Vec3{0, 0, 5}
	case StanfordBunny:
		cam.Position = mgl64.Vec3{0, -250, 0}
		cam.Far = 2500
	case EiffelTower:
		cam.Position = mgl64.Vec3{0, 0, -100}
		cam.Far = 1000
	case Cabinet3DGeometryS2:
		cam.Position = mgl64.Vec3{0, 0, -2500}
		cam.Far = 5000
		fallthrough
	default:
	}
	return cam
}
