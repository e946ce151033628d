package catalog

import (
	"courseatlas-backend/lib/textutil"

	"github.com/antzucaro/matchr"
)

// Level of study recognized by the registry.
type Level string

const (
	LevelUndergraduate Level = "PREGRADO"
	LevelGraduate      Level = "POSGRADO"
)

// Place is a campus. The set is closed: two active campuses plus the
// historical ones that still appear on old records.
type Place string

const (
	PlaceBogota    Place = "BOGOTÁ"
	PlaceMedellin  Place = "MEDELLÍN"
	PlaceManizales Place = "MANIZALES"
	PlacePalmira   Place = "PALMIRA"
	PlaceLaPaz     Place = "LA PAZ"
	PlaceAmazonia  Place = "AMAZONÍA"
	PlaceCaribe    Place = "CARIBE"
	PlaceOrinoquia Place = "ORINOQUÍA"
	PlaceTumaco    Place = "TUMACO"
)

// Typology classifies how a course counts toward a program.
type Typology string

const (
	TypologyFundamental     Typology = "FUNDAMENTACIÓN OBLIGATORIA"
	TypologyFundamentalOpt  Typology = "FUNDAMENTACIÓN OPTATIVA"
	TypologyDisciplinary    Typology = "DISCIPLINAR OBLIGATORIA"
	TypologyDisciplinaryOpt Typology = "DISCIPLINAR OPTATIVA"
	TypologyFreeElective    Typology = "LIBRE ELECCIÓN"
	TypologyThesis          Typology = "TRABAJO DE GRADO"
	TypologyLeveling        Typology = "NIVELACIÓN"
)

// ParseLevel resolves a free-text level label from any source.
func ParseLevel(label string) (Level, bool) {
	switch textutil.NormalizeName(label) {
	case "pregrado", "undergraduate":
		return LevelUndergraduate, true
	case "posgrado", "postgrado", "graduate":
		return LevelGraduate, true
	}
	return "", false
}

// ParsePlace resolves a free-text campus label.
func ParsePlace(label string) (Place, bool) {
	normalized := textutil.NormalizeName(label)
	for _, p := range Places() {
		if textutil.NormalizeName(string(p)) == normalized {
			return p, true
		}
	}
	return "", false
}

// ParseTypology resolves a free-text typology label.
func ParseTypology(label string) (Typology, bool) {
	normalized := textutil.NormalizeName(label)
	for _, t := range []Typology{
		TypologyFundamental,
		TypologyFundamentalOpt,
		TypologyDisciplinary,
		TypologyDisciplinaryOpt,
		TypologyFreeElective,
		TypologyThesis,
		TypologyLeveling,
	} {
		if textutil.NormalizeName(string(t)) == normalized {
			return t, true
		}
	}
	return "", false
}

func Places() []Place {
	return []Place{
		PlaceBogota, PlaceMedellin, PlaceManizales, PlacePalmira,
		PlaceLaPaz, PlaceAmazonia, PlaceCaribe, PlaceOrinoquia,
		PlaceTumaco,
	}
}

// ActivePlaces are the campuses the registry still serves.
func ActivePlaces() []Place {
	return []Place{PlaceBogota, PlaceMedellin}
}

// Faculties returns the faculty labels of a campus in catalog order.
func Faculties(place Place) []string {
	var out []string
	for _, f := range placeCatalog[place] {
		out = append(out, f.Name)
	}
	return out
}

// Programs returns the program labels ("<code> <name>") of a faculty.
func Programs(place Place, faculty string) []string {
	normalized := textutil.NormalizeName(faculty)
	for _, f := range placeCatalog[place] {
		if textutil.NormalizeName(f.Name) == normalized {
			out := make([]string, len(f.Programs))
			copy(out, f.Programs)
			return out
		}
	}
	return nil
}

// fuzzy threshold below which a label is considered absent rather than
// misspelled
const resolveThreshold = 0.93

// ResolveFaculty maps a scraped faculty label onto the catalog entry. An
// exact normalized match wins; otherwise the closest JaroWinkler match
// above the threshold is taken, since the registry is inconsistent about
// prefixes like "FACULTAD DE".
func ResolveFaculty(place Place, label string) (string, bool) {
	normalized := textutil.NormalizeName(label)
	for _, f := range placeCatalog[place] {
		if textutil.NormalizeName(f.Name) == normalized {
			return f.Name, true
		}
	}

	best := ""
	bestScore := 0.0
	for _, f := range placeCatalog[place] {
		score := matchr.JaroWinkler(
			textutil.NormalizeName(f.Name),
			normalized,
			false,
		)
		if score > bestScore {
			bestScore = score
			best = f.Name
		}
	}
	if bestScore >= resolveThreshold {
		return best, true
	}
	return "", false
}

// FacultyForProgramToken reverse-resolves the faculty owning a program,
// given either the program's numeric code ("2933") or any prefix of its
// label. Used to correct free-elective records that arrive without a
// faculty.
func FacultyForProgramToken(place Place, token string) (faculty string, program string, ok bool) {
	code := textutil.CodePrefix(token)
	normalized := textutil.NormalizeName(token)

	for _, f := range placeCatalog[place] {
		for _, p := range f.Programs {
			if code != "" && textutil.CodePrefix(p) == code {
				return f.Name, p, true
			}
			if normalized != "" && textutil.NormalizeName(p) == normalized {
				return f.Name, p, true
			}
		}
	}
	return "", "", false
}

// FreeElectiveProgram is the per-campus default program the legacy form
// expects when searching free-elective typology without a concrete
// program.
func FreeElectiveProgram(place Place) (string, bool) {
	p, ok := freeElectivePrograms[place]
	return p, ok
}
