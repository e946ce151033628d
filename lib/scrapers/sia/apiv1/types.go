package apiv1

import "strings"

// Row is one course exactly as the legacy endpoint serializes it.
type Row struct {
	Codigo    string     `json:"codigo"`
	Nombre    string     `json:"nombre"`
	Creditos  int        `json:"creditos"`
	Nivel     string     `json:"nivel"`
	Sede      string     `json:"sede"`
	Facultad  string     `json:"facultad"`
	Plan      string     `json:"plan"`
	Tipologia string     `json:"tipologia"`
	Grupos    []GroupRow `json:"grupos"`
}

type GroupRow struct {
	Nombre           string            `json:"nombre"`
	Actividad        string            `json:"actividad"`
	Cupos            int               `json:"cupos"`
	CuposDisponibles int               `json:"cupos_disponibles"`
	Docentes         []string          `json:"docentes"`
	Aulas            []string          `json:"aulas"`
	Horario          map[string]string `json:"horario"` // day name -> "HH:MM|HH:MM"
	FechaInicio      string            `json:"fecha_inicio"`
	FechaFin         string            `json:"fecha_fin"`
	Plan             string            `json:"plan"`
	PlanesAsociados  string            `json:"PLANES_ASOCIADOS"`
}

// planMarker delimits entries inside the associated-programs free-text
// blob.
const planMarker = "*** Plan:"

// AssociatedPrograms normalizes the PLANES_ASOCIADOS blob into a
// program list.
func (g GroupRow) AssociatedPrograms() []string {
	if g.PlanesAsociados == "" {
		return nil
	}

	var out []string
	for _, chunk := range strings.Split(g.PlanesAsociados, planMarker)[1:] {
		program := strings.TrimSpace(chunk)
		// blob entries run together with trailing notes after a newline
		if i := strings.IndexAny(program, "\r\n"); i >= 0 {
			program = strings.TrimSpace(program[:i])
		}
		if program != "" {
			out = append(out, program)
		}
	}
	return out
}
