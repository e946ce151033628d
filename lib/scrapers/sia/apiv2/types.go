package apiv2

// FacultyRef and ProgramRef are this source's own identifiers, looked
// up per request because they are not stable across terms.
type FacultyRef struct {
	Id     string `json:"id"`
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
}

type ProgramRef struct {
	Id     string `json:"id"`
	Codigo string `json:"codigo"`
	Nombre string `json:"nombre"`
}

// Row is one course as the current endpoint serializes it.
type Row struct {
	Id        string     `json:"id"`
	Codigo    string     `json:"codigo_asignatura"`
	Nombre    string     `json:"nombre_asignatura"`
	Creditos  int        `json:"creditos"`
	Tipologia string     `json:"tipologia"`
	Plan      string     `json:"plan"`
	Facultad  string     `json:"facultad"`
	Grupos    []GroupRow `json:"grupos"`
}

type GroupRow struct {
	Nombre           string         `json:"nombre_grupo"`
	Actividad        string         `json:"actividad"`
	Cupos            int            `json:"cupos_total"`
	CuposDisponibles int            `json:"cupos_disponibles"`
	Profesores       []PersonRef    `json:"profesores"`
	Espacios         []string       `json:"espacios"`
	Horarios         []ExpandedSlot `json:"horarios"`
	FechaInicio      string         `json:"fecha_inicio"`
	FechaFin         string         `json:"fecha_fin"`
	Plan             string         `json:"plan"`
}

type PersonRef struct {
	Nombre string `json:"nombre"`
}

// ExpandedSlot is this source's exploded schedule entry; the canonical
// model keeps the legacy "HH:MM|HH:MM" per-weekday shape instead.
type ExpandedSlot struct {
	Dia        string `json:"dia"`
	HoraInicio string `json:"hora_inicio"`
	HoraFin    string `json:"hora_fin"`
}
