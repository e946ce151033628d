package catalog

// faculty is an internal catalog node, exposed only through accessors so
// adapters cannot scatter mutable copies of these tables.
type faculty struct {
	Name     string
	Programs []string
}

// placeCatalog is the loaded-once campus→faculty→program tree. Program
// labels keep the registry's "<code> <name>" shape because the code
// prefix is the only stable join key across sources. Historical campuses
// appear with empty faculty lists: records referencing them still parse,
// but no new scrape can be routed there.
var placeCatalog = map[Place][]faculty{
	PlaceBogota: {
		{
			Name: "CIENCIAS",
			Programs: []string{
				"2504 BIOLOGÍA",
				"2508 ESTADÍSTICA",
				"2510 FÍSICA",
				"2513 MATEMÁTICAS",
				"2515 QUÍMICA",
				"2518 GEOLOGÍA",
			},
		},
		{
			Name: "INGENIERÍA",
			Programs: []string{
				"2542 INGENIERÍA CIVIL",
				"2544 INGENIERÍA ELÉCTRICA",
				"2545 INGENIERÍA ELECTRÓNICA",
				"2546 INGENIERÍA INDUSTRIAL",
				"2547 INGENIERÍA MECÁNICA",
				"2548 INGENIERÍA MECATRÓNICA",
				"2549 INGENIERÍA QUÍMICA",
				"2879 INGENIERÍA DE SISTEMAS Y COMPUTACIÓN",
				"2933 CIENCIAS DE LA COMPUTACIÓN",
			},
		},
		{
			Name: "CIENCIAS HUMANAS",
			Programs: []string{
				"2521 FILOSOFÍA",
				"2522 HISTORIA",
				"2524 LINGÜÍSTICA",
				"2526 PSICOLOGÍA",
				"2528 SOCIOLOGÍA",
			},
		},
		{
			Name: "CIENCIAS ECONÓMICAS",
			Programs: []string{
				"2530 ADMINISTRACIÓN DE EMPRESAS",
				"2531 CONTADURÍA PÚBLICA",
				"2532 ECONOMÍA",
			},
		},
		{
			Name: "ARTES",
			Programs: []string{
				"2501 ARQUITECTURA",
				"2502 ARTES PLÁSTICAS",
				"2503 DISEÑO GRÁFICO",
				"2505 MÚSICA",
			},
		},
		{
			Name: "DERECHO, CIENCIAS POLÍTICAS Y SOCIALES",
			Programs: []string{
				"2534 CIENCIA POLÍTICA",
				"2535 DERECHO",
			},
		},
		{
			Name: "MEDICINA",
			Programs: []string{
				"2537 MEDICINA",
				"2539 NUTRICIÓN Y DIETÉTICA",
			},
		},
		{
			Name: "SEDE BOGOTÁ",
			Programs: []string{
				"2944 COMPONENTE DE LIBRE ELECCIÓN",
			},
		},
	},
	PlaceMedellin: {
		{
			Name: "MINAS",
			Programs: []string{
				"3515 INGENIERÍA CIVIL",
				"3518 INGENIERÍA DE MINAS Y METALURGIA",
				"3519 INGENIERÍA DE PETRÓLEOS",
				"3520 INGENIERÍA DE SISTEMAS E INFORMÁTICA",
				"3524 INGENIERÍA QUÍMICA",
			},
		},
		{
			Name: "CIENCIAS",
			Programs: []string{
				"3502 CIENCIAS DE LA COMPUTACIÓN",
				"3504 ESTADÍSTICA",
				"3506 INGENIERÍA FÍSICA",
				"3508 MATEMÁTICAS",
			},
		},
		{
			Name: "ARQUITECTURA",
			Programs: []string{
				"3501 ARQUITECTURA",
				"3503 ARTES PLÁSTICAS",
				"3510 CONSTRUCCIÓN",
			},
		},
		{
			Name: "CIENCIAS AGRARIAS",
			Programs: []string{
				"3512 INGENIERÍA AGRONÓMICA",
				"3514 INGENIERÍA FORESTAL",
				"3531 ZOOTECNIA",
			},
		},
		{
			Name: "SEDE MEDELLÍN",
			Programs: []string{
				"3533 COMPONENTE DE LIBRE ELECCIÓN",
			},
		},
	},
	PlaceManizales: {},
	PlacePalmira:   {},
	PlaceLaPaz:     {},
	PlaceAmazonia:  {},
	PlaceCaribe:    {},
	PlaceOrinoquia: {},
	PlaceTumaco:    {},
}

// default program the nested free-elective sub-form expects per campus
var freeElectivePrograms = map[Place]string{
	PlaceBogota:   "2944 COMPONENTE DE LIBRE ELECCIÓN",
	PlaceMedellin: "3533 COMPONENTE DE LIBRE ELECCIÓN",
}
