package form

import (
	"fmt"
	"strconv"
	"strings"

	"courseatlas-backend/lib/htmlutil"
	"courseatlas-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
)

// Row is one course as rendered in the results table, before any
// canonical mapping.
type Row struct {
	Code     string
	Name     string
	Credits  int
	Typology string
	Groups   []GroupRow
}

// GroupRow is one group sub-row. Period bounds stay raw (dd/mm/yyyy):
// date parsing happens in the mapping layer where failures can be
// attributed to a course.
type GroupRow struct {
	Name           string
	Activity       string
	Spots          int
	AvailableSpots int
	Teachers       []string
	Classrooms     []string
	Schedule       [7]string // monday-first, "HH:MM|HH:MM" per slot
	PeriodStart    string
	PeriodEnd      string
	Program        string
}

var weekdayIndex = map[string]int{
	"lunes":     0,
	"martes":    1,
	"miercoles": 2,
	"jueves":    3,
	"viernes":   4,
	"sabado":    5,
	"domingo":   6,
}

// WeekdayIndex maps a weekday label (any casing, accents optional) onto
// the monday-first schedule index shared by all sources.
func WeekdayIndex(label string) (int, bool) {
	i, ok := weekdayIndex[textutil.NormalizeName(label)]
	return i, ok
}

// ParseResults extracts course rows from the results table's inner
// HTML. A missing <tbody> means the search returned zero results. Rows
// sharing a course code are merged: the legacy system sometimes renders
// the same course twice in one page.
func ParseResults(innerHTML string) ([]Row, []error) {
	doc, err := goquery.NewDocumentFromReader(
		strings.NewReader("<table>" + innerHTML + "</table>"),
	)
	if err != nil {
		return nil, []error{err}
	}

	if doc.Find("tbody").Length() == 0 {
		return nil, nil
	}

	var rows []Row
	var errs []error
	byCode := map[string]int{}

	doc.Find("tr.curso").Each(func(i int, tr *goquery.Selection) {
		row, rowErrs := parseCourseRow(tr)
		errs = append(errs, rowErrs...)
		if row.Code == "" {
			errs = append(errs, fmt.Errorf("results row %d has no course code", i))
			return
		}

		if at, seen := byCode[row.Code]; seen {
			rows[at].Groups = append(rows[at].Groups, row.Groups...)
			return
		}
		byCode[row.Code] = len(rows)
		rows = append(rows, row)
	})

	return rows, errs
}

func parseCourseRow(tr *goquery.Selection) (Row, []error) {
	row := Row{
		Code:     htmlutil.CellText(tr.Find("td.codigo").First()),
		Name:     htmlutil.CellText(tr.Find("td.nombre").First()),
		Typology: htmlutil.CellText(tr.Find("td.tipologia").First()),
	}

	var errs []error
	credits := htmlutil.CellText(tr.Find("td.creditos").First())
	if credits != "" {
		n, err := strconv.Atoi(credits)
		if err != nil {
			errs = append(errs, fmt.Errorf("course %s: malformed credits %q", row.Code, credits))
		} else {
			row.Credits = n
		}
	}

	tr.Find("table.grupos tr").Each(func(_ int, groupTr *goquery.Selection) {
		if groupTr.Find("td").Length() == 0 {
			return // header row
		}
		group, groupErrs := parseGroupRow(row.Code, groupTr)
		errs = append(errs, groupErrs...)
		row.Groups = append(row.Groups, group)
	})

	return row, errs
}

func parseGroupRow(courseCode string, tr *goquery.Selection) (GroupRow, []error) {
	group := GroupRow{
		Name:       htmlutil.CellText(tr.Find("td.grupo").First()),
		Activity:   htmlutil.CellText(tr.Find("td.actividad").First()),
		Teachers:   splitCell(htmlutil.CellText(tr.Find("td.docente").First())),
		Classrooms: splitCell(htmlutil.CellText(tr.Find("td.aula").First())),
		Program:    htmlutil.CellText(tr.Find("td.plan").First()),
	}

	var errs []error

	spots := htmlutil.CellText(tr.Find("td.cupos").First())
	if n, err := strconv.Atoi(spots); err == nil {
		group.Spots = n
	}
	// upstream does not guarantee available <= spots, keep as reported
	available := htmlutil.CellText(tr.Find("td.disponibles").First())
	if n, err := strconv.Atoi(available); err == nil {
		group.AvailableSpots = n
	}

	period := htmlutil.CellText(tr.Find("td.periodo").First())
	if period != "" {
		bounds := strings.SplitN(period, "-", 2)
		group.PeriodStart = strings.TrimSpace(bounds[0])
		if len(bounds) == 2 {
			group.PeriodEnd = strings.TrimSpace(bounds[1])
		}
	}

	schedule := htmlutil.CellText(tr.Find("td.horario").First())
	for _, entry := range splitCell(schedule) {
		day, slot, err := parseScheduleEntry(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("course %s group %q: %w", courseCode, group.Name, err))
			continue
		}
		if group.Schedule[day] == "" {
			group.Schedule[day] = slot
		}
	}

	return group, errs
}

// parseScheduleEntry parses "LUNES 07:00|09:00" into a weekday index and
// its slot.
func parseScheduleEntry(entry string) (int, string, error) {
	fields := strings.Fields(entry)
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("malformed schedule entry %q", entry)
	}
	day, ok := weekdayIndex[textutil.NormalizeName(fields[0])]
	if !ok {
		return 0, "", fmt.Errorf("unsupported schedule day %q", fields[0])
	}
	return day, fields[1], nil
}

func splitCell(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
