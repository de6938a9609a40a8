// Package export renders allocations as CSV, HTML cards and Excel workbooks.
package export

import (
	"embed"
	"encoding/csv"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/arnavshah/advent-allocator/pkg/allocator"
	"github.com/arnavshah/advent-allocator/pkg/models"
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

// BaseName is the download name shared by every export format
const BaseName = "advent_calendar_allocations"

// Header is the column layout of the CSV and XLSX exports
var Header = []string{"Day", "Assigned", "Pickup Instructions"}

//go:embed templates/calendar.html
var templateFS embed.FS

var calendarTmpl = template.Must(template.New("calendar.html").Funcs(template.FuncMap{
	"join": strings.Join,
}).ParseFS(templateFS, "templates/calendar.html"))

// Row is one line of the exported table
type Row struct {
	Day      int
	Assigned string
	Pickup   string
}

// Views attaches the pickup instruction to every bag
func Views(bags []models.Bag, year int) ([]models.BagView, error) {
	views := make([]models.BagView, 0, len(bags))
	for _, bag := range bags {
		p, err := allocator.PickupRule(bag.Day, year)
		if err != nil {
			return nil, eris.Wrapf(err, "pickup for day %d", bag.Day)
		}
		views = append(views, models.BagView{
			SlotID:   bag.SlotID,
			Day:      bag.Day,
			Assigned: bag.Assigned,
			Pickup:   p.Message,
		})
	}
	return views, nil
}

// Rows flattens bag views into table rows
func Rows(views []models.BagView) []Row {
	rows := make([]Row, 0, len(views))
	for _, v := range views {
		rows = append(rows, Row{
			Day:      v.Day,
			Assigned: strings.Join(v.Assigned, ", "),
			Pickup:   v.Pickup,
		})
	}
	return rows
}

// WriteCSV writes the table with a header line
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return eris.Wrap(err, "failed to write csv header")
	}
	for _, r := range rows {
		if err := writer.Write([]string{strconv.Itoa(r.Day), r.Assigned, r.Pickup}); err != nil {
			return eris.Wrap(err, "failed to write csv row")
		}
	}
	writer.Flush()
	return eris.Wrap(writer.Error(), "failed to flush csv")
}

type calendarPage struct {
	Title string
	Year  int
	Bags  []models.BagView
}

// WriteHTML renders the calendar as a page of cards
func WriteHTML(w io.Writer, views []models.BagView, year int) error {
	page := calendarPage{
		Title: "Secret Advent Calendar",
		Year:  year,
		Bags:  views,
	}
	if err := calendarTmpl.Execute(w, page); err != nil {
		return eris.Wrap(err, "failed to render calendar")
	}
	return nil
}

// WriteXLSX writes the table as a single sheet workbook
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Calendar"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return eris.Wrap(err, "failed to name sheet")
	}

	if err := f.SetSheetRow(sheet, "A1", &Header); err != nil {
		return eris.Wrap(err, "failed to write header")
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return eris.Wrap(err, "")
		}
		values := []interface{}{r.Day, r.Assigned, r.Pickup}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return eris.Wrapf(err, "failed to write row %d", i+2)
		}
	}
	if err := f.SetColWidth(sheet, "B", "C", 40); err != nil {
		return eris.Wrap(err, "")
	}

	if _, err := f.WriteTo(w); err != nil {
		return eris.Wrap(err, "failed to write workbook")
	}
	return nil
}
