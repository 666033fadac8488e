package reports

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"stockroom-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type ExportRequest struct {
	Filename string           `json:"filename"`
	Format   string           `json:"format"`  // csv or xlsx
	Columns  []string         `json:"columns"` // optional, defaults to sorted keys of the first row
	Rows     []map[string]any `json:"rows"`
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// POST /api/reports/export
// Writes an arbitrary tabular result set to a file under the configured
// export folder and returns the path. CSV cells follow RFC 4180 quoting;
// nil values render as empty cells in both formats.
func ExportHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ExportRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(body.Rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "There is nothing to export")
		}

		format := strings.ToLower(body.Format)
		if format != "csv" && format != "xlsx" {
			return fiber.NewError(fiber.StatusBadRequest, "Format must be csv or xlsx")
		}

		columns := body.Columns
		if len(columns) == 0 {
			for k := range body.Rows[0] {
				columns = append(columns, k)
			}
			sort.Strings(columns)
		}

		name := unsafeFilename.ReplaceAllString(strings.TrimSpace(body.Filename), "_")
		if name == "" {
			name = "report"
		}
		filename := fmt.Sprintf("%s_%s.%s", name, time.Now().Format("20060102_150405"), format)

		if err := os.MkdirAll(cfg.ExportPath, 0o755); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create export folder")
		}
		path := filepath.Join(cfg.ExportPath, filename)

		var err error
		if format == "csv" {
			err = writeCSV(path, columns, body.Rows)
		} else {
			err = writeXLSX(path, columns, body.Rows)
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not write export file")
		}

		return c.JSON(fiber.Map{
			"success": true,
			"path":    path,
			"rows":    len(body.Rows),
		})
	}
}

func cellString(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers arrive as float64; keep integers unadorned.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func writeCSV(path string, columns []string, rows []map[string]any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return err
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = cellString(row[col])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeXLSX(path string, columns []string, rows []map[string]any) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	for r, row := range rows {
		for i, col := range columns {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			v := row[col]
			if v == nil {
				continue
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	return f.SaveAs(path)
}
