package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Trades"

var header = []string{
	"Opened", "Closed", "Symbol", "Side", "Size",
	"Entry Price", "Exit Price", "PnL %", "PnL USD", "Duration", "Reason",
}

// ClosedTrade is one completed round trip recorded in the journal.
type ClosedTrade struct {
	Symbol     string
	Side       string
	Size       float64
	EntryPrice float64
	ExitPrice  float64
	PnLPct     float64
	PnLUSD     float64
	OpenedAt   time.Time
	ClosedAt   time.Time
	Reason     string
}

// Journal appends closed trades to an XLSX workbook. Each Record call
// rewrites the file, which is fine at a one-trade-at-a-time cadence.
type Journal struct {
	mu   sync.Mutex
	path string
}

// New creates a journal writing to path, creating the workbook with a
// styled header row if it does not exist yet.
func New(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	j := &Journal{path: path}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := j.createWorkbook(); err != nil {
			return nil, err
		}
	}

	return j, nil
}

// Record appends one closed trade.
func (j *Journal) Record(trade ClosedTrade) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	fx, err := excelize.OpenFile(j.path)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer fx.Close()

	rows, err := fx.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("failed to read journal sheet: %w", err)
	}
	rowNum := len(rows) + 1

	row := []interface{}{
		trade.OpenedAt.Format("2006-01-02 15:04:05"),
		trade.ClosedAt.Format("2006-01-02 15:04:05"),
		trade.Symbol,
		trade.Side,
		trade.Size,
		trade.EntryPrice,
		trade.ExitPrice,
		trade.PnLPct,
		trade.PnLUSD,
		trade.ClosedAt.Sub(trade.OpenedAt).Round(time.Second).String(),
		trade.Reason,
	}

	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := fx.SetSheetRow(sheetName, cell, &row); err != nil {
		return fmt.Errorf("failed to write journal row: %w", err)
	}

	if err := fx.Save(); err != nil {
		return fmt.Errorf("failed to save journal: %w", err)
	}

	return nil
}

func (j *Journal) createWorkbook() error {
	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName(fx.GetSheetName(0), sheetName)

	headerStyle, err := fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF", Family: "Calibri"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"2F4F4F"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := fx.SetSheetRow(sheetName, "A1", &headerRow); err != nil {
		return err
	}

	lastCol, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheetName, "A1", lastCol, headerStyle); err != nil {
		return err
	}

	if err := fx.SetColWidth(sheetName, "A", "B", 20); err != nil {
		return err
	}

	return fx.SaveAs(j.path)
}
