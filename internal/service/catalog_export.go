package service

import (
	"bytes"
	"context"
	"fmt"

	"storefront/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ProductExportHeader 商品导出表头
var ProductExportHeader = []string{
	"Name",
	"SKU",
	"Category",
	"Price",
	"Inventory",
	"Status",
	"Created At",
}

const productSheet = "Products"

func (s *catalogService) ExportProducts(ctx context.Context, ownerID, storeID string) ([]byte, error) {
	products, err := s.ListProducts(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}
	return GenerateProductExport(products)
}

// GenerateProductExport 生成商品目录 Excel 文件
func GenerateProductExport(products []*domain.Product) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(productSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(productSheet, "A1", &ProductExportHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(ProductExportHeader), 1)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(productSheet, "A1", last, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	widths := []float64{30, 16, 18, 12, 12, 12, 22}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(productSheet, col, col, w); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2) // 第1行是表头
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		row := []any{
			p.Name,
			p.SKU,
			p.Category,
			p.Price,
			p.Inventory,
			p.Status,
			p.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := f.SetSheetRow(productSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write excel file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close excel file: %w", err)
	}
	return buf.Bytes(), nil
}
