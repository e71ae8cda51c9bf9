package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fulfillment-service/internal/domain/entities"
	"fulfillment-service/internal/domain/repositories"
	"fulfillment-service/internal/logger"

	"github.com/xuri/excelize/v2"
)

// HistorySheet 导出文件中的工作表名
const HistorySheet = "历史记录"

var historyHeaders = []string{"任务编号", "状态", "创建人", "商品明细", "创建时间", "完成时间"}

// HistoryService 历史记录服务
type HistoryService struct {
	repo repositories.HistoryRepository
	log  logger.Logger
	now  func() time.Time
}

// NewHistoryService 创建历史记录服务
func NewHistoryService(repo repositories.HistoryRepository, log logger.Logger) *HistoryService {
	return &HistoryService{repo: repo, log: log, now: entities.Now}
}

// List 获取全部历史记录
func (s *HistoryService) List(ctx context.Context) ([]entities.History, error) {
	return s.repo.List(ctx)
}

// Create 直接写入一条历史记录，完成时间默认为当前时间
func (s *HistoryService) Create(ctx context.Context, dto entities.CreateHistoryDTO) (entities.History, error) {
	history := entities.History{TaskFields: dto.Fields()}
	if dto.CompletedAt != nil && !dto.CompletedAt.IsZero() {
		history.CompletedAt = dto.CompletedAt.UTC()
	} else {
		history.CompletedAt = s.now()
	}
	return s.repo.Create(ctx, history)
}

// Export 导出全部历史记录为xlsx
func (s *HistoryService) Export(ctx context.Context) ([]byte, error) {
	history, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", HistorySheet); err != nil {
		return nil, err
	}

	for i, h := range historyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(HistorySheet, cell, h)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(historyHeaders), 1)
	f.SetCellStyle(HistorySheet, "A1", lastHeader, headerStyle)

	for i, h := range history {
		row := []interface{}{
			h.TaskNumber,
			h.Status,
			h.CreatorName,
			summarizeItems(h.Items),
			h.CreatedAt.Format(time.DateTime),
			h.CompletedAt.Format(time.DateTime),
		}
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(HistorySheet, cell, v)
		}
	}
	f.SetColWidth(HistorySheet, "A", "F", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("生成导出文件失败: %w", err)
	}

	s.log.InfoContext(ctx, "导出历史记录: %d条", len(history))
	return buf.Bytes(), nil
}

// summarizeItems 将明细转换为“编码x数量”的可读形式
func summarizeItems(items entities.Items) string {
	lines, err := items.Lines()
	if err != nil {
		return string(items)
	}

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		_, ref := line.Ref()
		if ref == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s x%d", ref, line.Quantity))
	}
	return strings.Join(parts, ", ")
}
