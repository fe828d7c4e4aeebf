package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"memodeck_backend/internal/model"
	"memodeck_backend/internal/repository"
	"memodeck_backend/internal/util"
	"memodeck_backend/pkg/monitoring"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"

	questionHeader = "Question"
	answerHeader   = "Answer"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// DeckTransferService 牌组导入导出（JSON、CSV、XLSX）
type DeckTransferService struct {
	DB       *gorm.DB
	DeckRepo *repository.DeckRepository
	CardRepo *repository.CardRepository
}

func NewDeckTransferService(db *gorm.DB, deckRepo *repository.DeckRepository, cardRepo *repository.CardRepository) *DeckTransferService {
	return &DeckTransferService{
		DB:       db,
		DeckRepo: deckRepo,
		CardRepo: cardRepo,
	}
}

type ImportCard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type ImportDeckInput struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Color       string       `json:"color"`
	Cards       []ImportCard `json:"cards"`
}

type ImportResult struct {
	Deck         *model.Deck `json:"deck"`
	TotalCards   int         `json:"total_cards"`
	SuccessCount int         `json:"success_count"`
	FailCount    int         `json:"fail_count"`
}

// Import 空白卡片计为失败，全部失败时整体回滚
func (s *DeckTransferService) Import(ctx context.Context, userID uint, in ImportDeckInput) (*ImportResult, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Cards == nil {
		return nil, util.NewValidationError("Missing required fields: name and cards array")
	}
	if len(in.Cards) == 0 {
		return nil, util.NewValidationError("At least one card is required")
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = model.DefaultDeckColor
	}

	deck := &model.Deck{
		UserID:      userID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Color:       color,
	}
	result := &ImportResult{TotalCards: len(in.Cards)}

	cards := make([]model.Card, 0, len(in.Cards))
	for _, c := range in.Cards {
		q := strings.TrimSpace(c.Question)
		a := strings.TrimSpace(c.Answer)
		if q == "" || a == "" {
			result.FailCount++
			continue
		}
		cards = append(cards, model.Card{Question: q, Answer: a, Position: len(cards)})
	}
	if len(cards) == 0 {
		return nil, util.NewValidationError("No cards could be imported")
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.DeckRepo.WithTx(tx).Create(ctx, deck); err != nil {
			return err
		}
		for i := range cards {
			cards[i].DeckID = deck.ID
		}
		return s.CardRepo.WithTx(tx).CreateBatch(ctx, cards)
	})
	if err != nil {
		return nil, dbError(err, nil)
	}

	result.SuccessCount = len(cards)
	monitoring.CardsImported.WithLabelValues("success").Add(float64(result.SuccessCount))
	monitoring.CardsImported.WithLabelValues("failed").Add(float64(result.FailCount))
	result.Deck, err = s.DeckRepo.FindForUser(ctx, deck.ID, userID)
	if err != nil {
		return nil, dbError(err, nil)
	}
	return result, nil
}

// ParseFile 按扩展名解析 CSV 或 XLSX，首行须包含 Question 与 Answer 列
func (s *DeckTransferService) ParseFile(ext string, r io.Reader) ([]ImportCard, error) {
	var rows [][]string
	var err error
	switch ext {
	case ".csv":
		rows, err = readCSV(r)
	case ".xlsx":
		rows, err = readXLSX(r)
	default:
		return nil, util.NewValidationError("Unsupported file type")
	}
	if err != nil {
		return nil, util.NewValidationError("Failed to parse file: " + err.Error())
	}
	return cardsFromRows(rows)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func cardsFromRows(rows [][]string) ([]ImportCard, error) {
	if len(rows) == 0 {
		return nil, util.NewValidationError("File is empty")
	}

	qIdx, aIdx := -1, -1
	for i, h := range rows[0] {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		switch {
		case strings.EqualFold(h, questionHeader):
			qIdx = i
		case strings.EqualFold(h, answerHeader):
			aIdx = i
		}
	}
	if qIdx < 0 || aIdx < 0 {
		return nil, util.NewValidationError(`File must contain "Question" and "Answer" columns`)
	}

	cards := make([]ImportCard, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var card ImportCard
		if qIdx < len(row) {
			card.Question = row[qIdx]
		}
		if aIdx < len(row) {
			card.Answer = row[aIdx]
		}
		// 完全空行直接跳过，不计入失败
		if strings.TrimSpace(card.Question) == "" && strings.TrimSpace(card.Answer) == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (s *DeckTransferService) Export(ctx context.Context, userID, deckID uint, format string) (*ExportFile, error) {
	if format == "" {
		format = ExportCSV
	}
	if format != ExportCSV && format != ExportXLSX {
		return nil, util.NewValidationError("Unsupported export format")
	}

	deck, err := s.DeckRepo.FindWithCards(ctx, deckID, userID)
	if err != nil {
		return nil, dbError(err, util.ErrDeckNotFound)
	}
	if len(deck.Cards) == 0 {
		return nil, util.NewValidationError("No cards to export")
	}

	rows := make([][]string, 0, len(deck.Cards)+1)
	rows = append(rows, []string{questionHeader, answerHeader})
	for _, c := range deck.Cards {
		rows = append(rows, []string{c.Question, c.Answer})
	}

	base := unsafeFilenameChars.ReplaceAllString(deck.Name, "_") + "_deck"
	if format == ExportXLSX {
		data, err := writeXLSX(rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{Filename: base + ".xlsx", ContentType: util.MimeXLSX, Data: data}, nil
	}

	data, err := writeCSV(rows)
	if err != nil {
		return nil, err
	}
	return &ExportFile{Filename: base + ".csv", ContentType: util.MimeCSV + "; charset=utf-8", Data: data}, nil
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
