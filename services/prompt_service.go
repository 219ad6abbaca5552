package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"splitquiz/models"

	"gorm.io/gorm"
)

// ContentSupplier provides the prompt for a new round.
type ContentSupplier interface {
	NextContent(ctx context.Context) (*RoundContent, error)
}

// ContentSupplierFunc adapts a function to ContentSupplier.
type ContentSupplierFunc func(ctx context.Context) (*RoundContent, error)

func (f ContentSupplierFunc) NextContent(ctx context.Context) (*RoundContent, error) {
	return f(ctx)
}

type PromptService struct {
	db *gorm.DB
}

func NewPromptService(db *gorm.DB) *PromptService {
	return &PromptService{db: db}
}

type CreatePromptRequest struct {
	Text            string `json:"text" binding:"required"`
	LeftSplitIndex  int    `json:"l_index"`
	RightSplitIndex int    `json:"r_index"`
}

// NextContent returns a random stored prompt.
func (s *PromptService) NextContent(ctx context.Context) (*RoundContent, error) {
	var prompt models.Prompt
	err := s.db.WithContext(ctx).Order("RANDOM()").Take(&prompt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPrompts
		}
		return nil, fmt.Errorf("failed to load prompt: %w", err)
	}

	if err := validatePrompt(prompt.Text, prompt.LeftSplitIndex, prompt.RightSplitIndex); err != nil {
		return nil, fmt.Errorf("prompt %d: %w", prompt.ID, err)
	}

	return &RoundContent{
		Text:            prompt.Text,
		LeftSplitIndex:  prompt.LeftSplitIndex,
		RightSplitIndex: prompt.RightSplitIndex,
	}, nil
}

func (s *PromptService) CreatePrompt(ctx context.Context, req *CreatePromptRequest) (*models.Prompt, error) {
	text := strings.TrimSpace(req.Text)
	if err := validatePrompt(text, req.LeftSplitIndex, req.RightSplitIndex); err != nil {
		return nil, err
	}

	prompt := models.Prompt{
		Text:            text,
		LeftSplitIndex:  req.LeftSplitIndex,
		RightSplitIndex: req.RightSplitIndex,
	}
	if err := s.db.WithContext(ctx).Create(&prompt).Error; err != nil {
		return nil, fmt.Errorf("failed to create prompt: %w", err)
	}
	return &prompt, nil
}

func (s *PromptService) CountPrompts(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Prompt{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func validatePrompt(text string, left, right int) error {
	if text == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidPrompt)
	}
	length := utf8.RuneCountInString(text)
	if left < 0 || left > right || right > length {
		return fmt.Errorf("%w: split %d..%d outside text of length %d", ErrInvalidPrompt, left, right, length)
	}
	return nil
}
