package services

import (
	"context"
	"testing"

	"splitquiz/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptServiceNextContent(t *testing.T) {
	ctx := context.Background()
	service := NewPromptService(newTestDB(t))

	_, err := service.NextContent(ctx)
	assert.ErrorIs(t, err, ErrNoPrompts)

	_, err = service.CreatePrompt(ctx, &CreatePromptRequest{Text: "  tea or coffee ", LeftSplitIndex: 3, RightSplitIndex: 7})
	require.NoError(t, err)

	content, err := service.NextContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, RoundContent{Text: "tea or coffee", LeftSplitIndex: 3, RightSplitIndex: 7}, *content)

	count, err := service.CountPrompts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPromptServiceRejectsInvalidSplits(t *testing.T) {
	ctx := context.Background()
	service := NewPromptService(newTestDB(t))

	tests := []struct {
		name        string
		text        string
		left, right int
	}{
		{"empty text", "   ", 0, 0},
		{"negative left", "a or b", -1, 3},
		{"left after right", "a or b", 4, 2},
		{"right past end", "a or b", 1, 7},
		{"counted in runes", "été ou hiver", 3, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreatePrompt(ctx, &CreatePromptRequest{Text: tt.text, LeftSplitIndex: tt.left, RightSplitIndex: tt.right})
			assert.ErrorIs(t, err, ErrInvalidPrompt)
		})
	}

	_, err := service.CreatePrompt(ctx, &CreatePromptRequest{Text: "été ou hiver", LeftSplitIndex: 3, RightSplitIndex: 7})
	assert.NoError(t, err)
}

func TestPromptServiceSkipsCorruptRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.Prompt{Text: "short", LeftSplitIndex: 2, RightSplitIndex: 40}).Error)

	_, err := NewPromptService(db).NextContent(ctx)
	assert.ErrorIs(t, err, ErrInvalidPrompt)
}
