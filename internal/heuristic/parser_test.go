package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/diaryd/internal/domain"
)

func TestParser_Parse_Categories(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name            string
		text            string
		wantCategory    string
		wantSubcategory string
	}{
		{
			name:            "gym with bodybuilding subcategory",
			text:            "пожал сотку в зале",
			wantCategory:    "спорт",
			wantSubcategory: "бодибилдинг",
		},
		{
			name:            "study with math subcategory",
			text:            "решал задачи по математике",
			wantCategory:    "учёба",
			wantSubcategory: "математика",
		},
		{
			name:         "cooking",
			text:         "приготовил ужин",
			wantCategory: "готовка",
		},
		{
			name:         "work",
			text:         "созвон по проекту",
			wantCategory: "работа",
		},
		{
			name:            "creative with music subcategory",
			text:            "играл на гитаре",
			wantCategory:    "творчество",
			wantSubcategory: "музыка",
		},
		{
			name:         "self development",
			text:         "медитировал перед сном",
			wantCategory: "саморазвитие",
		},
		{
			name:         "social",
			text:         "встретился с друзьями",
			wantCategory: "социальное",
		},
		{
			name:         "household",
			text:         "убрался в квартире",
			wantCategory: "дом",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Parse(tt.text)
			require.Len(t, result.Actions, 1)
			assert.Equal(t, tt.wantCategory, result.Actions[0].Category)
			assert.Equal(t, tt.wantSubcategory, result.Actions[0].Subcategory)
			assert.Equal(t, domain.SourceHeuristic, result.Actions[0].Source)
		})
	}
}

func TestParser_Parse_GymSessionWithDuration(t *testing.T) {
	p := NewParser()

	result := p.Parse("Сходил в зал, потренировался 90 минут")

	require.Len(t, result.Actions, 1)
	action := result.Actions[0]
	assert.Equal(t, "спорт", action.Category)
	assert.Equal(t, domain.KindActivity, action.Kind)
	require.NotNil(t, action.ExplicitMinutes)
	assert.Equal(t, 90, *action.ExplicitMinutes)
	assert.InDelta(t, 0.9, action.Confidence, 0.001)
	assert.Contains(t, result.Heuristics, "time_extraction")
}

func TestParser_Parse_FirstMarathon(t *testing.T) {
	p := NewParser()

	result := p.Parse("впервые пробежал марафон")

	require.Len(t, result.Actions, 1)
	action := result.Actions[0]
	assert.Equal(t, "спорт", action.Category)
	assert.Equal(t, "кардио", action.Subcategory)
	assert.Equal(t, domain.KindAchievement, action.Kind)
	require.NotNil(t, action.AchievementWeight)
	assert.Equal(t, 20, *action.AchievementWeight)
	assert.Nil(t, action.ExplicitMinutes)
	assert.Contains(t, result.Heuristics, "achievement_keywords")
}

func TestParser_Parse_Achievements(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name       string
		text       string
		wantWeight int
	}{
		{name: "record", text: "побил рекорд в приседе", wantWeight: 25},
		{name: "exam", text: "сдал экзамен по математике", wantWeight: 20},
		{name: "completion", text: "завершил курс по программированию", wantWeight: 12},
		{name: "managed to", text: "смог подтянуться 20 раз", wantWeight: 10},
		{name: "finally", text: "наконец убрался дома", wantWeight: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Parse(tt.text)
			require.Len(t, result.Actions, 1)
			action := result.Actions[0]
			assert.Equal(t, domain.KindAchievement, action.Kind)
			require.NotNil(t, action.AchievementWeight)
			assert.Equal(t, tt.wantWeight, *action.AchievementWeight)
		})
	}
}

func TestParser_Parse_MultipleActions(t *testing.T) {
	p := NewParser()

	result := p.Parse("пробежал 5 км утром, приготовил обед и почитал книгу")

	require.Len(t, result.Actions, 3)
	assert.Equal(t, "спорт", result.Actions[0].Category)
	assert.Equal(t, "готовка", result.Actions[1].Category)
	assert.Equal(t, "учёба", result.Actions[2].Category)
}

func TestParser_Parse_AdjacentSameBucketMerged(t *testing.T) {
	p := NewParser()

	// Both segments land in the same bucket, so they describe one episode.
	result := p.Parse("сходил в бассейн, плавал 40 минут")

	require.Len(t, result.Actions, 1)
	require.NotNil(t, result.Actions[0].ExplicitMinutes)
	assert.Equal(t, 40, *result.Actions[0].ExplicitMinutes)
}

func TestParser_Parse_DifferentSubcategoriesStaySeparate(t *testing.T) {
	p := NewParser()

	result := p.Parse("пробежал 5 км, пожал сотку")

	require.Len(t, result.Actions, 2)
	assert.Equal(t, "кардио", result.Actions[0].Subcategory)
	assert.Equal(t, "бодибилдинг", result.Actions[1].Subcategory)
}

func TestParser_Parse_NoMatch(t *testing.T) {
	p := NewParser()

	result := p.Parse("сегодня ничего особенного не происходило")

	assert.Empty(t, result.Actions)
	assert.Zero(t, result.Confidence)
	assert.Equal(t, []string{"segmentation"}, result.Heuristics)
}

func TestParser_Parse_AggregateConfidenceIsMean(t *testing.T) {
	p := NewParser()

	// "зал" alone scores 0.7; with an explicit duration it scores 0.9.
	result := p.Parse("сходил в зал. приготовил ужин за 30 минут")

	require.Len(t, result.Actions, 2)
	assert.InDelta(t, 0.7, result.Actions[0].Confidence, 0.001)
	assert.InDelta(t, 0.9, result.Actions[1].Confidence, 0.001)
	assert.InDelta(t, 0.8, result.Confidence, 0.001)
}

func TestParser_Parse_DescriptionStripsTime(t *testing.T) {
	p := NewParser()

	result := p.Parse("читал книгу 2 часа")

	require.Len(t, result.Actions, 1)
	assert.Equal(t, "читал книгу", result.Actions[0].Description)
	require.NotNil(t, result.Actions[0].ExplicitMinutes)
	assert.Equal(t, 120, *result.Actions[0].ExplicitMinutes)
}
