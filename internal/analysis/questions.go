package analysis

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healinggarden/kokoro/internal/models"
	"github.com/healinggarden/kokoro/internal/store"
)

// DefaultQuestionCount is how many questions Generate returns when the
// caller does not ask for a specific count.
const DefaultQuestionCount = 5

// recentEntryWindow is how many recent entries inform theme extraction.
const recentEntryWindow = 10

var baseQuestions = []string{
	"What made you smile today?",
	"What challenged you today?",
	"What are you grateful for today?",
	"How did you take care of yourself today?",
	"What did you learn about yourself today?",
	"Who made a positive impact on your day?",
	"What would you like to do differently tomorrow?",
	"What are you looking forward to?",
	"How did you handle stress today?",
	"What made you feel proud today?",
	"What self-care activity did you practice?",
	"What boundaries did you set or maintain?",
	"How did you show yourself compassion?",
	"What small win can you celebrate?",
	"What emotions did you notice throughout the day?",
}

var moodQuestions = map[string][]string{
	"happy": {
		"What specifically contributed to your happiness today?",
		"How can you carry this positive energy forward?",
		"Who shared in your happiness today?",
		"What does this feeling teach you about what matters to you?",
	},
	"sad": {
		"What comforted you during difficult moments?",
		"What support do you need right now?",
		"What's one small thing that could bring you comfort?",
		"How can you be gentle with yourself today?",
	},
	"anxious": {
		"What's within your control right now?",
		"What evidence do you have that challenges your worries?",
		"What grounding techniques helped you today?",
		"What would you tell a friend who felt this way?",
	},
	"angry": {
		"What boundary might need attention?",
		"What's the underlying need behind this feeling?",
		"How can you channel this energy constructively?",
		"What would help you feel heard or respected?",
	},
	"tired": {
		"What would genuine rest look like for you?",
		"What's draining your energy that you could let go of?",
		"How can you prioritize restoration?",
		"What small adjustment could make tomorrow easier?",
	},
	"neutral": {
		"What subtle feelings did you notice today?",
		"How does this steadiness serve you?",
		"What maintained your balance today?",
		"What small thing brought you quiet satisfaction?",
	},
}

var themeKeywords = map[string][]string{
	"work":            {"work", "job", "career", "office", "meeting", "project"},
	"relationships":   {"friend", "family", "partner", "relationship", "love"},
	"health":          {"health", "exercise", "sleep", "diet", "doctor", "pain"},
	"personal_growth": {"learn", "grow", "improve", "goal", "achievement"},
	"stress":          {"stress", "anxious", "overwhelmed", "pressure", "deadline"},
	"gratitude":       {"thankful", "grateful", "appreciate", "blessed"},
	"self_care":       {"rest", "relax", "meditate", "bath", "massage", "treat"},
	"creativity":      {"create", "write", "draw", "paint", "music", "art"},
}

var themeQuestions = map[string][]string{
	"work": {
		"What was rewarding about your work today?",
		"What work challenge are you navigating?",
		"How do you maintain work-life balance?",
	},
	"relationships": {
		"Who enriched your life today?",
		"How did you nurture your relationships today?",
		"What relationship are you grateful for?",
	},
	"health": {
		"How did you honor your body today?",
		"What health choice are you proud of?",
		"How can you better listen to your body's needs?",
	},
}

// QuestionGenerator produces reflective prompts from a user's recent
// mood and entry themes. Every generated set is logged as an interaction.
type QuestionGenerator struct {
	store  store.Store
	rng    *rand.Rand
	logger *zap.Logger
}

// NewQuestionGenerator creates a question generator.
func NewQuestionGenerator(st store.Store, logger *zap.Logger) *QuestionGenerator {
	return &QuestionGenerator{
		store:  st,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}
}

// Generate returns up to count questions for the user: at most two drawn
// from their latest mood, at most two from recurring themes, with base
// questions filling the rest. Order is shuffled.
func (g *QuestionGenerator) Generate(ctx context.Context, userID string, count int) ([]string, error) {
	if count <= 0 {
		count = DefaultQuestionCount
	}

	entries, err := g.store.FindEmbeddedEntries(ctx, userID, recentEntryWindow)
	if err != nil {
		return nil, err
	}

	mood := ""
	if len(entries) > 0 {
		mood = strings.ToLower(entries[0].Mood)
	}
	themes := extractThemes(entries)
	questions := g.selectQuestions(mood, themes, count)

	interaction := &models.Interaction{
		ID:     uuid.New().String(),
		UserID: userID,
		Type:   models.InteractionSuggestedQuestion,
		Content: map[string]any{
			"questions": questions,
		},
		Context: map[string]any{
			"mood":        mood,
			"themes":      themes,
			"entry_count": len(entries),
		},
		CreatedAt: time.Now(),
	}
	if err := g.store.SaveInteraction(ctx, interaction); err != nil {
		g.logger.Warn("failed to log question interaction",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	return questions, nil
}

// extractThemes returns up to three themes whose keywords appear in the
// combined entry text, in stable theme-name order.
func extractThemes(entries []*models.Entry) []string {
	if len(entries) == 0 {
		return nil
	}
	var b strings.Builder
	for _, entry := range entries {
		b.WriteString(strings.ToLower(entry.Text))
		b.WriteString(" ")
	}
	allText := b.String()

	var themes []string
	for theme, keywords := range themeKeywords {
		for _, keyword := range keywords {
			if strings.Contains(allText, keyword) {
				themes = append(themes, theme)
				break
			}
		}
	}
	sort.Strings(themes)
	if len(themes) > 3 {
		themes = themes[:3]
	}
	return themes
}

func (g *QuestionGenerator) selectQuestions(mood string, themes []string, count int) []string {
	seen := map[string]struct{}{}
	var selected []string
	add := func(q string) {
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		selected = append(selected, q)
	}

	if bank, ok := moodQuestions[mood]; ok {
		for _, i := range g.rng.Perm(len(bank))[:min(2, len(bank))] {
			add(bank[i])
		}
	}

	var fromThemes []string
	for _, theme := range themes {
		fromThemes = append(fromThemes, themeQuestions[theme]...)
	}
	if len(fromThemes) > 0 {
		for _, i := range g.rng.Perm(len(fromThemes))[:min(2, len(fromThemes))] {
			add(fromThemes[i])
		}
	}

	if remaining := count - len(selected); remaining > 0 {
		perm := g.rng.Perm(len(baseQuestions))
		for _, i := range perm {
			if len(selected) >= count {
				break
			}
			add(baseQuestions[i])
		}
	}

	if len(selected) > count {
		selected = selected[:count]
	}
	g.rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	return selected
}
