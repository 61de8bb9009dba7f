package editor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

func TestBuildQuiz(t *testing.T) {
	tests := []struct {
		name     string
		question string
		tag      string
		body     models.QuizBody
		fields   []string
	}{
		{"valid multiple choice", "Q?", "go", models.MultipleChoice{Options: []string{"a", "b", "c", "d"}, Answer: "b"}, nil},
		{"valid true/false", "Q?", "go", models.TrueFalse{Answer: true}, nil},
		{"answer not among options", "Q?", "go", models.MultipleChoice{Options: []string{"a", "b", "c", "d"}, Answer: "e"}, []string{"answer"}},
		{"wrong option count", "Q?", "go", models.MultipleChoice{Options: []string{"a", "b"}, Answer: "a"}, []string{"options"}},
		{"blank option", "Q?", "go", models.MultipleChoice{Options: []string{"a", " ", "c", "d"}, Answer: "a"}, []string{"options[1]"}},
		{"missing question and tag", " ", "", models.TrueFalse{}, []string{"question", "tag"}},
		{"missing type", "Q?", "go", nil, []string{"type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := BuildQuiz(tt.question, tt.tag, tt.body)
			if tt.fields == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.body.Kind(), q.Kind())
				return
			}
			assert.ErrorIs(t, err, ErrInvalidQuiz)
			var fe FieldErrors
			require.True(t, errors.As(err, &fe))
			for _, f := range tt.fields {
				assert.Contains(t, fe, f)
			}
		})
	}
}

func TestBuildQuiz_TrimsInput(t *testing.T) {
	q, err := BuildQuiz("  Q? ", " go ", models.MultipleChoice{Options: []string{" a", "b ", "c", "d"}, Answer: " a "})
	require.NoError(t, err)
	assert.Equal(t, "Q?", q.Question)
	assert.Equal(t, "go", q.Tag)
	assert.Equal(t, models.MultipleChoice{Options: []string{"a", "b", "c", "d"}, Answer: "a"}, q.Body)
}
