package builder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"ap-story-web/internal/domain"
)

type stubExecutor struct {
	err   error
	calls int
}

func (s *stubExecutor) Execute(context.Context, domain.StoryTaskPayload) error {
	s.calls++
	return s.err
}

func TestPermanentFailureFilter(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		expectErr bool
	}{
		{"success passes through", nil, false},
		{"validation error is acknowledged", fmt.Errorf("intake step failed: %w",
			domain.NewValidation("no usable input")), false},
		{"content integrity error is acknowledged", fmt.Errorf("document intelligence step failed: %w",
			domain.NewContentIntegrity("no usable content could be extracted from 1 url(s)")), false},
		{"transient error keeps the retry", errors.New("context deadline exceeded"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			executor := &stubExecutor{err: tc.err}
			filter := permanentFailureFilter{inner: executor}

			err := filter.Execute(context.Background(), domain.StoryTaskPayload{StoryID: "story-1"})

			assert.Equal(t, 1, executor.calls)
			if tc.expectErr {
				assert.ErrorIs(t, err, tc.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
