package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFromContext(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		ctx      context.Context
		expected *zap.SugaredLogger
	}{
		{name: "stored", ctx: WithLogger(context.Background(), zap.NewNop().Sugar())},
		{name: "fallback", ctx: context.Background(), expected: DefaultLogger()},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := FromContext(test.ctx)
			assert.NotNil(t, got)
			if test.expected != nil {
				assert.Same(t, test.expected, got)
			}
		})
	}
}
