package log_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/runview/internal/log"
)

func TestCtxWithValues(t *testing.T) {
	tests := map[string]struct {
		first  log.Kv
		second log.Kv
		exp    log.Kv
	}{
		"Without values the context should be empty.": {
			exp: log.Kv{},
		},
		"Values should be merged and the newest should win.": {
			first:  log.Kv{"run": "r1", "src": "poll"},
			second: log.Kv{"src": "push"},
			exp:    log.Kv{"run": "r1", "src": "push"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if test.first != nil {
				ctx = log.CtxWithValues(ctx, test.first)
			}
			if test.second != nil {
				ctx = log.CtxWithValues(ctx, test.second)
			}

			assert.Equal(t, test.exp, log.ValuesFromCtx(ctx))
		})
	}
}
