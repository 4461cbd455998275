package businessflow

import (
	"testing"

	"github.com/appform-bd/cardapply/utils"
	"github.com/stretchr/testify/assert"
)

func TestSaveConflicts(t *testing.T) {
	tests := []struct {
		name     string
		base     *int
		stored   int
		conflict bool
	}{
		{
			name:     "absent base accepts against empty store",
			base:     nil,
			stored:   0,
			conflict: false,
		},
		{
			name:     "absent base accepts against any stored version",
			base:     nil,
			stored:   7,
			conflict: false,
		},
		{
			name:     "first save against empty store",
			base:     utils.ToPtr(0),
			stored:   0,
			conflict: false,
		},
		{
			name:     "base equal to stored accepts",
			base:     utils.ToPtr(3),
			stored:   3,
			conflict: false,
		},
		{
			name:     "base ahead of stored accepts, client authoritative",
			base:     utils.ToPtr(5),
			stored:   3,
			conflict: false,
		},
		{
			name:     "base behind stored conflicts",
			base:     utils.ToPtr(2),
			stored:   3,
			conflict: true,
		},
		{
			name:     "stale zero base against saved step conflicts",
			base:     utils.ToPtr(0),
			stored:   1,
			conflict: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.conflict, saveConflicts(tt.base, tt.stored))
		})
	}
}
