package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterRelated(t *testing.T) {
	f, err := New(DefaultEntity)
	require.NoError(t, err)

	tests := []struct {
		text string
		want bool
	}{
		{"I hate Merck becuase they kill babies 😠", true},
		{"i HATE merck", true},
		{"I hate Nasonex becuase it makes babies high 😠", true},
		{"I hate Corona, its a shitty beer", false},
		{"", false},
		{"MerckFest is cancelled", true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Related(tt.text))
		})
	}
}

func TestFilterMatchReportsCategories(t *testing.T) {
	f, err := New(Entity{
		Name:     "Acme",
		Keywords: map[string]string{"RoadRunner": "traps", "Anvil": "hardware"},
	})
	require.NoError(t, err)

	hits := f.Match("ACME anvils and acme roadrunner kits")
	require.Len(t, hits, 3)
	assert.Equal(t, Hit{Term: "acme", Category: "entity"}, hits[0])
	assert.Equal(t, Hit{Term: "anvil", Category: "hardware"}, hits[1])
	assert.Equal(t, Hit{Term: "roadrunner", Category: "traps"}, hits[2])
}

func TestNewRequiresEntityName(t *testing.T) {
	_, err := New(Entity{Name: "  "})
	assert.Error(t, err)
}
