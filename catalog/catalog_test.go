package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_OrderAndCount(t *testing.T) {
	got := All()
	require.Len(t, got, 6)

	ids := make([]string, 0, len(got))
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{
		"skin-cancer",
		"breast-cancer",
		"lung-cancer",
		"tuberculosis",
		"parkinsons",
		"medical-records",
	}, ids)
}

func TestAll_ReturnsCopy(t *testing.T) {
	first := All()
	first[0].Title = "changed"

	again := All()
	assert.Equal(t, "Skin Cancer Detection", again[0].Title)
}

func TestValidate_BuiltInTable(t *testing.T) {
	require.NoError(t, Validate(All()))
}

func TestValidate_RejectsDuplicateIDs(t *testing.T) {
	list := All()
	list = append(list, list[0])

	err := Validate(list)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate service id")
}

func TestValidate_RejectsMismatchedConfig(t *testing.T) {
	tests := []struct {
		name  string
		input Input
	}{
		{
			name:  "file without file config",
			input: Input{Type: InputFile},
		},
		{
			name: "file with audio config",
			input: Input{
				Type:        InputFile,
				FileConfig:  &FileConfig{Accept: "image/png", MaxSize: 1},
				AudioConfig: &AudioConfig{MaxDuration: 1, SampleRate: 1, Channels: 1},
			},
		},
		{
			name: "audio with file config",
			input: Input{
				Type:        InputAudio,
				FileConfig:  &FileConfig{Accept: "image/png", MaxSize: 1},
				AudioConfig: &AudioConfig{MaxDuration: 1, SampleRate: 1, Channels: 1},
			},
		},
		{
			name:  "unknown type",
			input: Input{Type: "video"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]Service{{ID: "x", Title: "X", Input: tt.input}})
			assert.Error(t, err)
		})
	}
}

func TestLookup(t *testing.T) {
	s, ok := Lookup("lung-cancer")
	require.True(t, ok)
	assert.True(t, s.AcceptsFiles())
	assert.True(t, s.Input.FileConfig.Multiple)
	assert.Equal(t, 100, s.Input.FileConfig.MaxSize)

	_, ok = Lookup("does-not-exist")
	assert.False(t, ok)
}

func TestInputDescription(t *testing.T) {
	skin, _ := Lookup("skin-cancer")
	assert.Equal(t, "Files (image/jpeg,image/png)", skin.InputDescription())

	park, _ := Lookup("parkinsons")
	assert.True(t, park.AcceptsAudio())
	assert.False(t, park.AcceptsFiles())
	assert.Nil(t, park.Input.FileConfig)
	assert.Equal(t, "Audio Recording", park.InputDescription())
}
