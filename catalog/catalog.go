// Package catalog holds the fixed table of diagnostic services offered on the
// dashboard. The table is configuration data: it is built once and never
// mutated at runtime.
package catalog

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// InputType is the input modality a service accepts.
type InputType string

const (
	InputFile  InputType = "file"
	InputAudio InputType = "audio"
)

// FileConfig declares the native file-picker constraints for a file service.
// MaxSize is in megabytes and is declared only; nothing enforces it.
type FileConfig struct {
	Accept   string `json:"accept" validate:"required"`
	Multiple bool   `json:"multiple"`
	MaxSize  int    `json:"maxSize" validate:"gt=0"`
}

// AudioConfig declares recording constraints for an audio service. The
// recording page owns enforcement; these values are informational here.
type AudioConfig struct {
	MaxDuration int `json:"maxDuration" validate:"gt=0"`
	SampleRate  int `json:"sampleRate" validate:"gt=0"`
	Channels    int `json:"channels" validate:"gt=0"`
}

// Input is the tagged input variant of a Service. Exactly one of FileConfig
// or AudioConfig is set, matching Type.
type Input struct {
	Type        InputType    `json:"type" validate:"required,oneof=file audio"`
	FileConfig  *FileConfig  `json:"fileConfig,omitempty" validate:"required_if=Type file,excluded_unless=Type file"`
	AudioConfig *AudioConfig `json:"audioConfig,omitempty" validate:"required_if=Type audio,excluded_unless=Type audio"`
}

// Service is a configured diagnostic offering.
type Service struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	Input       Input  `json:"input"`
}

// AcceptsFiles reports whether the service takes uploaded files.
func (s Service) AcceptsFiles() bool {
	return s.Input.Type == InputFile && s.Input.FileConfig != nil
}

// AcceptsAudio reports whether the service records audio instead of taking files.
func (s Service) AcceptsAudio() bool {
	return s.Input.Type == InputAudio
}

// InputDescription is the human-readable input line shown on a service card.
func (s Service) InputDescription() string {
	if s.AcceptsFiles() {
		return fmt.Sprintf("Files (%s)", s.Input.FileConfig.Accept)
	}
	return "Audio Recording"
}

var services = []Service{
	{
		ID:          "skin-cancer",
		Title:       "Skin Cancer Detection",
		Description: "Upload skin images for instant AI analysis",
		Input: Input{
			Type:       InputFile,
			FileConfig: &FileConfig{Accept: "image/jpeg,image/png", Multiple: false, MaxSize: 10},
		},
	},
	{
		ID:          "breast-cancer",
		Title:       "Breast Cancer Screening",
		Description: "Analyze mammogram images with AI",
		Input: Input{
			Type:       InputFile,
			FileConfig: &FileConfig{Accept: "image/jpeg,image/png,image/dicom", Multiple: false, MaxSize: 50},
		},
	},
	{
		ID:          "lung-cancer",
		Title:       "Lung Cancer Detection",
		Description: "CT scan and X-ray analysis",
		Input: Input{
			Type:       InputFile,
			FileConfig: &FileConfig{Accept: "image/jpeg,image/png,image/dicom", Multiple: true, MaxSize: 100},
		},
	},
	{
		ID:          "tuberculosis",
		Title:       "Tuberculosis Screening",
		Description: "X-ray and CT scan analysis",
		Input: Input{
			Type:       InputFile,
			FileConfig: &FileConfig{Accept: "image/jpeg,image/png,image/dicom", Multiple: false, MaxSize: 50},
		},
	},
	{
		ID:          "parkinsons",
		Title:       "Parkinson's Detection",
		Description: "Voice recording analysis",
		Input: Input{
			Type:        InputAudio,
			AudioConfig: &AudioConfig{MaxDuration: 30, SampleRate: 44100, Channels: 1},
		},
	},
	{
		ID:          "medical-records",
		Title:       "Medical Records",
		Description: "Store and manage your health records",
		Input: Input{
			Type:       InputFile,
			FileConfig: &FileConfig{Accept: ".pdf,.doc,.docx,.jpg,.png", Multiple: true, MaxSize: 25},
		},
	},
}

// All returns the services in display order. The returned slice is a copy;
// config pointers are shared and must be treated as read-only.
func All() []Service {
	out := make([]Service, len(services))
	copy(out, services)
	return out
}

// Lookup finds a service by id.
func Lookup(id string) (Service, bool) {
	for _, s := range services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// Validate checks the table invariants: every record is well formed, the
// input config matches the input type, and ids are unique.
func Validate(list []Service) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	seen := make(map[string]struct{}, len(list))
	for i := range list {
		s := list[i]
		if err := v.Struct(&s); err != nil {
			return fmt.Errorf("service %d (%q): %w", i, s.ID, err)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("duplicate service id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}
