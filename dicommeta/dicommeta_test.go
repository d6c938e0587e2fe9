package dicommeta

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
	"github.com/suyashkumar/dicom/pkg/uid"
)

// writeTestDicom encodes a small header-only DICOM file.
func writeTestDicom(t *testing.T) []byte {
	t.Helper()
	elem := func(tg tag.Tag, v []string) *dicom.Element {
		e, err := dicom.NewElement(tg, v)
		require.NoError(t, err)
		return e
	}
	ds := dicom.Dataset{Elements: []*dicom.Element{
		elem(tag.MediaStorageSOPClassUID, []string{"1.2.840.10008.5.1.4.1.1.2"}),
		elem(tag.MediaStorageSOPInstanceUID, []string{"1.2.3.4.5"}),
		elem(tag.TransferSyntaxUID, []string{uid.ExplicitVRLittleEndian}),
		elem(tag.SOPInstanceUID, []string{"1.2.3.4.5"}),
		elem(tag.Modality, []string{"CT"}),
		elem(tag.StudyInstanceUID, []string{"1.2.3"}),
		elem(tag.SeriesInstanceUID, []string{"1.2.3.4"}),
	}}

	var buf bytes.Buffer
	require.NoError(t, dicom.Write(&buf, ds))
	return buf.Bytes()
}

func TestLooksLikeDicom(t *testing.T) {
	tests := []struct {
		name, contentType string
		want              bool
	}{
		{"scan.dcm", "", true},
		{"SCAN.DICOM", "", true},
		{"scan", "application/dicom", true},
		{"scan", "image/dicom", true},
		{"mole.png", "image/png", false},
		{"report.pdf", "application/pdf", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksLikeDicom(tt.name, tt.contentType), "%s %s", tt.name, tt.contentType)
	}
}

func TestInspect_NotDicom(t *testing.T) {
	body := strings.Repeat("x", 256)
	_, err := Inspect(strings.NewReader(body), int64(len(body)))
	assert.Error(t, err)
}

func TestInspect_ReadsHeaderTags(t *testing.T) {
	raw := writeTestDicom(t)

	info, err := Inspect(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	assert.Equal(t, "1.2.3", info.StudyInstanceUID)
	assert.Equal(t, "1.2.3.4", info.SeriesInstanceUID)
	assert.Equal(t, "1.2.3.4.5", info.SOPInstanceUID)
	assert.Equal(t, "CT", info.Modality)
	assert.Empty(t, info.StudyDate)
	assert.Equal(t, "CT", info.Metadata()["dicom_modality"])
}

func TestInfo_MetadataSkipsEmpty(t *testing.T) {
	info := Info{StudyInstanceUID: "1.2.3", Modality: "CT"}
	assert.Equal(t, map[string]string{
		"dicom_study_instance_uid": "1.2.3",
		"dicom_modality":           "CT",
	}, info.Metadata())
}
