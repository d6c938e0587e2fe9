// Package dicommeta pulls a few identifying header tags out of DICOM files so
// they can be attached to the stored object as metadata.
package dicommeta

import (
	"fmt"
	"io"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Info captures the header tags we keep alongside an uploaded DICOM object.
type Info struct {
	StudyInstanceUID  string
	SeriesInstanceUID string
	SOPInstanceUID    string
	Modality          string
	StudyDate         string
}

// Metadata returns the non-empty fields as object metadata keys.
func (i Info) Metadata() map[string]string {
	m := map[string]string{}
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put("dicom_study_instance_uid", i.StudyInstanceUID)
	put("dicom_series_instance_uid", i.SeriesInstanceUID)
	put("dicom_sop_instance_uid", i.SOPInstanceUID)
	put("dicom_modality", i.Modality)
	put("dicom_study_date", i.StudyDate)
	return m
}

// LooksLikeDicom is a conservative name/content-type check used to decide
// whether to attempt a header parse at all.
func LooksLikeDicom(name, contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "application/dicom" || ct == "image/dicom" {
		return true
	}
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".dcm") || strings.HasSuffix(name, ".dicom")
}

// Inspect parses the DICOM header from r, skipping pixel data.
func Inspect(r io.Reader, size int64) (Info, error) {
	ds, err := dicom.Parse(r, size, nil, dicom.SkipPixelData())
	if err != nil {
		return Info{}, fmt.Errorf("dicom.Parse: %w", err)
	}
	return Info{
		StudyInstanceUID:  stringByTag(&ds, tag.StudyInstanceUID),
		SeriesInstanceUID: stringByTag(&ds, tag.SeriesInstanceUID),
		SOPInstanceUID:    stringByTag(&ds, tag.SOPInstanceUID),
		Modality:          stringByTag(&ds, tag.Modality),
		StudyDate:         stringByTag(&ds, tag.StudyDate),
	}, nil
}

// stringByTag returns the first string value for t, or "" when the element
// is missing or not string-valued.
func stringByTag(ds *dicom.Dataset, t tag.Tag) string {
	el, err := ds.FindElementByTag(t)
	if err != nil || el == nil || el.Value == nil {
		return ""
	}
	if el.Value.ValueType() != dicom.Strings {
		return ""
	}
	vals := dicom.MustGetStrings(el.Value)
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
