// Package objstore writes uploaded service inputs to object storage.
//
// Objects live under input/{serviceId}/{fileName}. Downstream consumers (the
// inference pipelines) watch that prefix, so the layout is a contract and
// must not change.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// InputPrefix is the root of every uploaded service input.
const InputPrefix = "input"

var (
	ErrEmptyPath      = errors.New("object path is required")
	ErrObjectNotFound = errors.New("object not found")
	ErrNoBucket       = errors.New("storage bucket name is required")
)

// Object describes a single write.
type Object struct {
	Path        string
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo is a listed object.
type ObjectInfo struct {
	Path        string            `json:"path"`
	Size        int64             `json:"size"`
	ContentType string            `json:"content_type,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Updated     time.Time         `json:"updated"`
}

// Store is the contract for object storage backends.
type Store interface {
	Put(ctx context.Context, obj Object, content io.Reader) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// ObjectPath returns input/{serviceID}/{fileName}. The file name is used as
// given; browsers already strip directory components from picked files.
func ObjectPath(serviceID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", InputPrefix, serviceID, fileName)
}

// ServicePrefix is the listing prefix for a service's uploads.
func ServicePrefix(serviceID string) string {
	return fmt.Sprintf("%s/%s/", InputPrefix, serviceID)
}

func checkPath(p string) error {
	if strings.TrimSpace(p) == "" {
		return ErrEmptyPath
	}
	return nil
}
